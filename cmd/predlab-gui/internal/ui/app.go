// Package ui holds the predlab-gui screens: participant intake, the
// sentence-reveal experiment, and the completion screen.
//
// The engine runs on its own timers and publishes frames through a
// frameStore; layout code only ever reads the latest frame. The one
// obligation layout carries toward the measurement is the paint-commit
// acknowledgment: a frame that shows the prediction input is laid out
// twice before RenderCommitted is called with its sequence number, so the
// display stamp is never taken from a frame the compositor may not have
// presented yet.
package ui

import (
	"fmt"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op/paint"

	"predlab/cmd/predlab-gui/internal/theme"
	"predlab/internal/clock"
	"predlab/internal/config"
	"predlab/internal/engine"
	"predlab/internal/export"
	"predlab/internal/inhibit"
	"predlab/internal/ledger"
	"predlab/internal/logging"
	"predlab/internal/session"
	"predlab/internal/stimulus"
	"predlab/internal/timing"
)

type screen int

const (
	screenIntake screen = iota
	screenExperiment
	screenDone
)

// App owns the window-level state and routes layout to the active screen.
type App struct {
	theme *theme.Theme
	cfg   *config.Config
	log   *logging.Logger
	win   *app.Window

	mu         sync.Mutex
	screen     screen
	list       *stimulus.List
	resultPath string
	exportErr  error

	validator *session.Validator
	watcher   *stimulus.Watcher

	intake *IntakeScreen
	exp    *ExperimentScreen
	frames *frameStore

	// Per-run state, populated by startRun.
	sess *session.Session
	ledg *ledger.Ledger
	eng  *engine.Engine
	inh  *inhibit.Inhibitor
}

// NewApp builds the application state. The stimulus list is loaded up
// front (falling back to the built-in sample) so the intake screen can
// show the operator what the participant is about to see.
func NewApp(t *theme.Theme, cfg *config.Config, log *logging.Logger, win *app.Window) (*App, error) {
	validator, err := session.NewValidator(cfg.Participant)
	if err != nil {
		return nil, err
	}

	a := &App{
		theme:     t,
		cfg:       cfg,
		log:       log.WithComponent("ui"),
		win:       win,
		validator: validator,
		list:      stimulus.LoadOrDefault(cfg.Stimulus.Path, log),
		frames:    &frameStore{win: win},
	}
	a.intake = NewIntakeScreen(t, cfg.UI.InstructionText, a.startRun)
	a.exp = NewExperimentScreen(t, cfg.UI.CompletionText)

	if cfg.Stimulus.Watch {
		w, err := stimulus.NewWatcher(cfg.Stimulus.Path, 500*time.Millisecond, log)
		if err != nil {
			// The session proceeds with the list loaded at startup.
			a.log.Warn("stimulus watch unavailable", "error", err)
		} else {
			a.watcher = w
			go a.watchStimuli()
		}
	}
	return a, nil
}

// watchStimuli swaps in edited stimulus lists until the watcher is closed
// at run start or shutdown.
func (a *App) watchStimuli() {
	for list := range a.watcher.Lists() {
		a.mu.Lock()
		if a.screen == screenIntake {
			a.list = list
			a.log.Info("stimulus list reloaded",
				"sentences", len(list.Sentences),
				"opportunities", list.Opportunities())
		}
		a.mu.Unlock()
		a.win.Invalidate()
	}
}

// startRun validates the intake form and, on success, wires up a fresh
// session and starts the engine. Returned errors are shown on the form.
func (a *App) startRun(demo session.Demographics) error {
	if err := a.validator.Validate(demo); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen != screenIntake {
		return nil
	}

	// The list is pinned for the run; stop reloading it.
	if a.watcher != nil {
		a.watcher.Close()
	}

	sess, err := session.New(demo)
	if err != nil {
		return err
	}
	ledg, err := ledger.New(sess.Seed, sess.ID)
	if err != nil {
		return err
	}

	clk := clock.NewMonotonic()
	capture := timing.New(clk, a.log)

	a.sess = sess
	a.ledg = ledg
	a.inh = inhibit.Acquire("experiment in progress", a.log)
	a.eng = engine.New(engine.Options{
		Config: engine.Config{
			Settle:      time.Duration(a.cfg.Timing.SettleMs) * time.Millisecond,
			InputBackup: time.Duration(a.cfg.Timing.InputBackupMs) * time.Millisecond,
			AutoAdvance: time.Duration(a.cfg.Timing.AutoAdvanceMs) * time.Millisecond,
			ISI:         time.Duration(a.cfg.Timing.ISIMs) * time.Millisecond,
			Prompt:      a.cfg.UI.PromptText,
			AdvanceText: a.cfg.UI.AdvanceText,
			HangulOnly:  a.cfg.Stimulus.HangulOnly,
		},
		Clock:      clk,
		Scheduler:  engine.NewTimerScheduler(),
		Capture:    capture,
		Ledger:     ledg,
		Session:    sess,
		Renderer:   a.frames,
		Logger:     a.log,
		Sentences:  a.list.Sentences,
		OnComplete: a.onComplete,
	})
	a.exp.Bind(a.eng)

	if err := a.eng.Start(); err != nil {
		return err
	}
	a.screen = screenExperiment
	return nil
}

// onComplete exports the finished run. Runs on an engine timer goroutine.
func (a *App) onComplete(records []ledger.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sink, err := export.New(a.cfg.Export)
	if err == nil {
		a.resultPath, err = export.WriteWithFallback(sink, export.Run{
			ParticipantID: a.sess.ID,
			StartedAt:     a.sess.CreatedAt,
			Records:       records,
			ChainHead:     a.ledg.Head(),
			Seal:          a.ledg.Seal(),
		}, a.cfg.Export.FallbackCSV, a.log)
	}
	a.exportErr = err
	if err != nil {
		a.log.Error("export failed", "error", err)
	}

	a.inh.Release()
	a.screen = screenDone
	a.win.Invalidate()
}

// Shutdown flushes a partial run on window close. A run interrupted
// mid-sentence still produced real measurements; they go to the fallback
// CSV sink rather than being discarded with the window.
func (a *App) Shutdown() {
	if a.watcher != nil {
		a.watcher.Close()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen != screenExperiment || a.ledg == nil || a.ledg.Len() == 0 {
		return
	}

	csv := &export.CSVSink{Dir: a.cfg.Export.Dir}
	path, err := csv.Write(export.Run{
		ParticipantID: a.sess.ID,
		StartedAt:     a.sess.CreatedAt,
		Records:       a.ledg.All(),
		ChainHead:     a.ledg.Head(),
		Seal:          a.ledg.Seal(),
	})
	if err != nil {
		a.log.Error("partial-run flush failed", "error", err)
	} else {
		a.log.Info("partial run flushed", "path", path, "records", a.ledg.Len())
	}
	a.inh.Release()
}

// Layout renders the active screen.
func (a *App) Layout(gtx layout.Context) layout.Dimensions {
	paint.Fill(gtx.Ops, a.theme.Palette.Background)

	a.mu.Lock()
	scr := a.screen
	list := a.list
	resultPath := a.resultPath
	exportErr := a.exportErr
	a.mu.Unlock()

	switch scr {
	case screenIntake:
		return a.intake.Layout(gtx, list)
	case screenDone:
		frame, _ := a.frames.Latest()
		return a.exp.LayoutDone(gtx, frame, resultPath, exportErr)
	default:
		frame, ok := a.frames.Latest()
		if !ok {
			return layout.Dimensions{Size: gtx.Constraints.Max}
		}
		return a.exp.Layout(gtx, frame)
	}
}

// frameStore is the engine's renderer: it retains only the latest frame
// and wakes the window. Layout pulls the frame on its own schedule;
// intermediate frames may be skipped but never reordered.
type frameStore struct {
	mu  sync.Mutex
	f   engine.Frame
	ok  bool
	win *app.Window
}

func (s *frameStore) Render(f engine.Frame) {
	s.mu.Lock()
	s.f = f
	s.ok = true
	s.mu.Unlock()
	s.win.Invalidate()
}

// Latest returns the most recent frame, if any has been rendered.
func (s *frameStore) Latest() (engine.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f, s.ok
}

// progressLabel formats the opportunity counter for the corner caption.
func progressLabel(f engine.Frame) string {
	return fmt.Sprintf("%d / %d", f.ProgressCurrent, f.ProgressTotal)
}
