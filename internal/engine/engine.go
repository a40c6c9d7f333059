// Package engine drives the word-by-word sentence-reveal state machine.
//
// The engine owns sentence index, word index, and phase. External events
// (start, render-commit acknowledgment, focus, keystroke, confirm) and the
// engine's own timers all enter through methods that serialize on one
// mutex, so commands are processed one at a time. Timer callbacks carry the
// generation counter current when they were scheduled; a callback whose
// generation no longer matches fired for a step the engine already left and
// is discarded. Together with the iff-unset stamp writes in the timing
// package this gives the at-most-once guarantees the measurement depends
// on, even though display-commit confirmation, focus events, and the backup
// timeout are independently scheduled and may fire in any relative order.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"predlab/internal/clock"
	"predlab/internal/ledger"
	"predlab/internal/logging"
	"predlab/internal/session"
	"predlab/internal/timing"
	"predlab/internal/token"
)

// Phase is the engine's lifecycle state.
type Phase int

// Phases, in rough lifecycle order.
const (
	PhaseIdle Phase = iota
	PhaseRevealing
	PhaseAwaitingPrediction
	PhaseAutoAdvancing
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRevealing:
		return "revealing"
	case PhaseAwaitingPrediction:
		return "awaiting-prediction"
	case PhaseAutoAdvancing:
		return "auto-advancing"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Engine errors. Both are recoverable caller errors, not faults.
var (
	ErrAlreadyStarted  = errors.New("engine: already started")
	ErrNotAwaiting     = errors.New("engine: no prediction in progress")
	ErrEmptyPrediction = errors.New("engine: empty prediction")
)

// Frame is what the renderer consumes for one screen state.
type Frame struct {
	// Seq identifies the frame for render-commit acknowledgment.
	Seq uint64

	// Prefix is the revealed sentence prefix.
	Prefix string

	// Prompt is the instruction line under the prefix.
	Prompt string

	// InputVisible shows the prediction input. Frames with InputVisible
	// must be acknowledged via RenderCommitted once durably painted.
	InputVisible bool

	// ProgressCurrent/ProgressTotal count prediction opportunities:
	// completed ones plus the in-flight one.
	ProgressCurrent int
	ProgressTotal   int

	// Completed marks the final thank-you frame.
	Completed bool
}

// Progress renders the "current/total" progress fraction.
func (f Frame) Progress() string {
	return fmt.Sprintf("%d/%d", f.ProgressCurrent, f.ProgressTotal)
}

// Renderer consumes frames. Render is called outside the engine lock; for
// frames with InputVisible the renderer must, after the new content is
// durably committed to the visible screen (two event-loop yields at
// minimum), call Engine.RenderCommitted with the frame's Seq. The engine
// adds the settle delay itself; the policy errs toward waiting longer.
type Renderer interface {
	Render(f Frame)
}

// Config holds the engine's delays and presentation options.
type Config struct {
	// Settle is the fixed delay between the renderer's commit
	// acknowledgment and the display-time stamp.
	Settle time.Duration

	// InputBackup is the backup input-start trigger delay after the
	// display stamp, covering runtimes without reliable focus events.
	InputBackup time.Duration

	// AutoAdvance is the hold on a sentence's terminal word.
	AutoAdvance time.Duration

	// ISI is the pause showing the newly revealed word after a confirm.
	ISI time.Duration

	// Prompt is shown during prediction; AdvanceText between steps.
	Prompt      string
	AdvanceText string

	// HangulOnly strips non-Hangul runes from predictions.
	HangulOnly bool

	// Simulated flags all records as produced by a headless smoke run.
	Simulated bool
}

// Options wires an Engine's collaborators. Everything is passed explicitly;
// the engine holds no ambient globals.
type Options struct {
	Config    Config
	Clock     clock.Clock
	Scheduler Scheduler
	Capture   *timing.Capture
	Ledger    *ledger.Ledger
	Session   *session.Session
	Renderer  Renderer
	Logger    *logging.Logger

	// Sentences is the ordered stimulus list.
	Sentences []string

	// OnComplete receives the accumulated records when the run finishes.
	OnComplete func(records []ledger.Record)
}

// Engine is the reveal state machine for one run.
type Engine struct {
	mu sync.Mutex

	cfg      Config
	clk      clock.Clock
	sched    Scheduler
	capture  *timing.Capture
	ledger   *ledger.Ledger
	sess     *session.Session
	renderer Renderer
	log      *logging.Logger

	sentences []string
	words     []string
	phase     Phase

	sentenceIdx int
	wordIdx     int

	// gen bumps on every step transition; stale timer guard.
	gen uint64

	// renderSeq identifies the frame awaiting commit acknowledgment.
	renderSeq      uint64
	displayStamped bool

	totalOpps int
	doneOpps  int

	onComplete func([]ledger.Record)
}

// New creates an Engine. The session must not be started yet.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	return &Engine{
		cfg:        opts.Config,
		clk:        opts.Clock,
		sched:      opts.Scheduler,
		capture:    opts.Capture,
		ledger:     opts.Ledger,
		sess:       opts.Session,
		renderer:   opts.Renderer,
		log:        log.WithComponent("engine"),
		sentences:  opts.Sentences,
		onComplete: opts.OnComplete,
	}
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Step returns the current (sentenceIndex, wordIndex).
func (e *Engine) Step() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sentenceIdx, e.wordIdx
}

// Progress returns completed prediction opportunities (counting the
// in-flight one) over the total across all sentences.
func (e *Engine) Progress() (current, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	current = e.doneOpps
	if e.phase == PhaseAwaitingPrediction {
		current++
	}
	return current, e.totalOpps
}

// Start transitions Idle → Revealing, records the experiment start time,
// and presents the first step. An empty stimulus list completes
// immediately.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.phase != PhaseIdle {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	if err := e.sess.Start(e.clk); err != nil {
		e.mu.Unlock()
		return err
	}

	e.totalOpps = 0
	for _, s := range e.sentences {
		e.totalOpps += token.Opportunities(token.Split(s))
	}
	e.sentenceIdx, e.wordIdx = 0, 0

	e.log.Info("experiment started",
		"participant", e.sess.ID,
		"sentences", len(e.sentences),
		"opportunities", e.totalOpps)

	effects := e.stepLocked()
	e.mu.Unlock()
	run(effects)
	return nil
}

// RenderCommitted acknowledges that the frame with the given sequence is
// durably on screen. After the settle delay the display stamp is written.
// Stale or repeated acknowledgments are no-ops.
func (e *Engine) RenderCommitted(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseAwaitingPrediction || seq != e.renderSeq || e.displayStamped {
		return
	}
	gen := e.gen
	e.sched.After(e.cfg.Settle, func() { e.onSettled(gen) })
}

// onSettled writes the display stamp and arms the backup input trigger.
func (e *Engine) onSettled(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen != gen || e.phase != PhaseAwaitingPrediction || e.displayStamped {
		return
	}
	e.capture.RecordDisplayCommitted()
	e.displayStamped = true
	e.sched.After(e.cfg.InputBackup, func() { e.onInputBackup(gen) })
}

// onInputBackup is the backup input-start trigger; the iff-unset guard in
// the capture makes it a no-op when focus or a keystroke won the write.
func (e *Engine) onInputBackup(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen != gen || e.phase != PhaseAwaitingPrediction {
		return
	}
	e.capture.RecordInputStarted()
}

// FocusGained reports focus arriving on the prediction input.
func (e *Engine) FocusGained() {
	e.inputSignal()
}

// Keystroke reports the first (or any) keystroke in the prediction input.
func (e *Engine) Keystroke() {
	e.inputSignal()
}

func (e *Engine) inputSignal() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseAwaitingPrediction {
		return
	}
	e.capture.RecordInputStarted()
}

// Confirm submits the participant's prediction for the current opportunity.
// An empty (or, with HangulOnly, emptied) prediction is rejected with no
// state change so the participant can retry. On success the reconciled
// response time and trial identifiers are appended to the ledger and the
// engine advances.
func (e *Engine) Confirm(text string) error {
	e.mu.Lock()

	if e.phase != PhaseAwaitingPrediction {
		e.mu.Unlock()
		return ErrNotAwaiting
	}

	if e.cfg.HangulOnly {
		text = keepHangul(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		e.mu.Unlock()
		return ErrEmptyPrediction
	}

	out := e.capture.Reconcile()
	rec := e.ledger.Append(ledger.Record{
		ParticipantID:   e.sess.ID,
		SentenceIndex:   e.sentenceIdx,
		WordIndex:       e.wordIdx,
		SentenceText:    e.sentences[e.sentenceIdx],
		DisplayedPrefix: token.Prefix(e.words, e.wordIdx),
		Predicted:       text,
		ActualNext:      e.words[e.wordIdx+1],
		DisplayMs:       out.DisplayMs,
		InputMs:         out.InputMs,
		ResponseMs:      out.ResponseMs,
		TimingGap:       out.Gap,
		OrderingAnomaly: out.Anomaly,
		Simulated:       e.cfg.Simulated,
		CreatedAt:       time.Now(),
	})

	e.log.Debug("prediction confirmed",
		"sentence", e.sentenceIdx,
		"word", e.wordIdx,
		"response_ms", rec.ResponseMs,
		"timing_gap", rec.TimingGap,
		"ordering_anomaly", rec.OrderingAnomaly)

	e.doneOpps++
	e.wordIdx++
	e.gen++

	// Hold the newly revealed word on screen for the inter-step pause,
	// then re-enter the reveal loop.
	e.phase = PhaseRevealing
	e.renderSeq++
	frame := Frame{
		Seq:             e.renderSeq,
		Prefix:          token.Prefix(e.words, e.wordIdx),
		Prompt:          e.cfg.AdvanceText,
		ProgressCurrent: e.doneOpps,
		ProgressTotal:   e.totalOpps,
	}
	gen := e.gen
	e.sched.After(e.cfg.ISI, func() { e.onPauseElapsed(gen) })

	r := e.renderer
	e.mu.Unlock()
	r.Render(frame)
	return nil
}

func (e *Engine) onPauseElapsed(gen uint64) {
	e.mu.Lock()
	if e.gen != gen || e.phase != PhaseRevealing {
		e.mu.Unlock()
		return
	}
	effects := e.stepLocked()
	e.mu.Unlock()
	run(effects)
}

func (e *Engine) onAutoAdvance(gen uint64) {
	e.mu.Lock()
	if e.gen != gen || e.phase != PhaseAutoAdvancing {
		e.mu.Unlock()
		return
	}
	e.sentenceIdx++
	e.wordIdx = 0
	effects := e.stepLocked()
	e.mu.Unlock()
	run(effects)
}

// stepLocked advances to the next presentable step: a prediction
// opportunity, a terminal-word hold, or completion. Sentences that tokenize
// to fewer than two words contribute nothing and are skipped without
// emitting a step; this is expected input, not a fault. Called with the
// lock held; returns effects to run after unlock.
func (e *Engine) stepLocked() []func() {
	e.gen++

	for {
		if e.sentenceIdx >= len(e.sentences) {
			return e.completeLocked()
		}
		e.words = token.Split(e.sentences[e.sentenceIdx])
		if len(e.words) < 2 {
			e.log.Debug("skipping short sentence", "sentence", e.sentenceIdx, "words", len(e.words))
			e.sentenceIdx++
			e.wordIdx = 0
			continue
		}
		if e.wordIdx >= len(e.words) {
			e.sentenceIdx++
			e.wordIdx = 0
			continue
		}
		break
	}

	if e.wordIdx == len(e.words)-1 {
		return e.enterAutoAdvanceLocked()
	}
	return e.enterAwaitingLocked()
}

// enterAwaitingLocked arms the timing capture and presents the prediction
// step. Arming happens synchronously within the same transition that
// triggers rendering, so it always precedes both stamp writes.
func (e *Engine) enterAwaitingLocked() []func() {
	e.phase = PhaseAwaitingPrediction
	e.displayStamped = false
	opp := e.capture.Arm()
	e.renderSeq++

	frame := Frame{
		Seq:             e.renderSeq,
		Prefix:          token.Prefix(e.words, e.wordIdx),
		Prompt:          e.cfg.Prompt,
		InputVisible:    true,
		ProgressCurrent: e.doneOpps + 1,
		ProgressTotal:   e.totalOpps,
	}

	e.log.Debug("awaiting prediction",
		"sentence", e.sentenceIdx,
		"word", e.wordIdx,
		"opportunity", opp)

	r := e.renderer
	return []func(){func() { r.Render(frame) }}
}

// enterAutoAdvanceLocked shows the sentence's terminal word with the input
// hidden; no prediction is collected for it.
func (e *Engine) enterAutoAdvanceLocked() []func() {
	e.phase = PhaseAutoAdvancing
	e.renderSeq++

	frame := Frame{
		Seq:             e.renderSeq,
		Prefix:          token.Prefix(e.words, len(e.words)-1),
		Prompt:          e.cfg.AdvanceText,
		ProgressCurrent: e.doneOpps,
		ProgressTotal:   e.totalOpps,
	}

	gen := e.gen
	e.sched.After(e.cfg.AutoAdvance, func() { e.onAutoAdvance(gen) })

	r := e.renderer
	return []func(){func() { r.Render(frame) }}
}

// completeLocked is terminal: it hands the ledger's accumulated records to
// the completion callback and accepts no further transitions.
func (e *Engine) completeLocked() []func() {
	e.phase = PhaseCompleted
	e.renderSeq++

	frame := Frame{
		Seq:             e.renderSeq,
		Completed:       true,
		ProgressCurrent: e.doneOpps,
		ProgressTotal:   e.totalOpps,
	}

	e.log.Info("experiment completed",
		"participant", e.sess.ID,
		"records", e.ledger.Len())

	records := e.ledger.All()
	cb := e.onComplete
	r := e.renderer

	effects := []func(){func() { r.Render(frame) }}
	if cb != nil {
		effects = append(effects, func() { cb(records) })
	}
	return effects
}

func run(effects []func()) {
	for _, fn := range effects {
		fn()
	}
}
