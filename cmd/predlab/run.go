package main

import (
	"flag"
	"fmt"
	"os"
	"time"

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

func cmdRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: platform config)")
	participant := fs.String("participant", "SIM", "participant label for the smoke run")
	stimuliPath := fs.String("stimuli", "", "stimulus list path (overrides config)")
	headless := fs.Bool("headless", true, "run headless with a simulated participant")
	fs.Parse(os.Args[2:])

	if !*headless {
		fatal(fmt.Errorf("interactive runs use the predlab-gui binary"))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *stimuliPath != "" {
		cfg.Stimulus.Path = *stimuliPath
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fatal(err)
	}

	log, err := setupLogging(cfg)
	if err != nil {
		fatal(err)
	}
	defer log.Close()

	validator, err := session.NewValidator(cfg.Participant)
	if err != nil {
		fatal(err)
	}
	demo := session.Demographics{Label: *participant, Age: cfg.Participant.MinAge}
	if err := validator.Validate(demo); err != nil {
		fatal(err)
	}

	sess, err := session.New(demo)
	if err != nil {
		fatal(err)
	}
	ledg, err := ledger.New(sess.Seed, sess.ID)
	if err != nil {
		fatal(err)
	}

	sink, err := export.New(cfg.Export)
	if err != nil {
		fatal(err)
	}

	list := stimulus.LoadOrDefault(cfg.Stimulus.Path, log)
	log.Info("stimulus list loaded",
		"source", list.Source,
		"sentences", len(list.Sentences),
		"opportunities", list.Opportunities())

	inh := inhibit.Acquire("experiment smoke run in progress", log)
	defer inh.Release()

	clk := clock.NewMonotonic()
	capture := timing.New(clk, log)
	sched := engine.NewTimerScheduler()

	done := make(chan struct{})
	sim := &simRenderer{sched: sched}

	eng := engine.New(engine.Options{
		Config: engine.Config{
			Settle:      time.Duration(cfg.Timing.SettleMs) * time.Millisecond,
			InputBackup: time.Duration(cfg.Timing.InputBackupMs) * time.Millisecond,
			AutoAdvance: time.Duration(cfg.Timing.AutoAdvanceMs) * time.Millisecond,
			ISI:         time.Duration(cfg.Timing.ISIMs) * time.Millisecond,
			Prompt:      cfg.UI.PromptText,
			AdvanceText: cfg.UI.AdvanceText,
			HangulOnly:  cfg.Stimulus.HangulOnly,
			Simulated:   true,
		},
		Clock:     clk,
		Scheduler: sched,
		Capture:   capture,
		Ledger:    ledg,
		Session:   sess,
		Renderer:  sim,
		Logger:    log,
		Sentences: list.Sentences,
		OnComplete: func(records []ledger.Record) {
			path, err := export.WriteWithFallback(sink, export.Run{
				ParticipantID: sess.ID,
				StartedAt:     sess.CreatedAt,
				Records:       records,
				ChainHead:     ledg.Head(),
				Seal:          ledg.Seal(),
			}, cfg.Export.FallbackCSV, log)
			if err != nil {
				log.Error("export failed", "error", err)
			} else {
				fmt.Println("Saved results to:", path)
			}
			close(done)
		},
	})
	sim.eng = eng

	if err := eng.Start(); err != nil {
		fatal(err)
	}
	<-done

	if err := ledg.VerifyChain(); err != nil {
		fatal(fmt.Errorf("record chain verification failed: %w", err))
	}
	current, total := eng.Progress()
	fmt.Printf("Completed %d/%d prediction opportunities\n", current, total)
}

// simRenderer stands in for a real participant: it acknowledges paints
// after a double yield and answers each prediction after a short typing
// delay. Records it produces are flagged as simulated.
type simRenderer struct {
	eng   *engine.Engine
	sched engine.Scheduler
}

// simResponse is what the simulated participant "types".
const simResponse = "모의응답"

func (s *simRenderer) Render(f engine.Frame) {
	if !f.InputVisible {
		return
	}

	// Two yields back to the event loop stand in for the renderer's
	// paint opportunity, then the engine applies its own settle delay.
	seq := f.Seq
	s.sched.After(0, func() {
		s.sched.After(0, func() {
			s.eng.RenderCommitted(seq)
		})
	})

	// Simulated typing: first keystroke, then confirm.
	s.sched.After(120*time.Millisecond, func() {
		s.eng.Keystroke()
	})
	s.sched.After(250*time.Millisecond, func() {
		if err := s.eng.Confirm(simResponse); err != nil {
			logging.Warn("simulated confirm rejected", "error", err)
		}
	})
}
