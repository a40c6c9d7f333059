// predlab-gui runs the sentence-reveal prediction task with a real
// participant. Configuration, stimulus loading, and export are shared with
// the predlab CLI; this binary adds the Gio front-end and the paint-commit
// acknowledgment the response-time measurement depends on.
package main

import (
	"flag"
	"fmt"
	"os"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"predlab/cmd/predlab-gui/internal/theme"
	"predlab/cmd/predlab-gui/internal/ui"
	"predlab/internal/config"
	"predlab/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: platform config)")
	fullscreen := flag.Bool("fullscreen", false, "force fullscreen regardless of config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
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

	go func() {
		w := new(app.Window)
		w.Option(app.Title("Predlab"))
		w.Option(app.Size(unit.Dp(1024), unit.Dp(768)))
		if cfg.UI.Fullscreen || *fullscreen {
			w.Option(app.Fullscreen.Option())
		}

		if err := loop(w, cfg, log); err != nil {
			log.Error("window loop failed", "error", err)
			log.Close()
			os.Exit(1)
		}
		log.Close()
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window, cfg *config.Config, log *logging.Logger) error {
	t := theme.NewTheme(material.NewTheme())

	a, err := ui.NewApp(t, cfg, log, w)
	if err != nil {
		return err
	}

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			// Closing mid-run flushes partial records to the fallback CSV.
			a.Shutdown()
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			a.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "predlab-gui",
	})
	if err != nil {
		return nil, err
	}
	logging.SetDefault(log)
	return log, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
