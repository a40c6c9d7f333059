// predlab - self-paced sentence-reveal prediction task runner
//
// A sentence is shown one word at a time; before each new word is revealed
// the participant types the word they predict comes next, and the time from
// reveal to first input is recorded against a monotonic clock.
//
//	predlab run        Headless smoke run with a simulated participant
//	predlab check      Validate configuration and intake schema
//	predlab stimuli    Create or inspect a stimulus list
//	predlab diag       Clock and environment diagnostics
//	predlab version    Print the version
//
// Interactive sessions with a real participant use the predlab-gui binary.
package main

import (
	"fmt"
	"os"

	"predlab/internal/config"
	"predlab/internal/logging"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun()
	case "check":
		cmdCheck()
	case "stimuli":
		cmdStimuli()
	case "diag":
		cmdDiag()
	case "version":
		fmt.Println("predlab", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`predlab - sentence-reveal prediction task runner

USAGE:
    predlab <command> [options]

COMMANDS:
    run         Run the task headless with a simulated participant
    check       Validate configuration and the participant intake schema
    stimuli     Create (init) or inspect (list) a stimulus list
    diag        Report clock resolution and environment sanity
    version     Print the version
    help        Show this help message

Interactive runs with a real participant use the predlab-gui binary; the
headless run exists to smoke-test a deployment (config, stimulus list,
export sink) without a display. Headless records are flagged as simulated
in the export.`)
}

// setupLogging builds the process logger from config and installs it as
// the default.
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
		Component: "predlab",
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
