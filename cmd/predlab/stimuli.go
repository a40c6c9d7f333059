package main

import (
	"fmt"
	"os"

	"predlab/internal/config"
	"predlab/internal/stimulus"
	"predlab/internal/token"
)

func cmdStimuli() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: predlab stimuli init|list [path]")
		os.Exit(1)
	}

	path := config.DefaultConfig().Stimulus.Path
	if len(os.Args) > 3 {
		path = os.Args[3]
	}

	switch os.Args[2] {
	case "init":
		if err := stimulus.WriteStarter(path); err != nil {
			fatal(err)
		}
		fmt.Println("Wrote starter stimulus list to:", path)
	case "list":
		list, err := stimulus.Load(path)
		if err != nil {
			fatal(err)
		}
		total := 0
		for i, s := range list.Sentences {
			words := token.Split(s)
			opps := token.Opportunities(words)
			total += opps
			note := ""
			if opps == 0 {
				note = "  (skipped: fewer than 2 words)"
			}
			fmt.Printf("%3d  %2d words  %2d opportunities%s  %s\n", i, len(words), opps, note, s)
		}
		fmt.Printf("\n%d sentences, %d prediction opportunities\n", len(list.Sentences), total)
	default:
		fmt.Fprintf(os.Stderr, "Unknown stimuli action: %s\n", os.Args[2])
		os.Exit(1)
	}
}
