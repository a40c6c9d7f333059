package main

import (
	"flag"
	"fmt"
	"os"

	"predlab/internal/config"
	"predlab/internal/session"
	"predlab/internal/stimulus"
)

func cmdCheck() {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: platform config)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	fmt.Println("config: ok")

	if _, err := session.NewValidator(cfg.Participant); err != nil {
		fatal(fmt.Errorf("intake schema: %w", err))
	}
	fmt.Println("intake schema: ok")

	list, err := stimulus.Load(cfg.Stimulus.Path)
	if err != nil {
		fmt.Printf("stimulus: %v (the built-in sample list would substitute)\n", err)
		return
	}
	fmt.Printf("stimulus: %d sentences, %d prediction opportunities\n",
		len(list.Sentences), list.Opportunities())
}
