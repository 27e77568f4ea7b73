package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"biblequest/internal/app"
	"biblequest/internal/audio"
	"biblequest/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		cfg.ASCIIOnly = true
	}

	env := &cli.Env{Config: cfg}
	// Sound cues and speech go to stderr so piped stdout stays clean.
	if !cfg.Quiet {
		env.Output = audio.NewTextOutput(os.Stderr)
	}
	return cli.NewRootCmd(env).Execute()
}
