// ABOUTME: Implements the "spoor show" subcommand displaying one run's configuration.
// ABOUTME: The -traces flag rehydrates the full record and prints every stored execution.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/2389-research/spoor/render"
)

// showConfig holds configuration for the "spoor show" subcommand.
type showConfig struct {
	workspace string
	traces    bool
	runID     string
}

// parseShowArgs checks whether args starts with the "show" subcommand and,
// if so, parses show-specific flags and the run ID. Returns the config and
// true if "show" was detected, or a zero value and false otherwise.
func parseShowArgs(args []string) (showConfig, bool) {
	if len(args) == 0 || args[0] != "show" {
		return showConfig{}, false
	}

	var cfg showConfig
	fs := flag.NewFlagSet("spoor show", flag.ContinueOnError)
	fs.StringVar(&cfg.workspace, "workspace", "", "Workspace root (default: $SPOOR_WORKSPACE, else marker walk-up)")
	fs.BoolVar(&cfg.traces, "traces", false, "Include per-input execution results")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spoor show [flags] <run_id>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Show a stored run's configuration.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if fs.NArg() > 0 {
		cfg.runID = fs.Arg(0)
	}

	return cfg, true
}

// runShow prints a run's config, or the full record with -traces.
func runShow(cfg showConfig, stdout, stderr io.Writer) int {
	if cfg.runID == "" {
		fmt.Fprintln(stderr, "error: run ID required (use spoor show <run_id>)")
		return 2
	}

	store, _, err := resolveStore(cfg.workspace)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	if cfg.traces {
		run, err := store.LoadRunWithTraces(cfg.runID)
		if err != nil {
			printError(stderr, err)
			return 1
		}
		fmt.Fprint(stdout, render.RunText(run))
		return 0
	}

	run, err := store.LoadRun(cfg.runID)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	fmt.Fprint(stdout, render.ConfigText(run))
	return 0
}
