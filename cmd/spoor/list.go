// ABOUTME: Implements the "spoor list" subcommand printing one line per stored run, most recent first.
// ABOUTME: Always scans the filesystem store; the SQLite index is a serve-mode cache only.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/2389-research/spoor/render"
)

// listConfig holds configuration for the "spoor list" subcommand.
type listConfig struct {
	workspace string
}

// parseListArgs checks whether args starts with the "list" subcommand and,
// if so, parses list-specific flags. Returns the config and true if "list"
// was detected, or a zero value and false otherwise.
func parseListArgs(args []string) (listConfig, bool) {
	if len(args) == 0 || args[0] != "list" {
		return listConfig{}, false
	}

	var cfg listConfig
	fs := flag.NewFlagSet("spoor list", flag.ContinueOnError)
	fs.StringVar(&cfg.workspace, "workspace", "", "Workspace root (default: $SPOOR_WORKSPACE, else marker walk-up)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spoor list [flags]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "List stored runs, most recently started first.")
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

	return cfg, true
}

// runList prints the run listing.
func runList(cfg listConfig, stdout, stderr io.Writer) int {
	store, _, err := resolveStore(cfg.workspace)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	summaries, err := store.ListRuns()
	if err != nil {
		printError(stderr, err)
		return 1
	}

	if len(summaries) == 0 {
		fmt.Fprintln(stdout, "No runs stored yet.")
		return 0
	}

	fmt.Fprint(stdout, render.RunList(summaries))
	return 0
}
