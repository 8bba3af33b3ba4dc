// ABOUTME: Implements the "spoor inspect" subcommand reading back one block's stored executions by name.
// ABOUTME: Looks the block up by name regardless of its position prefix; lowest index wins on duplicates.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/2389-research/spoor/render"
)

// inspectConfig holds configuration for the "spoor inspect" subcommand.
type inspectConfig struct {
	workspace string
	runID     string
	blockName string
}

// parseInspectArgs checks whether args starts with the "inspect" subcommand
// and, if so, parses inspect-specific flags and positionals. Returns the
// config and true if "inspect" was detected, or a zero value and false
// otherwise.
func parseInspectArgs(args []string) (inspectConfig, bool) {
	if len(args) == 0 || args[0] != "inspect" {
		return inspectConfig{}, false
	}

	var cfg inspectConfig
	fs := flag.NewFlagSet("spoor inspect", flag.ContinueOnError)
	fs.StringVar(&cfg.workspace, "workspace", "", "Workspace root (default: $SPOOR_WORKSPACE, else marker walk-up)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spoor inspect [flags] <run_id> <block_name>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Show the stored executions for one block of a run.")
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
	if fs.NArg() > 1 {
		cfg.blockName = fs.Arg(1)
	}

	return cfg, true
}

// runInspect prints one block's stored executions.
func runInspect(cfg inspectConfig, stdout, stderr io.Writer) int {
	if cfg.runID == "" || cfg.blockName == "" {
		fmt.Fprintln(stderr, "error: run ID and block name required (use spoor inspect <run_id> <block_name>)")
		return 2
	}

	store, _, err := resolveStore(cfg.workspace)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	bt, err := store.ReadBlock(cfg.runID, cfg.blockName)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	fmt.Fprint(stdout, render.BlockText(bt))
	return 0
}
