// ABOUTME: Implements the "spoor init" subcommand that stamps a workspace marker and creates the runs dir.
// ABOUTME: Initializes the current directory unless -workspace points elsewhere; never walks up to a parent.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/2389-research/spoor/workspace"
)

// initConfig holds configuration for the "spoor init" subcommand.
type initConfig struct {
	workspace string
	name      string
}

// parseInitArgs checks whether args starts with the "init" subcommand and,
// if so, parses init-specific flags. Returns the config and true if "init"
// was detected, or a zero value and false otherwise.
func parseInitArgs(args []string) (initConfig, bool) {
	if len(args) == 0 || args[0] != "init" {
		return initConfig{}, false
	}

	var cfg initConfig
	fs := flag.NewFlagSet("spoor init", flag.ContinueOnError)
	fs.StringVar(&cfg.workspace, "workspace", "", "Directory to initialize (default: current directory)")
	fs.StringVar(&cfg.name, "name", "", "Workspace display name (default: directory name)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spoor init [flags]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Create the workspace marker and the runs directory.")
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

// runInit initializes a workspace. Unlike the read commands it never resolves
// through SPOOR_WORKSPACE or marker walk-up; init acts exactly where asked.
func runInit(cfg initConfig, stdout, stderr io.Writer) int {
	root := cfg.workspace
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			printError(stderr, err)
			return 1
		}
		root = wd
	}

	name := cfg.name
	if name == "" {
		name = filepath.Base(root)
	}

	meta, err := workspace.Init(root, name)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	fmt.Fprintf(stdout, "Initialized workspace %q at %s\n", meta.Name, root)
	fmt.Fprintf(stdout, "Workspace ID: %s\n", meta.WorkspaceID)
	return 0
}
