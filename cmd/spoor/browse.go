// ABOUTME: Implements the "spoor browse" subcommand launching the interactive terminal run browser.
// ABOUTME: Runs the Bubble Tea program in alt-screen mode over the resolved workspace store.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/spoor/tui"
)

// browseConfig holds configuration for the "spoor browse" subcommand.
type browseConfig struct {
	workspace string
}

// parseBrowseArgs checks whether args starts with the "browse" subcommand
// and, if so, parses browse-specific flags. Returns the config and true if
// "browse" was detected, or a zero value and false otherwise.
func parseBrowseArgs(args []string) (browseConfig, bool) {
	if len(args) == 0 || args[0] != "browse" {
		return browseConfig{}, false
	}

	var cfg browseConfig
	fs := flag.NewFlagSet("spoor browse", flag.ContinueOnError)
	fs.StringVar(&cfg.workspace, "workspace", "", "Workspace root (default: $SPOOR_WORKSPACE, else marker walk-up)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spoor browse [flags]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Browse stored runs in an interactive terminal UI.")
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

// runBrowse starts the TUI run browser.
func runBrowse(cfg browseConfig, stderr io.Writer) int {
	store, _, err := resolveStore(cfg.workspace)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	model := tui.NewAppModel(store)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}
