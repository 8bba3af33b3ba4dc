// ABOUTME: CLI entrypoint for the spoor run-record tool with init, list, inspect, show, export, serve, and browse subcommands.
// ABOUTME: Dispatches to per-subcommand parsers and wires the workspace, store, index, web server, and TUI together.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/2389-research/spoor/trail"
	"github.com/2389-research/spoor/workspace"
)

var version = "dev"

func main() {
	loadDotEnv(".env")

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches to the subcommand named by the first argument.
// Returns an exit code: 0 for success, 1 for failure, 2 for usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printHelp(stderr, version)
		return 0
	}

	switch args[0] {
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "spoor %s\n", version)
		return 0
	case "help", "-help", "--help", "-h":
		printHelp(stdout, version)
		return 0
	}

	if cfg, ok := parseInitArgs(args); ok {
		return runInit(cfg, stdout, stderr)
	}
	if cfg, ok := parseListArgs(args); ok {
		return runList(cfg, stdout, stderr)
	}
	if cfg, ok := parseShowArgs(args); ok {
		return runShow(cfg, stdout, stderr)
	}
	if cfg, ok := parseInspectArgs(args); ok {
		return runInspect(cfg, stdout, stderr)
	}
	if cfg, ok := parseExportArgs(args); ok {
		return runExport(cfg, stdout, stderr)
	}
	if cfg, ok := parseServeArgs(args); ok {
		return runServe(cfg, stderr)
	}
	if cfg, ok := parseBrowseArgs(args); ok {
		return runBrowse(cfg, stderr)
	}

	fmt.Fprintf(stderr, "error: unknown command %q\n", args[0])
	printHelp(stderr, version)
	return 2
}

// resolveStore resolves the workspace root (explicit flag, then
// SPOOR_WORKSPACE, then marker walk-up, then cwd) and opens a store there.
func resolveStore(explicit string) (*trail.Store, string, error) {
	root, err := workspace.Resolve(explicit)
	if err != nil {
		return nil, "", fmt.Errorf("resolve workspace: %w", err)
	}
	return trail.NewStore(root), root, nil
}

// printError writes err to stderr in the CLI's standard format, with an init
// hint when the workspace has no run store yet.
func printError(stderr io.Writer, err error) {
	fmt.Fprintf(stderr, "error: %v\n", err)
	if errors.Is(err, trail.ErrWorkspaceUninitialized) {
		fmt.Fprintln(stderr, "No run store here. Initialize one with: spoor init")
	}
}
