// ABOUTME: Implements the "spoor serve" subcommand hosting the HTTP API and report pages.
// ABOUTME: Rebuilds the SQLite listing index at startup and shuts down cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/2389-research/spoor/index"
	"github.com/2389-research/spoor/trail"
	"github.com/2389-research/spoor/web"
	"github.com/2389-research/spoor/workspace"
)

// serveConfig holds configuration for the "spoor serve" subcommand.
type serveConfig struct {
	workspace string
	port      int
}

// parseServeArgs checks whether args starts with the "serve" subcommand and,
// if so, parses serve-specific flags. Returns the config and true if "serve"
// was detected, or a zero value and false otherwise.
func parseServeArgs(args []string) (serveConfig, bool) {
	if len(args) == 0 || args[0] != "serve" {
		return serveConfig{}, false
	}

	var cfg serveConfig
	fs := flag.NewFlagSet("spoor serve", flag.ContinueOnError)
	fs.StringVar(&cfg.workspace, "workspace", "", "Workspace root (default: $SPOOR_WORKSPACE, else marker walk-up)")
	fs.IntVar(&cfg.port, "port", 2399, "Server port (default: 2399)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spoor serve [flags]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Serve the run API and HTML report pages over HTTP.")
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

// buildWebServer resolves the workspace, opens the listing index, and
// constructs the HTTP server.
func buildWebServer(cfg serveConfig, stderr io.Writer) (*web.Server, *index.Index, error) {
	store, root, err := resolveStore(cfg.workspace)
	if err != nil {
		return nil, nil, err
	}

	idx := openRunIndex(root, store, stderr)

	srv, err := web.NewServer(web.ServerConfig{
		Addr:  fmt.Sprintf("127.0.0.1:%d", cfg.port),
		Store: store,
		Index: idx,
	})
	if err != nil {
		if idx != nil {
			idx.Close()
		}
		return nil, nil, err
	}
	return srv, idx, nil
}

// openRunIndex opens and rebuilds the SQLite listing cache. The index is a
// cache over the filesystem store; failures degrade to scan-backed listing
// with a warning instead of refusing to serve.
func openRunIndex(root string, store *trail.Store, stderr io.Writer) *index.Index {
	path := workspace.IndexPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(stderr, "warning: could not create index dir: %v\n", err)
		return nil
	}

	idx, err := index.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "warning: could not open run index: %v\n", err)
		return nil
	}

	if err := idx.RebuildFromStore(store); err != nil {
		fmt.Fprintf(stderr, "warning: could not rebuild run index: %v\n", err)
		idx.Close()
		return nil
	}
	return idx
}

// runServe hosts the HTTP server until interrupted.
func runServe(cfg serveConfig, stderr io.Writer) int {
	srv, idx, err := buildWebServer(cfg, stderr)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	if idx != nil {
		defer idx.Close()
	}

	// Set up context with signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	fmt.Fprintf(stderr, "listening on %s\n", srv.Addr())
	if err := srv.ListenAndServe(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}
