// ABOUTME: Error types for the trail store: typed errors callers can match on.
// ABOUTME: Distinguishes missing runs/blocks, duplicate stores, corrupt data, and uninitialized workspaces.
package trail

import (
	"errors"
	"fmt"
)

// ErrWorkspaceUninitialized is returned by read operations when the runs
// directory does not exist. Run "spoor init" (or create the directory)
// before reading; CreateRun creates it on demand.
var ErrWorkspaceUninitialized = errors.New("workspace not initialized")

// RunNotFoundError indicates no stored run exists with the given ID.
type RunNotFoundError struct {
	RunID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run %q not found", e.RunID)
}

// RunExistsError indicates a run with the same ID has already been stored.
// Runs are write-once: a second CreateRun for the same ID always fails.
type RunExistsError struct {
	RunID string
	Path  string
}

func (e *RunExistsError) Error() string {
	return fmt.Sprintf("run %q already exists at %s", e.RunID, e.Path)
}

// BlockNotFoundError indicates a run holds no trace for the named block.
type BlockNotFoundError struct {
	RunID string
	Block string
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("block %q not found in run %q", e.Block, e.RunID)
}

// CorruptRunError indicates stored run data that cannot be decoded: a
// missing or unparsable config, a malformed execution file, or a trace
// layout with holes in it. Path names the offending file or directory.
type CorruptRunError struct {
	RunID string
	Path  string
	Err   error
}

func (e *CorruptRunError) Error() string {
	return fmt.Sprintf("run %q: corrupt data at %s: %v", e.RunID, e.Path, e.Err)
}

func (e *CorruptRunError) Unwrap() error {
	return e.Err
}

// InvalidBlockError indicates a block identity that cannot be stored,
// such as an empty name or a type containing the directory separator.
type InvalidBlockError struct {
	Block  BlockIdent
	Reason string
}

func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("invalid block %s: %s", e.Block, e.Reason)
}
