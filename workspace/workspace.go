// ABOUTME: Workspace discovery and initialization for spoor run storage.
// ABOUTME: Resolves the root from explicit path, SPOOR_WORKSPACE, or a marker walk-up; init writes .spoor/ and .runs/.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/spoor/trail"
)

const (
	// MetaDirName is the per-workspace metadata directory.
	MetaDirName = ".spoor"

	markerFileName = "workspace.json"
	indexFileName  = "index.db"

	// EnvRoot overrides workspace resolution when set.
	EnvRoot = "SPOOR_WORKSPACE"
)

// ErrAlreadyInitialized is returned by Init when the workspace marker
// already exists at the target root.
var ErrAlreadyInitialized = errors.New("workspace already initialized")

// ErrNotInitialized is returned by Load when no marker exists at the root.
var ErrNotInitialized = errors.New("workspace marker not found")

// Meta is the workspace marker stored at .spoor/workspace.json. The ID is
// assigned once at init and identifies the workspace across renames of
// its directory.
type Meta struct {
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MarkerPath returns the marker file path for a workspace root.
func MarkerPath(root string) string {
	return filepath.Join(root, MetaDirName, markerFileName)
}

// IndexPath returns where the rebuildable run index lives for a root.
func IndexPath(root string) string {
	return filepath.Join(root, MetaDirName, indexFileName)
}

// Resolve picks the workspace root for a command. Precedence: the
// explicit path if non-empty, then $SPOOR_WORKSPACE, then the nearest
// ancestor of the working directory carrying a .spoor marker or a .runs
// directory, then the working directory itself. Resolve never requires
// the workspace to be initialized; reads against an uninitialized root
// fail later with trail.ErrWorkspaceUninitialized.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", fmt.Errorf("resolve workspace path: %w", err)
		}
		return abs, nil
	}
	if env := os.Getenv(EnvRoot); env != "" {
		abs, err := filepath.Abs(env)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", EnvRoot, err)
		}
		return abs, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	for dir := cwd; ; {
		if isWorkspaceRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd, nil
}

// isWorkspaceRoot reports whether dir carries workspace state: either the
// .spoor marker directory or a bare .runs directory from an engine that
// never ran init.
func isWorkspaceRoot(dir string) bool {
	if info, err := os.Stat(filepath.Join(dir, MetaDirName)); err == nil && info.IsDir() {
		return true
	}
	if info, err := os.Stat(filepath.Join(dir, trail.RunsDirName)); err == nil && info.IsDir() {
		return true
	}
	return false
}

// Init initializes a workspace at root: creates the root, the .runs
// directory, and the .spoor marker with a fresh workspace ID. Fails with
// ErrAlreadyInitialized if a marker is already present.
func Init(root, name string) (*Meta, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path: %w", err)
	}
	markerPath := MarkerPath(abs)
	if _, err := os.Stat(markerPath); err == nil {
		return nil, fmt.Errorf("%w at %s", ErrAlreadyInitialized, abs)
	}
	if err := os.MkdirAll(filepath.Join(abs, MetaDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, trail.RunsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create runs dir: %w", err)
	}
	meta := &Meta{
		WorkspaceID: uuid.New().String(),
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal workspace marker: %w", err)
	}
	if err := os.WriteFile(markerPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write workspace marker: %w", err)
	}
	return meta, nil
}

// Load reads the workspace marker at root.
func Load(root string) (*Meta, error) {
	data, err := os.ReadFile(MarkerPath(root))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w at %s", ErrNotInitialized, root)
	}
	if err != nil {
		return nil, fmt.Errorf("read workspace marker: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode workspace marker: %w", err)
	}
	return &meta, nil
}
