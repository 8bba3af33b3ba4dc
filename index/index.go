// ABOUTME: SQLite-backed index over stored runs for fast list queries without rescanning .runs.
// ABOUTME: Always rebuildable from the filesystem store; a queryable cache, not the source of truth.
package index

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/2389-research/spoor/trail"
)

// RunRow is a row from the runs table for list query results.
type RunRow struct {
	RunID      string
	AppHash    string
	StartTime  uint64
	BlockCount int
	IndexedAt  string
}

// Index is a SQLite-backed mirror of run metadata for fast reads. The
// filesystem store remains the source of truth; the index can be deleted
// and rebuilt from it at any time.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at the given path and ensures
// the schema is up to date.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			app_hash TEXT NOT NULL,
			start_time INTEGER NOT NULL,
			block_count INTEGER NOT NULL,
			indexed_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS runs_by_start_time
			ON runs (start_time DESC, run_id DESC);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// UpsertRun inserts or replaces one run's metadata row.
func (idx *Index) UpsertRun(row RunRow) error {
	_, err := idx.db.Exec(
		`INSERT INTO runs (run_id, app_hash, start_time, block_count, indexed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			app_hash = excluded.app_hash,
			start_time = excluded.start_time,
			block_count = excluded.block_count,
			indexed_at = excluded.indexed_at`,
		row.RunID,
		row.AppHash,
		int64(row.StartTime),
		row.BlockCount,
		row.IndexedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// ListRuns returns all indexed runs, newest start time first with run ID
// descending as the tiebreak. The ordering matches trail.Store.ListRuns
// so index-backed and filesystem-backed listings agree.
func (idx *Index) ListRuns() ([]RunRow, error) {
	rows, err := idx.db.Query(
		"SELECT run_id, app_hash, start_time, block_count, indexed_at FROM runs ORDER BY start_time DESC, run_id DESC")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []RunRow
	for rows.Next() {
		var r RunRow
		var startTime int64
		if err := rows.Scan(&r.RunID, &r.AppHash, &startTime, &r.BlockCount, &r.IndexedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.StartTime = uint64(startTime)
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetRun returns one indexed run's row. The second return is false when
// the run is not indexed.
func (idx *Index) GetRun(runID string) (RunRow, bool, error) {
	var r RunRow
	var startTime int64
	err := idx.db.QueryRow(
		"SELECT run_id, app_hash, start_time, block_count, indexed_at FROM runs WHERE run_id = ?",
		runID).Scan(&r.RunID, &r.AppHash, &startTime, &r.BlockCount, &r.IndexedAt)
	if err == sql.ErrNoRows {
		return RunRow{}, false, nil
	}
	if err != nil {
		return RunRow{}, false, fmt.Errorf("query run: %w", err)
	}
	r.StartTime = uint64(startTime)
	return r, true, nil
}

// Count returns the number of indexed runs.
func (idx *Index) Count() (int, error) {
	var n int
	if err := idx.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// LastRebuildAt returns when the index was last rebuilt from the store.
// Returns false if no rebuild has been recorded.
func (idx *Index) LastRebuildAt() (time.Time, bool, error) {
	var val string
	err := idx.db.QueryRow("SELECT value FROM meta WHERE key = 'rebuilt_at'").Scan(&val)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query rebuilt_at: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse rebuilt_at: %w", err)
	}
	return ts, true, nil
}

// RebuildFromStore clears the index and repopulates it from the
// filesystem store. Runs the store cannot decode fail the rebuild; the
// index never papers over corrupt source data.
func (idx *Index) RebuildFromStore(store *trail.Store) error {
	summaries, err := store.ListRuns()
	if err != nil {
		return fmt.Errorf("scan store: %w", err)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM runs"); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, s := range summaries {
		idents, err := store.BlockIdents(s.RunID)
		if err != nil {
			return fmt.Errorf("scan blocks for run %s: %w", s.RunID, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO runs (run_id, app_hash, start_time, block_count, indexed_at) VALUES (?, ?, ?, ?, ?)",
			s.RunID, s.Config.AppHash, int64(s.Config.StartTime), len(idents), now,
		); err != nil {
			return fmt.Errorf("insert run %s: %w", s.RunID, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO meta (key, value) VALUES ('rebuilt_at', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		now,
	); err != nil {
		return fmt.Errorf("set rebuilt_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}
