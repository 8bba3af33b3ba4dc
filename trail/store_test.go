// ABOUTME: Tests for the filesystem run store: layout, write-once semantics, and read-back.
// ABOUTME: Covers listing order, duplicate block names, corrupt data, and concurrent duplicate stores.
package trail

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func mustSucceed(t *testing.T, value any) BlockExecution {
	t.Helper()
	exec, err := Succeeded(value)
	if err != nil {
		t.Fatalf("Succeeded(%v): %v", value, err)
	}
	return exec
}

// sampleRun builds a two-block run: a code block with two input rows and
// a map block with one ragged row.
func sampleRun(t *testing.T) *Run {
	t.Helper()
	run := NewRun(RunConfig{
		StartTime: 1700000000,
		AppHash:   "abc123",
		Blocks: map[string]json.RawMessage{
			"extract": json.RawMessage(`{"lang":"en"}`),
		},
	})
	run.AppendTrace(BlockIdent{Type: "code", Name: "extract"}, [][]BlockExecution{
		{mustSucceed(t, "first")},
		{Failed("parse error")},
	})
	run.AppendTrace(BlockIdent{Type: "map", Name: "split_docs"}, [][]BlockExecution{
		{mustSucceed(t, 1), mustSucceed(t, 2), Skipped()},
	})
	return run
}

// storeRun creates the run and fails the test on error.
func storeRun(t *testing.T, store *Store, run *Run) {
	t.Helper()
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
}

// --- create tests ---

func TestCreateRunLayout(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	runDir := store.RunDir(run.ID())
	wantFiles := []string{
		"config.json",
		filepath.Join("0-code_extract", "0.json"),
		filepath.Join("0-code_extract", "1.json"),
		filepath.Join("1-map_split_docs", "0.json"),
	}
	for _, rel := range wantFiles {
		if _, err := os.Stat(filepath.Join(runDir, rel)); err != nil {
			t.Errorf("expected file %s: %v", rel, err)
		}
	}
}

func TestCreateRunCreatesRunsDir(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	if _, err := os.Stat(store.RunsDir()); !os.IsNotExist(err) {
		t.Fatalf("runs dir exists before first store: %v", err)
	}
	storeRun(t, store, NewRun(RunConfig{StartTime: 1}))
	info, err := os.Stat(store.RunsDir())
	if err != nil || !info.IsDir() {
		t.Fatalf("runs dir after store: %v", err)
	}
}

func TestCreateRunRoundTrip(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	loaded, err := store.LoadRunWithTraces(run.ID())
	if err != nil {
		t.Fatalf("LoadRunWithTraces: %v", err)
	}
	if loaded.ID() != run.ID() {
		t.Errorf("loaded ID = %q, want %q", loaded.ID(), run.ID())
	}
	cfg := loaded.Config()
	if cfg.StartTime != 1700000000 || cfg.AppHash != "abc123" {
		t.Errorf("loaded config = %+v", cfg)
	}
	if raw, ok := cfg.ConfigForBlock("extract"); !ok || string(raw) != `{"lang":"en"}` {
		t.Errorf("loaded block config = %s, %v", raw, ok)
	}
	if len(loaded.Traces) != 2 {
		t.Fatalf("loaded %d traces, want 2", len(loaded.Traces))
	}

	first := loaded.Traces[0]
	if first.Block != (BlockIdent{Type: "code", Name: "extract"}) {
		t.Errorf("trace 0 block = %+v", first.Block)
	}
	if len(first.Inputs) != 2 {
		t.Fatalf("trace 0 has %d inputs, want 2", len(first.Inputs))
	}
	if value, ok := first.Inputs[0][0].Value(); !ok || string(value) != `"first"` {
		t.Errorf("trace 0 input 0 value = %s, %v", value, ok)
	}
	if msg, ok := first.Inputs[1][0].FailureMessage(); !ok || msg != "parse error" {
		t.Errorf("trace 0 input 1 message = %q, %v", msg, ok)
	}

	second := loaded.Traces[1]
	if len(second.Inputs) != 1 || len(second.Inputs[0]) != 3 {
		t.Fatalf("trace 1 shape = %d inputs, %d branches", len(second.Inputs), len(second.Inputs[0]))
	}
	if second.Inputs[0][2].Status() != StatusSkipped {
		t.Errorf("trace 1 branch 2 status = %q, want skipped", second.Inputs[0][2].Status())
	}
}

func TestCreateRunWriteOnce(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	err := store.CreateRun(run)
	var exists *RunExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("second CreateRun = %v, want RunExistsError", err)
	}
	if exists.RunID != run.ID() {
		t.Errorf("RunExistsError.RunID = %q, want %q", exists.RunID, run.ID())
	}
}

func TestCreateRunRejectsInvalidBlock(t *testing.T) {
	store := newTestStore(t)
	run := NewRun(RunConfig{StartTime: 1})
	run.AppendTrace(BlockIdent{Type: "data_source", Name: "load"}, nil)

	err := store.CreateRun(run)
	var invalid *InvalidBlockError
	if !errors.As(err, &invalid) {
		t.Fatalf("CreateRun = %v, want InvalidBlockError", err)
	}
	if _, statErr := os.Stat(store.RunDir(run.ID())); !os.IsNotExist(statErr) {
		t.Error("run dir was created despite invalid block")
	}
}

func TestCreateRunEmptyID(t *testing.T) {
	store := newTestStore(t)
	if err := store.CreateRun(&Run{}); err == nil {
		t.Fatal("CreateRun with empty ID did not error")
	}
}

func TestCreateRunNilBlocksWritesObject(t *testing.T) {
	store := newTestStore(t)
	run := NewRun(RunConfig{StartTime: 9, AppHash: "h"})
	storeRun(t, store, run)

	data, err := os.ReadFile(filepath.Join(store.RunDir(run.ID()), "config.json"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var decoded struct {
		Blocks map[string]json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if decoded.Blocks == nil {
		t.Error("blocks serialized as null, want empty object")
	}
}

func TestCreateRunDuplicateBlockNamesGetDistinctDirs(t *testing.T) {
	store := newTestStore(t)
	run := NewRun(RunConfig{StartTime: 5})
	run.AppendTrace(BlockIdent{Type: "code", Name: "step"}, [][]BlockExecution{{mustSucceed(t, "a")}})
	run.AppendTrace(BlockIdent{Type: "code", Name: "step"}, [][]BlockExecution{{mustSucceed(t, "b")}})
	storeRun(t, store, run)

	runDir := store.RunDir(run.ID())
	for _, dir := range []string{"0-code_step", "1-code_step"} {
		if _, err := os.Stat(filepath.Join(runDir, dir)); err != nil {
			t.Errorf("expected dir %s: %v", dir, err)
		}
	}
	loaded, err := store.LoadRunWithTraces(run.ID())
	if err != nil {
		t.Fatalf("LoadRunWithTraces: %v", err)
	}
	if len(loaded.Traces) != 2 {
		t.Fatalf("loaded %d traces, want 2", len(loaded.Traces))
	}
}

func TestCreateRunConcurrentDuplicate(t *testing.T) {
	store := newTestStore(t)
	id := NewRunID()
	const workers = 8

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run := &Run{id: id, config: RunConfig{StartTime: 1}}
			results <- store.CreateRun(run)
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var exists *RunExistsError
			if !errors.As(err, &exists) {
				t.Errorf("unexpected error: %v", err)
			}
			duplicates++
		}
	}
	if successes != 1 {
		t.Errorf("%d stores succeeded, want exactly 1", successes)
	}
	if duplicates != workers-1 {
		t.Errorf("%d duplicate errors, want %d", duplicates, workers-1)
	}
}

// --- load tests ---

func TestLoadConfigNotFound(t *testing.T) {
	store := newTestStore(t)
	storeRun(t, store, NewRun(RunConfig{StartTime: 1}))

	_, err := store.LoadConfig("01J00000000000000000000000")
	var notFound *RunNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("LoadConfig = %v, want RunNotFoundError", err)
	}
}

func TestLoadRunIgnoresTraceFiles(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	// Corrupt an execution file; metadata loads must not notice.
	execPath := filepath.Join(store.RunDir(run.ID()), "0-code_extract", "0.json")
	if err := os.WriteFile(execPath, []byte("not json"), 0o644); err != nil {
		t.Fatalf("corrupt exec file: %v", err)
	}

	if _, err := store.LoadRun(run.ID()); err != nil {
		t.Errorf("LoadRun after trace corruption: %v", err)
	}
	_, err := store.LoadRunWithTraces(run.ID())
	var corrupt *CorruptRunError
	if !errors.As(err, &corrupt) {
		t.Fatalf("LoadRunWithTraces = %v, want CorruptRunError", err)
	}
}

func TestLoadConfigCorrupt(t *testing.T) {
	store := newTestStore(t)
	run := NewRun(RunConfig{StartTime: 1})
	storeRun(t, store, run)

	cfgPath := filepath.Join(store.RunDir(run.ID()), "config.json")
	if err := os.WriteFile(cfgPath, []byte("{truncated"), 0o644); err != nil {
		t.Fatalf("corrupt config: %v", err)
	}
	_, err := store.LoadConfig(run.ID())
	var corrupt *CorruptRunError
	if !errors.As(err, &corrupt) {
		t.Fatalf("LoadConfig = %v, want CorruptRunError", err)
	}

	if err := os.Remove(cfgPath); err != nil {
		t.Fatalf("remove config: %v", err)
	}
	_, err = store.LoadConfig(run.ID())
	if !errors.As(err, &corrupt) {
		t.Fatalf("LoadConfig with missing config = %v, want CorruptRunError", err)
	}
}

func TestReadsRequireRunsDir(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.LoadConfig("any"); !errors.Is(err, ErrWorkspaceUninitialized) {
		t.Errorf("LoadConfig = %v, want ErrWorkspaceUninitialized", err)
	}
	if _, err := store.ListRuns(); !errors.Is(err, ErrWorkspaceUninitialized) {
		t.Errorf("ListRuns = %v, want ErrWorkspaceUninitialized", err)
	}
	if _, err := store.ReadBlock("any", "block"); !errors.Is(err, ErrWorkspaceUninitialized) {
		t.Errorf("ReadBlock = %v, want ErrWorkspaceUninitialized", err)
	}
}

func TestRunEntryThatIsAFile(t *testing.T) {
	store := newTestStore(t)
	storeRun(t, store, NewRun(RunConfig{StartTime: 1}))

	strayPath := filepath.Join(store.RunsDir(), "stray")
	if err := os.WriteFile(strayPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray: %v", err)
	}
	_, err := store.LoadConfig("stray")
	var notFound *RunNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("LoadConfig(stray file) = %v, want RunNotFoundError", err)
	}
}

func TestLoadRunWithTracesRejectsIndexHole(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	runDir := store.RunDir(run.ID())
	oldDir := filepath.Join(runDir, "1-map_split_docs")
	newDir := filepath.Join(runDir, "3-map_split_docs")
	if err := os.Rename(oldDir, newDir); err != nil {
		t.Fatalf("rename block dir: %v", err)
	}
	_, err := store.LoadRunWithTraces(run.ID())
	var corrupt *CorruptRunError
	if !errors.As(err, &corrupt) {
		t.Fatalf("LoadRunWithTraces = %v, want CorruptRunError", err)
	}
}

func TestLoadRunWithTracesRejectsInputHole(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	if err := os.Remove(filepath.Join(store.RunDir(run.ID()), "0-code_extract", "0.json")); err != nil {
		t.Fatalf("remove input file: %v", err)
	}
	_, err := store.LoadRunWithTraces(run.ID())
	var corrupt *CorruptRunError
	if !errors.As(err, &corrupt) {
		t.Fatalf("LoadRunWithTraces = %v, want CorruptRunError", err)
	}
}

func TestLoadRunWithTracesIgnoresStrayFiles(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	blockDir := filepath.Join(store.RunDir(run.ID()), "0-code_extract")
	if err := os.WriteFile(filepath.Join(blockDir, ".tmp-leftover"), []byte("junk"), 0o644); err != nil {
		t.Fatalf("write stray temp: %v", err)
	}
	loaded, err := store.LoadRunWithTraces(run.ID())
	if err != nil {
		t.Fatalf("LoadRunWithTraces: %v", err)
	}
	if len(loaded.Traces[0].Inputs) != 2 {
		t.Errorf("trace 0 has %d inputs, want 2", len(loaded.Traces[0].Inputs))
	}
}

// --- listing tests ---

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	var ids [3]string
	for i, start := range []uint64{100, 300, 200} {
		run := NewRun(RunConfig{StartTime: start, AppHash: "h"})
		storeRun(t, store, run)
		ids[i] = run.ID()
	}

	summaries, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("listed %d runs, want 3", len(summaries))
	}
	wantTimes := []uint64{300, 200, 100}
	wantIDs := []string{ids[1], ids[2], ids[0]}
	for i, s := range summaries {
		if s.Config.StartTime != wantTimes[i] {
			t.Errorf("position %d start_time = %d, want %d", i, s.Config.StartTime, wantTimes[i])
		}
		if s.RunID != wantIDs[i] {
			t.Errorf("position %d run ID = %q, want %q", i, s.RunID, wantIDs[i])
		}
	}
}

func TestListRunsTieBreaksByIDDescending(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"RUNAAAA", "RUNBBBB"} {
		run := &Run{id: id, config: RunConfig{StartTime: 50}}
		storeRun(t, store, run)
	}

	summaries, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if summaries[0].RunID != "RUNBBBB" || summaries[1].RunID != "RUNAAAA" {
		t.Errorf("tie order = %q, %q; want RUNBBBB, RUNAAAA", summaries[0].RunID, summaries[1].RunID)
	}
}

func TestListRunsEmptyWorkspace(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.RunsDir(), 0o755); err != nil {
		t.Fatalf("make runs dir: %v", err)
	}
	summaries, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("listed %d runs, want 0", len(summaries))
	}
}

func TestListRunsSkipsStrayFiles(t *testing.T) {
	store := newTestStore(t)
	storeRun(t, store, NewRun(RunConfig{StartTime: 1}))
	if err := os.WriteFile(filepath.Join(store.RunsDir(), ".DS_Store"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray: %v", err)
	}

	summaries, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("listed %d runs, want 1", len(summaries))
	}
}

func TestListRunsFailsOnCorruptRun(t *testing.T) {
	store := newTestStore(t)
	storeRun(t, store, NewRun(RunConfig{StartTime: 1}))
	bad := NewRun(RunConfig{StartTime: 2})
	storeRun(t, store, bad)
	cfgPath := filepath.Join(store.RunDir(bad.ID()), "config.json")
	if err := os.WriteFile(cfgPath, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("corrupt config: %v", err)
	}

	_, err := store.ListRuns()
	var corrupt *CorruptRunError
	if !errors.As(err, &corrupt) {
		t.Fatalf("ListRuns = %v, want CorruptRunError", err)
	}
}

// --- block read-back tests ---

func TestReadBlockByName(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	bt, err := store.ReadBlock(run.ID(), "split_docs")
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if bt.Index != 1 {
		t.Errorf("index = %d, want 1", bt.Index)
	}
	if bt.Block != (BlockIdent{Type: "map", Name: "split_docs"}) {
		t.Errorf("block = %+v", bt.Block)
	}
	if len(bt.Inputs) != 1 || len(bt.Inputs[0]) != 3 {
		t.Fatalf("inputs shape = %d rows, first row %d branches", len(bt.Inputs), len(bt.Inputs[0]))
	}
}

func TestReadBlockDuplicateNameLowestIndexWins(t *testing.T) {
	store := newTestStore(t)
	run := NewRun(RunConfig{StartTime: 1})
	run.AppendTrace(BlockIdent{Type: "code", Name: "shared"}, [][]BlockExecution{{mustSucceed(t, "early")}})
	run.AppendTrace(BlockIdent{Type: "map", Name: "other"}, nil)
	run.AppendTrace(BlockIdent{Type: "reduce", Name: "shared"}, [][]BlockExecution{{mustSucceed(t, "late")}})
	storeRun(t, store, run)

	bt, err := store.ReadBlock(run.ID(), "shared")
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if bt.Index != 0 || bt.Block.Type != "code" {
		t.Errorf("matched index %d type %q, want index 0 type code", bt.Index, bt.Block.Type)
	}
	value, _ := bt.Inputs[0][0].Value()
	if string(value) != `"early"` {
		t.Errorf("value = %s, want \"early\"", value)
	}
}

func TestReadBlockNotFound(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	_, err := store.ReadBlock(run.ID(), "absent")
	var notFound *BlockNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("ReadBlock = %v, want BlockNotFoundError", err)
	}
	if notFound.Block != "absent" {
		t.Errorf("BlockNotFoundError.Block = %q, want absent", notFound.Block)
	}
}

func TestReadBlockMissingRun(t *testing.T) {
	store := newTestStore(t)
	storeRun(t, store, NewRun(RunConfig{StartTime: 1}))

	_, err := store.ReadBlock("01J00000000000000000000000", "extract")
	var notFound *RunNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("ReadBlock = %v, want RunNotFoundError", err)
	}
}

func TestBlockIdentsInPipelineOrder(t *testing.T) {
	store := newTestStore(t)
	run := sampleRun(t)
	storeRun(t, store, run)

	idents, err := store.BlockIdents(run.ID())
	if err != nil {
		t.Fatalf("BlockIdents: %v", err)
	}
	want := []BlockIdent{
		{Type: "code", Name: "extract"},
		{Type: "map", Name: "split_docs"},
	}
	if len(idents) != len(want) {
		t.Fatalf("got %d idents, want %d", len(idents), len(want))
	}
	for i := range want {
		if idents[i] != want[i] {
			t.Errorf("ident %d = %+v, want %+v", i, idents[i], want[i])
		}
	}
}

// --- on-disk encoding tests ---

func TestSkippedBranchStoredAsEmptyObject(t *testing.T) {
	store := newTestStore(t)
	run := NewRun(RunConfig{StartTime: 1})
	run.AppendTrace(BlockIdent{Type: "map", Name: "fanout"}, [][]BlockExecution{
		{Skipped()},
	})
	storeRun(t, store, run)

	data, err := os.ReadFile(filepath.Join(store.RunDir(run.ID()), "0-map_fanout", "0.json"))
	if err != nil {
		t.Fatalf("read execution file: %v", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode execution file: %v", err)
	}
	if len(raw) != 1 || string(raw[0]) != "{}" {
		t.Errorf("stored branch = %s, want {}", data)
	}
}

func TestAbortedRunKeepsPrefixShape(t *testing.T) {
	store := newTestStore(t)
	run := NewRun(RunConfig{StartTime: 1})
	run.AppendTrace(BlockIdent{Type: "input", Name: "docs"}, [][]BlockExecution{
		{mustSucceed(t, "d0")},
		{mustSucceed(t, "d1")},
	})
	// The engine aborted here: the second block failed on its first input
	// and never reached the rest.
	run.AppendTrace(BlockIdent{Type: "llm", Name: "draft"}, [][]BlockExecution{
		{Failed("model unavailable")},
	})
	storeRun(t, store, run)

	loaded, err := store.LoadRunWithTraces(run.ID())
	if err != nil {
		t.Fatalf("LoadRunWithTraces: %v", err)
	}
	if len(loaded.Traces) != 2 {
		t.Fatalf("loaded %d traces, want 2", len(loaded.Traces))
	}
	last := loaded.Traces[1]
	if len(last.Inputs) != 1 {
		t.Fatalf("aborted block has %d input rows, want 1", len(last.Inputs))
	}
	if msg, ok := last.Inputs[0][0].FailureMessage(); !ok || msg != "model unavailable" {
		t.Errorf("aborted block outcome = %q, %v", msg, ok)
	}
}

func TestEmptyBranchRowStoredAsEmptyArray(t *testing.T) {
	store := newTestStore(t)
	run := NewRun(RunConfig{StartTime: 1})
	run.AppendTrace(BlockIdent{Type: "map", Name: "fanout"}, [][]BlockExecution{nil})
	storeRun(t, store, run)

	data, err := os.ReadFile(filepath.Join(store.RunDir(run.ID()), "0-map_fanout", "0.json"))
	if err != nil {
		t.Fatalf("read execution file: %v", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode execution file: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("stored row = %s, want empty array", data)
	}
}
