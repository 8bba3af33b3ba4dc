// ABOUTME: Filesystem-backed run store: one directory per run under <root>/.runs.
// ABOUTME: Runs are write-once; layout is config.json plus <index>-<type>_<name>/<input>.json per block.
package trail

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	// RunsDirName is the directory under the workspace root that holds
	// one subdirectory per stored run, named by run ID.
	RunsDirName = ".runs"

	configFileName = "config.json"
)

// Store reads and writes runs on the local filesystem. The filesystem is
// the source of truth; there is no lock file. Write-once semantics come
// from the atomic run-directory creation in CreateRun, so concurrent
// stores of distinct runs never conflict and a duplicate store always
// fails on exactly one side.
type Store struct {
	root string
}

// NewStore returns a store rooted at the given workspace directory. The
// runs directory is created on first CreateRun; read operations require
// it to exist already.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the workspace root this store was built with.
func (s *Store) Root() string {
	return s.root
}

// RunsDir returns the path of the runs directory under the root.
func (s *Store) RunsDir() string {
	return filepath.Join(s.root, RunsDirName)
}

// RunDir returns the directory a run with the given ID is stored in.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.RunsDir(), runID)
}

// CreateRun persists the run: config.json first, then one directory per
// trace holding one JSON file per input row. The run directory itself is
// created with a bare Mkdir, so the create acts as the existence check
// and a concurrent duplicate store loses with RunExistsError instead of
// racing past a separate stat.
//
// A crash mid-write can leave a partially populated run directory; blocks
// and inputs are written in order, so what remains is always a readable
// prefix of the run.
func (s *Store) CreateRun(run *Run) error {
	if run.id == "" {
		return errors.New("run has empty ID")
	}
	for _, tr := range run.Traces {
		if err := tr.Block.Validate(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(s.RunsDir(), 0o755); err != nil {
		return fmt.Errorf("create runs dir: %w", err)
	}
	runDir := s.RunDir(run.id)
	if err := os.Mkdir(runDir, 0o755); err != nil {
		if os.IsExist(err) {
			return &RunExistsError{RunID: run.id, Path: runDir}
		}
		return fmt.Errorf("create run dir: %w", err)
	}

	cfg := run.config
	if cfg.Blocks == nil {
		// Keep "blocks" an object in JSON, never null.
		cfg.Blocks = map[string]json.RawMessage{}
	}
	if err := writeJSONAtomic(filepath.Join(runDir, configFileName), cfg); err != nil {
		return fmt.Errorf("write run config: %w", err)
	}

	for i, tr := range run.Traces {
		blockDir := filepath.Join(runDir, blockDirName(i, tr.Block))
		if err := os.Mkdir(blockDir, 0o755); err != nil {
			return fmt.Errorf("create block dir %s: %w", blockDirName(i, tr.Block), err)
		}
		for inputIdx, branches := range tr.Inputs {
			if branches == nil {
				branches = []BlockExecution{}
			}
			path := filepath.Join(blockDir, inputFileName(inputIdx))
			if err := writeJSONAtomic(path, branches); err != nil {
				return fmt.Errorf("write executions for block %s input %d: %w", tr.Block, inputIdx, err)
			}
		}
	}
	return nil
}

// LoadConfig reads and decodes a stored run's config.json.
func (s *Store) LoadConfig(runID string) (*RunConfig, error) {
	if err := s.requireRunsDir(); err != nil {
		return nil, err
	}
	runDir, err := s.requireRunDir(runID)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(runDir, configFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &CorruptRunError{RunID: runID, Path: path, Err: errors.New("config.json missing")}
	}
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}
	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &CorruptRunError{RunID: runID, Path: path, Err: err}
	}
	return &cfg, nil
}

// LoadRun loads a run's identity and config without touching any trace
// files. Use LoadRunWithTraces for the full record or ReadBlock for a
// single block's executions.
func (s *Store) LoadRun(runID string) (*Run, error) {
	cfg, err := s.LoadConfig(runID)
	if err != nil {
		return nil, err
	}
	return &Run{id: runID, config: *cfg}, nil
}

// LoadRunWithTraces loads the complete run record, decoding every stored
// execution file. Block directories must form a contiguous index sequence
// starting at zero; a hole means the directory was tampered with and
// yields CorruptRunError.
func (s *Store) LoadRunWithTraces(runID string) (*Run, error) {
	run, err := s.LoadRun(runID)
	if err != nil {
		return nil, err
	}
	runDir := s.RunDir(runID)
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, fmt.Errorf("read run dir: %w", err)
	}
	found := collectBlockDirs(runDir, entries)
	for i, loc := range found {
		if loc.index != i {
			return nil, &CorruptRunError{
				RunID: runID,
				Path:  loc.dir,
				Err:   fmt.Errorf("block index %d out of sequence, want %d", loc.index, i),
			}
		}
		inputs, err := s.readInputs(runID, loc.dir)
		if err != nil {
			return nil, err
		}
		run.Traces = append(run.Traces, Trace{Block: loc.block, Inputs: inputs})
	}
	return run, nil
}

// BlockTrace is one block's executions read back from a stored run, along
// with where in the pipeline the block sat.
type BlockTrace struct {
	Index  int
	Block  BlockIdent
	Inputs [][]BlockExecution
}

// ReadBlock reads back the executions of the named block without decoding
// the rest of the run. Matching is by the name component of the block
// directory, independent of index and type; when a run reuses a name, the
// lowest-indexed block wins.
func (s *Store) ReadBlock(runID, blockName string) (*BlockTrace, error) {
	if _, err := s.LoadConfig(runID); err != nil {
		return nil, err
	}
	runDir := s.RunDir(runID)
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, fmt.Errorf("read run dir: %w", err)
	}
	for _, loc := range collectBlockDirs(runDir, entries) {
		if loc.block.Name != blockName {
			continue
		}
		inputs, err := s.readInputs(runID, loc.dir)
		if err != nil {
			return nil, err
		}
		return &BlockTrace{Index: loc.index, Block: loc.block, Inputs: inputs}, nil
	}
	return nil, &BlockNotFoundError{RunID: runID, Block: blockName}
}

// BlockIdents returns the block identities of a stored run in pipeline
// order without decoding any execution files.
func (s *Store) BlockIdents(runID string) ([]BlockIdent, error) {
	if err := s.requireRunsDir(); err != nil {
		return nil, err
	}
	runDir, err := s.requireRunDir(runID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, fmt.Errorf("read run dir: %w", err)
	}
	found := collectBlockDirs(runDir, entries)
	idents := make([]BlockIdent, 0, len(found))
	for i, loc := range found {
		if loc.index != i {
			return nil, &CorruptRunError{
				RunID: runID,
				Path:  loc.dir,
				Err:   fmt.Errorf("block index %d out of sequence, want %d", loc.index, i),
			}
		}
		idents = append(idents, loc.block)
	}
	return idents, nil
}

// ListRuns returns a summary for every stored run, newest start time
// first. Runs sharing a start time are ordered by run ID descending so
// the listing is stable. A run that cannot be decoded fails the whole
// listing; partial listings would silently hide data problems.
func (s *Store) ListRuns() ([]Summary, error) {
	if err := s.requireRunsDir(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.RunsDir())
	if err != nil {
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		cfg, err := s.LoadConfig(entry.Name())
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{RunID: entry.Name(), Config: *cfg})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Config.StartTime != summaries[j].Config.StartTime {
			return summaries[i].Config.StartTime > summaries[j].Config.StartTime
		}
		return summaries[i].RunID > summaries[j].RunID
	})
	return summaries, nil
}

func (s *Store) requireRunsDir() error {
	info, err := os.Stat(s.RunsDir())
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s does not exist", ErrWorkspaceUninitialized, s.RunsDir())
	}
	if err != nil {
		return fmt.Errorf("stat runs dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrWorkspaceUninitialized, s.RunsDir())
	}
	return nil
}

func (s *Store) requireRunDir(runID string) (string, error) {
	runDir := s.RunDir(runID)
	info, err := os.Stat(runDir)
	if os.IsNotExist(err) {
		return "", &RunNotFoundError{RunID: runID}
	}
	if err != nil {
		return "", fmt.Errorf("stat run dir: %w", err)
	}
	if !info.IsDir() {
		return "", &RunNotFoundError{RunID: runID}
	}
	return runDir, nil
}

type locatedBlock struct {
	index int
	block BlockIdent
	dir   string
}

// collectBlockDirs parses and sorts the block directories inside a run
// directory. Entries that are not directories or do not match the
// <index>-<type>_<name> form (config.json, leftover temp files) are
// skipped.
func collectBlockDirs(runDir string, entries []os.DirEntry) []locatedBlock {
	var found []locatedBlock
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		idx, block, ok := parseBlockDirName(entry.Name())
		if !ok {
			continue
		}
		found = append(found, locatedBlock{index: idx, block: block, dir: filepath.Join(runDir, entry.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].index < found[j].index })
	return found
}

// readInputs decodes every input file in a block directory, in input
// order. Input files must form a contiguous index sequence from zero.
func (s *Store) readInputs(runID, blockDir string) ([][]BlockExecution, error) {
	entries, err := os.ReadDir(blockDir)
	if err != nil {
		return nil, fmt.Errorf("read block dir: %w", err)
	}
	type inputFile struct {
		index int
		name  string
	}
	var files []inputFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		idx, ok := parseInputFileName(entry.Name())
		if !ok {
			continue
		}
		files = append(files, inputFile{index: idx, name: entry.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })
	inputs := make([][]BlockExecution, 0, len(files))
	for i, f := range files {
		path := filepath.Join(blockDir, f.name)
		if f.index != i {
			return nil, &CorruptRunError{
				RunID: runID,
				Path:  path,
				Err:   fmt.Errorf("input index %d out of sequence, want %d", f.index, i),
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read executions: %w", err)
		}
		var branches []BlockExecution
		if err := json.Unmarshal(data, &branches); err != nil {
			return nil, &CorruptRunError{RunID: runID, Path: path, Err: err}
		}
		inputs = append(inputs, branches)
	}
	return inputs, nil
}

// blockDirName builds the directory name for block number index in the
// pipeline: "<index>-<type>_<name>". Name may itself contain underscores;
// Validate guarantees type does not, so the first "_" is always the
// divider on the way back in.
func blockDirName(index int, block BlockIdent) string {
	return fmt.Sprintf("%d-%s_%s", index, block.Type, block.Name)
}

func parseBlockDirName(name string) (int, BlockIdent, bool) {
	dash := strings.Index(name, "-")
	if dash <= 0 {
		return 0, BlockIdent{}, false
	}
	idx, err := strconv.Atoi(name[:dash])
	if err != nil || strconv.Itoa(idx) != name[:dash] || idx < 0 {
		return 0, BlockIdent{}, false
	}
	rest := name[dash+1:]
	under := strings.Index(rest, "_")
	if under <= 0 || under == len(rest)-1 {
		return 0, BlockIdent{}, false
	}
	return idx, BlockIdent{Type: rest[:under], Name: rest[under+1:]}, true
}

func inputFileName(index int) string {
	return fmt.Sprintf("%d.json", index)
}

func parseInputFileName(name string) (int, bool) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(base)
	if err != nil || strconv.Itoa(idx) != base || idx < 0 {
		return 0, false
	}
	return idx, true
}

// writeJSONAtomic writes v as indented JSON via a temp file and rename so
// readers never observe a half-written file.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
