// ABOUTME: Core run model: RunConfig, BlockIdent, Trace, and the Run aggregate.
// ABOUTME: A run is an immutable ID plus config plus ordered per-block traces appended during execution.
package trail

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RunConfig captures the parameters a run was launched with: the logical
// start time, the content hash of the app that produced it, and per-block
// configuration values keyed by block name. Block config values are kept
// as raw JSON; the store never interprets them.
type RunConfig struct {
	StartTime uint64                     `json:"start_time"`
	AppHash   string                     `json:"app_hash"`
	Blocks    map[string]json.RawMessage `json:"blocks"`
}

// ConfigForBlock returns the raw config value for the named block and
// whether one is present.
func (c *RunConfig) ConfigForBlock(name string) (json.RawMessage, bool) {
	raw, ok := c.Blocks[name]
	return raw, ok
}

// BlockIdent identifies a block by its type and its user-assigned name,
// e.g. type "code" name "extract". The pair is what execution traces are
// recorded under; position in the pipeline is carried separately.
type BlockIdent struct {
	Type string
	Name string
}

func (b BlockIdent) String() string {
	return b.Type + "_" + b.Name
}

// Validate reports whether this identity can be stored. Type and Name
// become filesystem path components joined as "type_name", so both must be
// non-empty, neither may contain a path separator, and Type may not
// contain "_" (Name may; the first "_" in the joined form is the divider).
func (b BlockIdent) Validate() error {
	if b.Type == "" {
		return &InvalidBlockError{Block: b, Reason: "type must not be empty"}
	}
	if b.Name == "" {
		return &InvalidBlockError{Block: b, Reason: "name must not be empty"}
	}
	if strings.Contains(b.Type, "_") {
		return &InvalidBlockError{Block: b, Reason: `type must not contain "_"`}
	}
	for _, part := range []string{b.Type, b.Name} {
		if strings.ContainsAny(part, `/\`) || strings.ContainsRune(part, 0) {
			return &InvalidBlockError{Block: b, Reason: "type and name must not contain path separators"}
		}
	}
	return nil
}

// Trace records every execution of one block: Inputs[i][j] is the outcome
// for input row i on branch j. Rows may be ragged when map blocks fan out,
// and a row may hold a single skipped execution when the engine never
// reached that input.
type Trace struct {
	Block  BlockIdent
	Inputs [][]BlockExecution
}

// Run is one recorded pipeline execution. The ID and config are fixed at
// creation; Traces is appended to by the engine in block execution order,
// so index k in Traces is block position k in the run.
type Run struct {
	id     string
	config RunConfig

	// Traces holds per-block execution records in pipeline order. The
	// engine appends one Trace per executed block; a run aborted at
	// block k carries exactly k+1 traces.
	Traces []Trace
}

// NewRun builds a run with a freshly generated ID and the given config.
func NewRun(config RunConfig) *Run {
	return &Run{id: NewRunID(), config: config}
}

// ID returns the run's immutable identifier.
func (r *Run) ID() string {
	return r.id
}

// Config returns the run's launch configuration. The Blocks map is shared
// with the run; callers must not mutate it.
func (r *Run) Config() RunConfig {
	return r.config
}

// AppendTrace records the executions of the next block in pipeline order.
func (r *Run) AppendTrace(block BlockIdent, inputs [][]BlockExecution) {
	r.Traces = append(r.Traces, Trace{Block: block, Inputs: inputs})
}

// TraceForBlock returns the lowest-indexed trace whose block name matches,
// along with its pipeline position. Matching is by name only: when a
// pipeline reuses a name across block types, the earliest occurrence wins.
func (r *Run) TraceForBlock(name string) (Trace, int, bool) {
	for i, tr := range r.Traces {
		if tr.Block.Name == name {
			return tr, i, true
		}
	}
	return Trace{}, 0, false
}

// Summary is the one-line description of a stored run used by listings.
type Summary struct {
	RunID  string
	Config RunConfig
}

func (s Summary) String() string {
	return fmt.Sprintf("Run: %s app_hash=%s start_time=%d", s.RunID, s.Config.AppHash, s.Config.StartTime)
}
