// ABOUTME: Exports a stored run as a structured YAML or JSON document.
// ABOUTME: Uses gopkg.in/yaml.v3; raw JSON values are decoded first so YAML output stays readable.
package render

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/spoor/trail"
)

// ExecutionDoc is a serializable representation of one execution outcome.
// Status disambiguates the cases, so a success with a null value and a
// skipped branch stay distinguishable after omitempty.
type ExecutionDoc struct {
	Status string `json:"status" yaml:"status"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// InputDoc groups the branch outcomes for one input row.
type InputDoc struct {
	Input    int            `json:"input" yaml:"input"`
	Branches []ExecutionDoc `json:"branches" yaml:"branches"`
}

// BlockDoc is a serializable representation of one block trace.
type BlockDoc struct {
	Index  int        `json:"index" yaml:"index"`
	Type   string     `json:"type" yaml:"type"`
	Name   string     `json:"name" yaml:"name"`
	Config any        `json:"config,omitempty" yaml:"config,omitempty"`
	Inputs []InputDoc `json:"inputs" yaml:"inputs"`
}

// RunDoc is the top-level serializable representation of a run.
type RunDoc struct {
	RunID     string     `json:"run_id" yaml:"run_id"`
	AppHash   string     `json:"app_hash" yaml:"app_hash"`
	StartTime uint64     `json:"start_time" yaml:"start_time"`
	Started   string     `json:"started" yaml:"started"`
	Blocks    []BlockDoc `json:"blocks" yaml:"blocks"`
}

// BuildRunDoc converts a loaded run into its export document. Raw JSON
// values are decoded into plain Go values; yaml.v3 would otherwise render
// json.RawMessage bytes as base64.
func BuildRunDoc(run *trail.Run) (*RunDoc, error) {
	cfg := run.Config()
	doc := &RunDoc{
		RunID:     run.ID(),
		AppHash:   cfg.AppHash,
		StartTime: cfg.StartTime,
		Started:   FormatStartTime(cfg.StartTime),
		Blocks:    make([]BlockDoc, 0, len(run.Traces)),
	}
	for i, tr := range run.Traces {
		var configRaw json.RawMessage
		if raw, ok := cfg.ConfigForBlock(tr.Block.Name); ok {
			configRaw = raw
		}
		block, err := buildBlockDoc(i, tr.Block, tr.Inputs, configRaw)
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, *block)
	}
	return doc, nil
}

// BuildBlockDoc converts a single block read-back into its export
// document. Block config is not included; ReadBlock does not load it.
func BuildBlockDoc(bt *trail.BlockTrace) (*BlockDoc, error) {
	return buildBlockDoc(bt.Index, bt.Block, bt.Inputs, nil)
}

func buildBlockDoc(index int, ident trail.BlockIdent, inputs [][]trail.BlockExecution, configRaw json.RawMessage) (*BlockDoc, error) {
	block := &BlockDoc{
		Index:  index,
		Type:   ident.Type,
		Name:   ident.Name,
		Inputs: make([]InputDoc, 0, len(inputs)),
	}
	if configRaw != nil {
		decoded, err := decodeRaw(configRaw)
		if err != nil {
			return nil, fmt.Errorf("decode config for block %s: %w", ident, err)
		}
		block.Config = decoded
	}
	for inputIdx, branches := range inputs {
		input := InputDoc{Input: inputIdx, Branches: make([]ExecutionDoc, 0, len(branches))}
		for _, exec := range branches {
			ed, err := executionDoc(exec)
			if err != nil {
				return nil, fmt.Errorf("decode execution for block %s input %d: %w", ident, inputIdx, err)
			}
			input.Branches = append(input.Branches, ed)
		}
		block.Inputs = append(block.Inputs, input)
	}
	return block, nil
}

func executionDoc(exec trail.BlockExecution) (ExecutionDoc, error) {
	switch exec.Status() {
	case trail.StatusSuccess:
		raw, _ := exec.Value()
		decoded, err := decodeRaw(raw)
		if err != nil {
			return ExecutionDoc{}, err
		}
		return ExecutionDoc{Status: string(trail.StatusSuccess), Value: decoded}, nil
	case trail.StatusFail:
		msg, _ := exec.FailureMessage()
		return ExecutionDoc{Status: string(trail.StatusFail), Error: msg}, nil
	default:
		return ExecutionDoc{Status: string(trail.StatusSkipped)}, nil
	}
}

func decodeRaw(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ExportYAML exports a run as a YAML document.
func ExportYAML(run *trail.Run) ([]byte, error) {
	doc, err := BuildRunDoc(run)
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal run YAML: %w", err)
	}
	return data, nil
}

// ExportJSON exports a run as an indented JSON document.
func ExportJSON(run *trail.Run) ([]byte, error) {
	doc, err := BuildRunDoc(run)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal run JSON: %w", err)
	}
	return data, nil
}
