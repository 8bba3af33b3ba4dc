// ABOUTME: BlockExecution models the outcome of one block invocation as a closed three-case variant.
// ABOUTME: Exactly one of success (with value), failure (with message), or skipped; never value and error together.
package trail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// BlockStatus identifies which case a BlockExecution holds.
type BlockStatus string

const (
	StatusSuccess BlockStatus = "success"
	StatusFail    BlockStatus = "fail"
	StatusSkipped BlockStatus = "skipped"
)

// BlockExecution is the outcome of running one block against one input on
// one branch. It is a closed variant: a success carrying a JSON value, a
// failure carrying a message, or a skipped branch carrying nothing. The
// zero value is a skipped execution.
//
// On the wire a success is {"value": <json>}, a failure is
// {"error": "<message>"}, and a skipped branch is {}. Key presence decides
// the case, so {"value": null} is a success whose value is null.
type BlockExecution struct {
	status BlockStatus
	value  json.RawMessage
	errMsg string
}

// Succeeded builds a successful execution carrying value. The value may be
// any JSON-marshalable Go value, including json.RawMessage and nil.
func Succeeded(value any) (BlockExecution, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return BlockExecution{}, fmt.Errorf("marshal execution value: %w", err)
	}
	return BlockExecution{status: StatusSuccess, value: raw}, nil
}

// Failed builds a failed execution carrying the error message.
func Failed(msg string) BlockExecution {
	return BlockExecution{status: StatusFail, errMsg: msg}
}

// Skipped builds an execution for a branch the engine never ran.
func Skipped() BlockExecution {
	return BlockExecution{status: StatusSkipped}
}

// Status reports which case this execution holds.
func (e BlockExecution) Status() BlockStatus {
	if e.status == "" {
		return StatusSkipped
	}
	return e.status
}

// Value returns the success value and true if this execution succeeded.
// A successful execution may carry the JSON value null.
func (e BlockExecution) Value() (json.RawMessage, bool) {
	if e.Status() != StatusSuccess {
		return nil, false
	}
	return e.value, true
}

// FailureMessage returns the error message and true if this execution failed.
func (e BlockExecution) FailureMessage() (string, bool) {
	if e.Status() != StatusFail {
		return "", false
	}
	return e.errMsg, true
}

// blockExecutionJSON is the wire shape. Pointers keep absent keys absent:
// a skipped execution serializes as {}.
type blockExecutionJSON struct {
	Value *json.RawMessage `json:"value,omitempty"`
	Error *string          `json:"error,omitempty"`
}

func (e BlockExecution) MarshalJSON() ([]byte, error) {
	var wire blockExecutionJSON
	switch e.Status() {
	case StatusSuccess:
		value := e.value
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		wire.Value = &value
	case StatusFail:
		msg := e.errMsg
		wire.Error = &msg
	case StatusSkipped:
		// both keys stay absent
	default:
		return nil, fmt.Errorf("unknown execution status %q", e.status)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the wire shape by key presence. Decoding through a
// plain struct would collapse an explicit "value": null into an absent key,
// so presence is checked against the raw object instead.
func (e *BlockExecution) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode execution: %w", err)
	}
	rawValue, hasValue := fields["value"]
	rawError, hasError := fields["error"]
	if hasValue && hasError {
		return errors.New("execution has both value and error")
	}
	switch {
	case hasValue:
		e.status = StatusSuccess
		e.value = append(json.RawMessage(nil), bytes.TrimSpace(rawValue)...)
		e.errMsg = ""
	case hasError:
		var msg *string
		if err := json.Unmarshal(rawError, &msg); err != nil || msg == nil {
			return fmt.Errorf("execution error must be a string, got %s", rawError)
		}
		e.status = StatusFail
		e.value = nil
		e.errMsg = *msg
	default:
		*e = Skipped()
	}
	return nil
}
