// Package dispatch looks up named tools in a registry and normalizes their
// outcomes into a textual result, always pairing a ToolCallStart event with
// a ToolCallResult event regardless of how the call went.
package dispatch

import (
	"context"
	"encoding/json"
)

// Tool is an externally implemented capability invoked by name with
// arbitrary JSON arguments.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, arguments json.RawMessage) (Outcome, error)
}

// Outcome is the raw result of running a tool, before normalization.
type Outcome struct {
	Success bool
	Output  string
	Err     string
}
