package models

import "encoding/json"

// ParsedToolCall is one tool invocation extracted from a model reply, in the
// order it appeared in the text.
type ParsedToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolOutcome is the normalized result of executing one tool.
type ToolOutcome struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Err     string `json:"error,omitempty"`
}
