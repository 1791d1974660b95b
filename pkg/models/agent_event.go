package models

import "encoding/json"

// AgentEventType discriminates the AgentEvent variants. The string values
// are the wire-level "type" tag.
type AgentEventType string

const (
	EventTextChunk         AgentEventType = "TextChunk"
	EventToolCallStart     AgentEventType = "ToolCallStart"
	EventToolCallResult    AgentEventType = "ToolCallResult"
	EventMemoryRecall      AgentEventType = "MemoryRecall"
	EventProviderCallStart AgentEventType = "ProviderCallStart"
	EventProviderCallEnd   AgentEventType = "ProviderCallEnd"
	EventDone              AgentEventType = "Done"
	EventError             AgentEventType = "Error"
)

// AgentEvent is a tagged union of the eight event variants emitted to the
// event stream over the course of one agent loop run. Only the field that
// matches Type is meaningful; the others are left at their zero value.
type AgentEvent struct {
	Type AgentEventType `json:"type"`

	// TextChunk
	Content string `json:"content,omitempty"`

	// ToolCallStart / ToolCallResult
	ToolName  string          `json:"tool_name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Success   bool            `json:"success,omitempty"`
	Output    string          `json:"output,omitempty"`

	// MemoryRecall
	Query        string `json:"query,omitempty"`
	ResultsCount int    `json:"results_count,omitempty"`

	// ProviderCallStart / ProviderCallEnd
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`

	// Done
	SessionID string `json:"session_id,omitempty"`

	// Error
	Message string `json:"message,omitempty"`
}

func TextChunk(content string) AgentEvent {
	return AgentEvent{Type: EventTextChunk, Content: content}
}

func ToolCallStart(name string, args json.RawMessage) AgentEvent {
	return AgentEvent{Type: EventToolCallStart, ToolName: name, Arguments: args}
}

func ToolCallResult(name string, success bool, output string) AgentEvent {
	return AgentEvent{Type: EventToolCallResult, ToolName: name, Success: success, Output: output}
}

func MemoryRecall(query string, resultsCount int) AgentEvent {
	return AgentEvent{Type: EventMemoryRecall, Query: query, ResultsCount: resultsCount}
}

func ProviderCallStart(provider, model string) AgentEvent {
	return AgentEvent{Type: EventProviderCallStart, Provider: provider, Model: model}
}

func ProviderCallEnd(durationMs int64) AgentEvent {
	return AgentEvent{Type: EventProviderCallEnd, DurationMs: durationMs}
}

func Done(sessionID string) AgentEvent {
	return AgentEvent{Type: EventDone, SessionID: sessionID}
}

func Error(message string) AgentEvent {
	return AgentEvent{Type: EventError, Message: message}
}
