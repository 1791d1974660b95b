// Package models holds the data types shared across the orchestrator:
// sessions, turn records, chat history, tool calls, and the event stream.
package models

import "time"

// Session is a persisted conversation header.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Role identifies who or what produced a TurnRecord.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolCall   Role = "tool_call"
	RoleToolResult Role = "tool_result"
)

// TurnRecord is one persisted turn in a session's history.
type TurnRecord struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	ToolName    string    `json:"tool_name,omitempty"`
	ToolArgs    string    `json:"tool_args,omitempty"`
	ToolSuccess *bool     `json:"tool_success,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Sequence    int64     `json:"sequence"`
}

// SessionSummary is the list-view projection of a Session.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// SessionDetail is a Session plus its ordered turn history.
type SessionDetail struct {
	Session Session      `json:"session"`
	Turns   []TurnRecord `json:"turns"`
}
