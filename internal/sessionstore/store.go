// Package sessionstore implements the durable, append-only session log: one
// header row per session plus an ordered run of turn records, with a
// sequence number that is dense and strictly increasing within a session.
package sessionstore

import (
	"context"
	"errors"

	"github.com/viziclaw/agentcore/pkg/models"
)

// ErrSessionNotFound is returned when an operation names a session id that
// does not exist. Callers should compare with errors.Is.
var ErrSessionNotFound = errors.New("session not found")

// Store is the durable session log contract. All mutating operations on a
// single session are serialized so sequence numbers stay dense.
type Store interface {
	// CreateSession allocates a fresh session for the given provider/model
	// and returns its id.
	CreateSession(ctx context.Context, provider, model string) (string, error)

	// AddMessage appends one turn to a session inside a single transaction,
	// assigning it the next sequence number and bumping the session's
	// message_count and updated_at. Returns ErrSessionNotFound if the
	// session does not exist.
	AddMessage(ctx context.Context, sessionID string, role models.Role, content string, toolName, toolArgs string, toolSuccess *bool) (int64, error)

	// ListSessions returns session summaries ordered by updated_at
	// descending, with a stable id tie-break.
	ListSessions(ctx context.Context, limit, offset int) ([]models.SessionSummary, error)

	// GetSession returns the session header plus all turns in ascending
	// sequence order. Returns ErrSessionNotFound if absent.
	GetSession(ctx context.Context, sessionID string) (models.SessionDetail, error)

	// DeleteSession removes a session and all of its turns. Idempotent.
	DeleteSession(ctx context.Context, sessionID string) error

	// UpdateTitle unconditionally overwrites a session's title.
	UpdateTitle(ctx context.Context, sessionID, title string) error

	// Close releases underlying resources.
	Close() error
}
