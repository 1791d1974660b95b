// Package service exposes the orchestrator's host-facing command surface:
// plain request/response methods with no streaming of their own. Live
// progress is delivered separately over the Dependencies' event sink.
package service

import (
	"context"
	"fmt"

	"github.com/viziclaw/agentcore/internal/agentloop"
	"github.com/viziclaw/agentcore/internal/sessionstore"
	"github.com/viziclaw/agentcore/pkg/models"
)

// Service implements the host-facing command surface described in the
// external interfaces contract: send_message, list_sessions, get_session,
// delete_session, new_session.
type Service struct {
	deps agentloop.Dependencies
}

// New wraps deps as a Service.
func New(deps agentloop.Dependencies) *Service {
	return &Service{deps: deps}
}

// SendMessage allocates a session if sessionID is empty, spawns the agent
// loop asynchronously, and returns immediately with the session id. Events
// continue to flow on the configured sink.
func (s *Service) SendMessage(ctx context.Context, sessionID, message, provider, model string) (string, error) {
	return agentloop.RunAsync(ctx, s.deps, agentloop.Request{
		SessionID:        sessionID,
		Message:          message,
		ProviderOverride: provider,
		ModelOverride:    model,
	})
}

// ListSessions returns session summaries ordered by recency.
func (s *Service) ListSessions(ctx context.Context, limit, offset int) ([]models.SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.deps.Store.ListSessions(ctx, limit, offset)
}

// GetSession returns a session's full header plus turn history.
func (s *Service) GetSession(ctx context.Context, sessionID string) (models.SessionDetail, error) {
	detail, err := s.deps.Store.GetSession(ctx, sessionID)
	if err != nil {
		return models.SessionDetail{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return detail, nil
}

// DeleteSession removes a session and all of its turns.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	return s.deps.Store.DeleteSession(ctx, sessionID)
}

// NewSession allocates a session without sending a message.
func (s *Service) NewSession(ctx context.Context, provider, model string) (string, error) {
	if provider == "" {
		provider = s.deps.Config.DefaultProvider
	}
	if model == "" {
		model = s.deps.Config.DefaultModel
	}
	return s.deps.Store.CreateSession(ctx, provider, model)
}

// ErrSessionNotFound is re-exported for callers that want to compare with
// errors.Is without importing sessionstore directly.
var ErrSessionNotFound = sessionstore.ErrSessionNotFound
