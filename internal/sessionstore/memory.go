package sessionstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viziclaw/agentcore/pkg/models"
)

// InMemoryStore is a Store backed by process memory, useful for tests and
// for embedding the orchestrator without a filesystem.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	turns    map[string][]models.TurnRecord
	nextID   int64
}

// NewInMemoryStore builds an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*models.Session),
		turns:    make(map[string][]models.TurnRecord),
	}
}

func (s *InMemoryStore) CreateSession(_ context.Context, provider, model string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := time.Now().UTC()
	s.sessions[id] = &models.Session{
		ID:        id,
		Provider:  provider,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (s *InMemoryStore) AddMessage(_ context.Context, sessionID string, role models.Role, content string, toolName, toolArgs string, toolSuccess *bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}

	s.nextID++
	seq := int64(len(s.turns[sessionID])) + 1
	turn := models.TurnRecord{
		ID:          s.nextID,
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		ToolName:    toolName,
		ToolArgs:    toolArgs,
		ToolSuccess: toolSuccess,
		Timestamp:   time.Now().UTC(),
		Sequence:    seq,
	}
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	sess.MessageCount = len(s.turns[sessionID])
	sess.UpdatedAt = turn.Timestamp

	return turn.ID, nil
}

func (s *InMemoryStore) ListSessions(_ context.Context, limit, offset int) ([]models.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]models.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		summaries = append(summaries, models.SessionSummary{
			ID:           sess.ID,
			Title:        sess.Title,
			Provider:     sess.Provider,
			Model:        sess.Model,
			UpdatedAt:    sess.UpdatedAt,
			MessageCount: sess.MessageCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})

	if offset >= len(summaries) {
		return []models.SessionSummary{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(summaries) {
		end = len(summaries)
	}
	return summaries[offset:end], nil
}

func (s *InMemoryStore) GetSession(_ context.Context, sessionID string) (models.SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.SessionDetail{}, ErrSessionNotFound
	}

	turns := make([]models.TurnRecord, len(s.turns[sessionID]))
	copy(turns, s.turns[sessionID])

	return models.SessionDetail{Session: *sess, Turns: turns}, nil
}

func (s *InMemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	delete(s.turns, sessionID)
	return nil
}

func (s *InMemoryStore) UpdateTitle(_ context.Context, sessionID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Title = title
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
