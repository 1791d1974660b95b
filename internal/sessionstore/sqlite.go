package sessionstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/viziclaw/agentcore/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS session_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	tool_name TEXT,
	tool_args TEXT,
	tool_success INTEGER,
	timestamp TEXT NOT NULL,
	sequence INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_messages_session_seq
	ON session_messages(session_id, sequence);
`

// timestampLayout is RFC 3339 with a fixed nine-digit fraction, so stored
// timestamps sort chronologically as text (ORDER BY updated_at).
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is the production Store, backed by a single SQLite database
// at <home>/.viziclaw/sessions.db. All mutating operations are serialized
// through writeMu so sequence numbers stay dense even under concurrent loop
// instances sharing the same connection.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// DefaultPath returns <home>/.viziclaw/sessions.db, creating the directory
// with 0700 permissions if it doesn't exist.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".viziclaw")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create viziclaw dir: %w", err)
	}
	return filepath.Join(dir, "sessions.db"), nil
}

// OpenSQLiteStore opens (creating if needed) the database at path, applies
// WAL journaling and foreign key enforcement, and ensures the schema
// exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer semantics; the driver is not safe for concurrent writers

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, provider, model string) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := uuid.NewString()
	now := time.Now().UTC().Format(timestampLayout)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, provider, model, created_at, updated_at, message_count) VALUES (?, '', ?, ?, ?, ?, 0)`,
		id, provider, model, now, now)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) AddMessage(ctx context.Context, sessionID string, role models.Role, content string, toolName, toolArgs string, toolSuccess *bool) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("lookup session: %w", err)
	}

	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(sequence) FROM session_messages WHERE session_id = ?`, sessionID).Scan(&maxSeq); err != nil {
		return 0, fmt.Errorf("compute next sequence: %w", err)
	}
	nextSeq := maxSeq.Int64 + 1

	now := time.Now().UTC().Format(timestampLayout)

	var toolSuccessVal any
	if toolSuccess != nil {
		if *toolSuccess {
			toolSuccessVal = 1
		} else {
			toolSuccessVal = 0
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO session_messages (session_id, role, content, tool_name, tool_args, tool_success, timestamp, sequence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, string(role), content, nullIfEmpty(toolName), nullIfEmpty(toolArgs), toolSuccessVal, now, nextSeq)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	messageID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET message_count = message_count + 1, updated_at = ? WHERE id = ?`,
		now, sessionID); err != nil {
		return 0, fmt.Errorf("bump session counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return messageID, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit, offset int) ([]models.SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, provider, model, updated_at, message_count
		 FROM sessions ORDER BY updated_at DESC, id ASC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionSummary
	for rows.Next() {
		var sum models.SessionSummary
		var updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Provider, &sum.Model, &updatedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (models.SessionDetail, error) {
	var sess models.Session
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, provider, model, created_at, updated_at, message_count FROM sessions WHERE id = ?`,
		sessionID,
	).Scan(&sess.ID, &sess.Title, &sess.Provider, &sess.Model, &createdAt, &updatedAt, &sess.MessageCount)
	if err == sql.ErrNoRows {
		return models.SessionDetail{}, ErrSessionNotFound
	}
	if err != nil {
		return models.SessionDetail{}, fmt.Errorf("lookup session: %w", err)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, tool_name, tool_args, tool_success, timestamp, sequence
		 FROM session_messages WHERE session_id = ? ORDER BY sequence ASC`,
		sessionID)
	if err != nil {
		return models.SessionDetail{}, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []models.TurnRecord
	for rows.Next() {
		var t models.TurnRecord
		var role, ts string
		var toolName, toolArgs sql.NullString
		var toolSuccess sql.NullInt64

		if err := rows.Scan(&t.ID, &t.SessionID, &role, &t.Content, &toolName, &toolArgs, &toolSuccess, &ts, &t.Sequence); err != nil {
			return models.SessionDetail{}, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = models.Role(role)
		t.ToolName = toolName.String
		t.ToolArgs = toolArgs.String
		if toolSuccess.Valid {
			v := toolSuccess.Int64 != 0
			t.ToolSuccess = &v
		}
		t.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return models.SessionDetail{}, err
	}

	return models.SessionDetail{Session: sess, Turns: turns}, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateTitle(ctx context.Context, sessionID, title string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET title = ? WHERE id = ?`, title, sessionID)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
