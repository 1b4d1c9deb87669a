// Package chat persists sessions and messages in a dedicated SQLite database,
// separate from the business schema the agent queries.
package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	chartmodel "github.com/wtwq666/smartdata/internal/model/chart"
	"github.com/wtwq666/smartdata/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '新对话',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	role       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	chart_data TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages(session_id, created_at);
`

// Service encapsulates conversation state management. Every operation runs a
// short-lived statement or transaction; nothing holds the connection across
// an agent invocation.
type Service struct {
	db *sql.DB
}

// NewService opens (and if needed bootstraps) the session database at path.
func NewService(path string) (*Service, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}

	return &Service{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Service) Close() error {
	return s.db.Close()
}

// CreateSession provisions a new session with both timestamps set to now.
func (s *Service) CreateSession(ctx context.Context, title string) (chat.Session, error) {
	if title == "" {
		title = chat.DefaultTitle
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	session.UpdatedAt = session.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.Title, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return chat.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *Service) ListSessions(ctx context.Context) ([]chat.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]chat.Session, 0, 16)
	for rows.Next() {
		var session chat.Session
		if err := rows.Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	var session chat.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return chat.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// RenameSession updates the title and bumps updated_at.
func (s *Service) RenameSession(ctx context.Context, sessionID, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session and all of its messages in one transaction.
// The cascade is explicit: child rows first, then the session row.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}

	return tx.Commit()
}

// AppendMessage stores a new message and bumps the parent session's
// updated_at in the same transaction. Fails when the session does not exist;
// messages are never updated afterwards.
func (s *Service) AppendMessage(ctx context.Context, sessionID, role, content string, option chartmodel.Option) (chat.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return chat.Message{}, fmt.Errorf("append message: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID)
	if err != nil {
		return chat.Message{}, fmt.Errorf("bump session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return chat.Message{}, ErrSessionNotFound
	}

	message := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Chart:     option,
		CreatedAt: now,
	}

	var chartJSON any
	if option != nil {
		raw, err := json.Marshal(option)
		if err != nil {
			return chat.Message{}, fmt.Errorf("encode chart option: %w", err)
		}
		chartJSON = string(raw)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, chart_data, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID, message.SessionID, message.Role, message.Content, chartJSON, message.CreatedAt,
	)
	if err != nil {
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return chat.Message{}, fmt.Errorf("append message: %w", err)
	}
	return message, nil
}

// LoadTranscript returns every message of a session in chronological order.
// The result is a detached snapshot, safe to use after the call returns.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, chart_data, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// RecentMessages returns the newest `limit` messages of a session in
// chronological order. The read is bounded: newest-first with a LIMIT, then
// reversed, so long histories are never scanned in full.
func (s *Service) RecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, chart_data, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func scanMessages(rows *sql.Rows) ([]chat.Message, error) {
	messages := make([]chat.Message, 0, 16)
	for rows.Next() {
		var (
			message   chat.Message
			chartJSON sql.NullString
		)
		if err := rows.Scan(&message.ID, &message.SessionID, &message.Role,
			&message.Content, &chartJSON, &message.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if chartJSON.Valid && chartJSON.String != "" {
			if err := json.Unmarshal([]byte(chartJSON.String), &message.Chart); err != nil {
				return nil, fmt.Errorf("decode chart option: %w", err)
			}
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
