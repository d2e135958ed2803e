// CLAUDE:SUMMARY Persists saved documents and diagnostic output to SQLite; serves the latest save back to the host.
package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hazyhaar/designbridge/bridge/message"
)

// Schema for the store tables.
const Schema = `
CREATE TABLE IF NOT EXISTS bridge_saves (
	id             TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	doc_json       TEXT NOT NULL,
	preview_base64 TEXT NOT NULL,
	preview_format TEXT NOT NULL DEFAULT '',
	received_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bridge_saves_received ON bridge_saves(received_at);

CREATE TABLE IF NOT EXISTS bridge_console (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	level      TEXT NOT NULL,
	message    TEXT NOT NULL,
	timestamp  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bridge_diagnostics (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	context     TEXT NOT NULL,
	ready_state TEXT NOT NULL,
	scripts     TEXT NOT NULL DEFAULT '[]',
	links       TEXT NOT NULL DEFAULT '[]',
	timestamp   INTEGER NOT NULL
);
`

// ErrNoSave is returned by Latest when nothing has been saved yet.
var ErrNoSave = errors.New("sink: no saved document")

// Store writes events to SQLite. The caller owns db.
type Store struct {
	db *sql.DB
}

// NewStore applies Schema and returns a Store.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SendSave(ctx context.Context, p message.DocumentPayload) error {
	format := string(p.PreviewFormat())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bridge_saves (id, session_id, doc_json, preview_base64, preview_format, received_at)
		VALUES (?,?,?,?,?,?)`,
		p.ID, p.SessionID, p.DocJSON, p.PreviewBase64, format, p.ReceivedAt)
	if err != nil {
		return fmt.Errorf("store: insert save: %w", err)
	}
	return nil
}

func (s *Store) SendConsole(ctx context.Context, e message.ConsoleEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bridge_console (session_id, level, message, timestamp) VALUES (?,?,?,?)`,
		e.SessionID, string(e.Level), e.Message, e.Timestamp)
	if err != nil {
		return fmt.Errorf("store: insert console: %w", err)
	}
	return nil
}

func (s *Store) SendDiagnostic(ctx context.Context, d message.Diagnostic) error {
	scripts, _ := json.Marshal(orEmpty(d.Snapshot.Scripts))
	links, _ := json.Marshal(orEmpty(d.Snapshot.Stylesheets))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bridge_diagnostics (session_id, context, ready_state, scripts, links, timestamp)
		VALUES (?,?,?,?,?,?)`,
		d.SessionID, d.Context, d.Snapshot.ReadyState, string(scripts), string(links), d.Timestamp)
	if err != nil {
		return fmt.Errorf("store: insert diagnostic: %w", err)
	}
	return nil
}

// Latest returns the most recently received save.
func (s *Store) Latest(ctx context.Context) (message.DocumentPayload, error) {
	var p message.DocumentPayload
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, doc_json, preview_base64, received_at
		FROM bridge_saves
		ORDER BY received_at DESC, id DESC
		LIMIT 1`).Scan(&p.ID, &p.SessionID, &p.DocJSON, &p.PreviewBase64, &p.ReceivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return message.DocumentPayload{}, ErrNoSave
	}
	if err != nil {
		return message.DocumentPayload{}, fmt.Errorf("store: latest: %w", err)
	}
	return p, nil
}

// Console returns the console records of a session in arrival order.
func (s *Store) Console(ctx context.Context, sessionID string) ([]message.ConsoleEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT level, message, timestamp FROM bridge_console
		WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: console: %w", err)
	}
	defer rows.Close()

	var out []message.ConsoleEntry
	for rows.Next() {
		e := message.ConsoleEntry{SessionID: sessionID}
		var level string
		if err := rows.Scan(&level, &e.Message, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Level = message.Level(level)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close is a no-op; the caller closes the database.
func (s *Store) Close() error { return nil }

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
