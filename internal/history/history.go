// Package history journals handled commands to a local SQLite database.
// It is opt-in and unrelated to the in-memory conversation state.
package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
  id         TEXT PRIMARY KEY,
  ts         INTEGER NOT NULL,
  transcript TEXT NOT NULL,
  language   TEXT NOT NULL,
  action     TEXT NOT NULL,
  target     TEXT,
  success    INTEGER NOT NULL,
  message    TEXT
);

CREATE INDEX IF NOT EXISTS idx_commands_ts ON commands(ts DESC);
`

type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Transcript string    `json:"transcript"`
	Language   string    `json:"language"`
	Action     string    `json:"action"`
	Target     string    `json:"target,omitempty"`
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
}

type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open creates the database file and its directory when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	_ = os.Chmod(path, 0o600)

	return &Store{db: db, entropy: ulid.Monotonic(rand.Reader, 0)}, nil
}

func (s *Store) newID(t time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), s.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Save stores e, assigning an ID and timestamp when they are unset.
func (s *Store) Save(ctx context.Context, e Entry) (Entry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.ID == "" {
		id, err := s.newID(e.Timestamp)
		if err != nil {
			return e, fmt.Errorf("generate id: %w", err)
		}
		e.ID = id
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (id, ts, transcript, language, action, target, success, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixMilli(), e.Transcript, e.Language, e.Action, e.Target, e.Success, e.Message)
	if err != nil {
		return e, fmt.Errorf("insert command: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, transcript, language, action, target, success, message
		 FROM commands ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			ts      int64
			target  sql.NullString
			message sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.Transcript, &e.Language, &e.Action, &target, &e.Success, &message); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		e.Target = target.String
		e.Message = message.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
