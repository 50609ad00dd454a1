// Package sqlite persists session memory and resolution history in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit applies when History is called with a non-positive limit.
const DefaultHistoryLimit = 20

const schema = `
CREATE TABLE IF NOT EXISTS session_memory (
	kind       TEXT PRIMARY KEY,
	last_query TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS advisory_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id   TEXT NOT NULL,
	kind         TEXT NOT NULL,
	query        TEXT NOT NULL,
	source       TEXT NOT NULL,
	resolved_key TEXT,
	payload      TEXT NOT NULL,
	resolved_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_advisory_history_kind ON advisory_history(kind, id DESC);
`

// Store implements domain.SessionMemory and records resolution history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies the schema.
// Pass ":memory:" for an in-memory database (testing).
func Open(path string) (*Store, error) {
	path = expandPath(path)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Recall returns the last remembered query for kind.
func (s *Store) Recall(ctx context.Context, kind domain.Kind) (string, bool, error) {
	var q string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_query FROM session_memory WHERE kind = ?`, string(kind),
	).Scan(&q)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("recall %s: %w", kind, err)
	}
	return q, true, nil
}

// Remember overwrites the last query for kind in a single upsert.
func (s *Store) Remember(ctx context.Context, kind domain.Kind, query string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_memory (kind, last_query, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(kind) DO UPDATE SET last_query = excluded.last_query, updated_at = excluded.updated_at`,
		string(kind), query, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("remember %s: %w", kind, err)
	}
	return nil
}

// Name identifies the store as a resolution sink.
func (s *Store) Name() string { return "sqlite" }

// Record appends res to the advisory history.
func (s *Store) Record(ctx context.Context, res domain.Resolution) error {
	var key sql.NullString
	if res.ResolvedKey != "" {
		key = sql.NullString{String: res.ResolvedKey, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO advisory_history (request_id, kind, query, source, resolved_key, payload, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RequestID, string(res.Kind), res.Query, string(res.Source), key,
		string(res.Payload), res.ResolvedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record %s resolution: %w", res.Kind, err)
	}
	return nil
}

// History returns up to limit resolutions of kind, newest first.
func (s *Store) History(ctx context.Context, kind domain.Kind, limit int) ([]domain.Resolution, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, kind, query, source, resolved_key, payload, resolved_at
		 FROM advisory_history WHERE kind = ? ORDER BY id DESC LIMIT ?`,
		string(kind), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s history: %w", kind, err)
	}
	defer rows.Close()

	var out []domain.Resolution
	for rows.Next() {
		var (
			r          domain.Resolution
			kindStr    string
			sourceStr  string
			key        sql.NullString
			payload    string
			resolvedAt string
		)
		if err := rows.Scan(&r.RequestID, &kindStr, &r.Query, &sourceStr, &key, &payload, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.Kind = domain.Kind(kindStr)
		r.Source = domain.Source(sourceStr)
		r.ResolvedKey = key.String
		r.Payload = []byte(payload)
		if r.ResolvedAt, err = time.Parse(time.RFC3339Nano, resolvedAt); err != nil {
			return nil, fmt.Errorf("parse resolved_at %q: %w", resolvedAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
