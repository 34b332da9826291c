// Package history keeps a local SQLite record of sent requests.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("history entry not found")

// ErrAmbiguousID is returned by Get when an ID prefix matches several entries.
var ErrAmbiguousID = errors.New("ambiguous history id")

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	status      INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	sent_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_sent_at ON entries (sent_at DESC);
`

// Entry is one sent request.
type Entry struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	Status     int       `json:"status"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
	SentAt     time.Time `json:"sentAt"`
}

// Store is a history database. It is safe for concurrent use.
type Store struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// Open opens or creates the history database. Accepted forms are a plain
// path, sqlite://path, sqlite:path and :memory:.
func Open(connectionString string) (*Store, error) {
	path := parseConnectionString(connectionString)
	if path == "" {
		return nil, fmt.Errorf("empty history database path")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	return &Store{
		db:           db,
		path:         path,
		queryTimeout: 30 * time.Second,
	}, nil
}

func parseConnectionString(connStr string) string {
	connStr = strings.TrimSpace(connStr)
	if strings.HasPrefix(connStr, "sqlite://") {
		return strings.TrimPrefix(connStr, "sqlite://")
	}
	return strings.TrimPrefix(connStr, "sqlite:")
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Add stores e, filling in ID and SentAt when they are empty.
func (s *Store) Add(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SentAt.IsZero() {
		e.SentAt = time.Now()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, command, method, url, status, duration_ms, error, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Command, e.Method, e.URL, e.Status, e.DurationMs, e.Error, e.SentAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to save history entry: %w", err)
	}
	return e, nil
}

// ListOptions filters List. Zero values match everything.
type ListOptions struct {
	Limit       int
	Method      string
	URLContains string
	FailedOnly  bool
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT id, command, method, url, status, duration_ms, error, sent_at FROM entries`
	var (
		where []string
		args  []any
	)
	if opts.Method != "" {
		where = append(where, "method = ?")
		args = append(args, strings.ToUpper(opts.Method))
	}
	if opts.URLContains != "" {
		where = append(where, "instr(url, ?) > 0")
		args = append(args, opts.URLContains)
	}
	if opts.FailedOnly {
		where = append(where, "(error != '' OR status >= 400)")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sent_at DESC, rowid DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Get returns the entry whose ID equals id or starts with it.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, ErrNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, method, url, status, duration_ms, error, sent_at
		 FROM entries WHERE substr(id, 1, ?) = ? LIMIT 2`,
		len(id), id,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var found []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Entry{}, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, fmt.Errorf("row iteration error: %w", err)
	}

	switch len(found) {
	case 0:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return Entry{}, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// Clear deletes every entry and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e      Entry
		sentAt int64
	)
	if err := rows.Scan(&e.ID, &e.Command, &e.Method, &e.URL, &e.Status, &e.DurationMs, &e.Error, &sentAt); err != nil {
		return Entry{}, fmt.Errorf("failed to scan row: %w", err)
	}
	e.SentAt = time.Unix(0, sentAt)
	return e, nil
}
