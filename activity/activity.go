// Package activity keeps a history of the actions a user took, such as
// loading a trace or changing the cache configuration.
package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
)

// DefaultLimit is the number of records Recent returns when asked for zero.
const DefaultLimit = 50

// ErrEmptyAction is returned when an action has no name.
var ErrEmptyAction = errors.New("action is required")

// Record is one logged action.
type Record struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Store saves records in an SQLite table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// NewStore uses an opened database and creates the history table if needed.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	details TEXT,
	timestamp INTEGER NOT NULL
);`)
	if err != nil {
		return nil, fmt.Errorf("creating history table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Log appends a record.
func (s *Store) Log(ctx context.Context, action, details string) (Record, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return Record{}, ErrEmptyAction
	}

	r := Record{
		ID:        xid.New().String(),
		Action:    action,
		Details:   details,
		Timestamp: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO history (id, action, details, timestamp) VALUES (?, ?, ?, ?)",
		r.ID, r.Action, r.Details, r.Timestamp.UnixNano())
	if err != nil {
		return Record{}, fmt.Errorf("logging action %q: %w", action, err)
	}

	return r, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, action, details, timestamp FROM history "+
			"ORDER BY timestamp DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}

	for rows.Next() {
		var (
			r       Record
			details sql.NullString
			nanos   int64
		)

		if err := rows.Scan(&r.ID, &r.Action, &details, &nanos); err != nil {
			return nil, err
		}

		r.Details = details.String
		r.Timestamp = time.Unix(0, nanos).UTC()
		records = append(records, r)
	}

	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
