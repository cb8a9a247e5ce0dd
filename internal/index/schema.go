// Package index provides the SQLite-backed note index.
package index

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/singleflight"

	"github.com/starford/merely/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL DEFAULT '',
	file_path  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_file_path ON notes(file_path);
CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at);
`

// DB wraps a sql.DB with index-specific operations. The schema is created
// lazily by the first operation that needs it.
type DB struct {
	conn *sql.DB
	now  func() time.Time

	ready      atomic.Bool
	initGroup  singleflight.Group
	schemaRuns atomic.Int32
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// Open opens (or creates) the SQLite database file and verifies the
// connection. It does not create the schema.
func Open(path string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperr.Storage("index: open db", err)
	}
	// One shared handle: SQLite serialises writers anyway.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, apperr.Storage("index: ping", err)
	}
	db := &DB{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// ensureSchema creates the schema exactly once. Concurrent first callers share
// a single execution and all wait for its result. A failed attempt leaves the
// DB uninitialised so the next caller retries.
func (db *DB) ensureSchema(ctx context.Context) error {
	if db.ready.Load() {
		return nil
	}
	_, err, _ := db.initGroup.Do("schema", func() (interface{}, error) {
		if db.ready.Load() {
			return nil, nil
		}
		db.schemaRuns.Add(1)
		if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
			return nil, apperr.Storage("index: apply schema", err)
		}
		db.ready.Store(true)
		return nil, nil
	})
	return err
}
