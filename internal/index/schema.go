// Package index keeps a SQLite projection of the session vault for listing
// and searching captured items, with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	path       TEXT PRIMARY KEY,
	identity   TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	started_at DATETIME NOT NULL,
	ended_at   DATETIME,
	item_count INTEGER NOT NULL DEFAULT 0,
	checksum   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS items (
	path      TEXT NOT NULL REFERENCES sessions(path) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	item_id   TEXT NOT NULL,
	type      TEXT NOT NULL,
	content   TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	PRIMARY KEY (path, position)
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
CREATE INDEX IF NOT EXISTS idx_items_type ON items(type, timestamp);
`

// DB wraps a sql.DB with index operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
