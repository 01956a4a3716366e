//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			path UNINDEXED,
			item_id UNINDEXED,
			title,
			content,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, itemID, title, content string, tags []string) error {
	_, err := tx.Exec(`INSERT INTO items_fts (path, item_id, title, content, tags) VALUES (?, ?, ?, ?, ?)`,
		path, itemID, title, content, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM items_fts WHERE path = ?`, path)
}

// SearchItems runs an FTS5 match and returns items ranked by relevance with
// highlighted snippets.
func (db *DB) SearchItems(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.Query(`
		SELECT i.path, s.title, i.item_id, i.type, i.content, i.timestamp,
		       snippet(items_fts, 3, '<b>', '</b>', '...', 32)
		FROM items_fts
		JOIN items i ON i.path = items_fts.path AND i.item_id = items_fts.item_id
		JOIN sessions s ON s.path = i.path
		WHERE items_fts MATCH ?
		ORDER BY items_fts.rank
		LIMIT ?
	`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.ItemID, &r.Type, &r.Content, &r.Timestamp, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ftsQuery quotes each term so punctuation in user input is not read as
// FTS5 syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
