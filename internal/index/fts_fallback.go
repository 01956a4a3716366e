//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// Without FTS5 search runs LIKE over items.content.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// SearchItems matches query as a case-insensitive substring of item content,
// the session title or its tags. The snippet is the start of the content.
func (db *DB) SearchItems(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`
		SELECT i.path, s.title, i.item_id, i.type, i.content, i.timestamp, substr(i.content, 1, 200)
		FROM items i JOIN sessions s ON s.path = i.path
		WHERE i.content LIKE ? ESCAPE '\' OR s.title LIKE ? ESCAPE '\' OR s.tags LIKE ? ESCAPE '\'
		ORDER BY i.timestamp DESC
		LIMIT ?
	`, like, like, like, limit)
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
