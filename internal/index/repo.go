package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/starford/orbit/internal/models"
)

const defaultLimit = 50

// SessionRow is one indexed session.
type SessionRow struct {
	Path      string     `json:"path"`
	Identity  string     `json:"identity"`
	Title     string     `json:"title"`
	Tags      []string   `json:"tags"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	ItemCount int        `json:"item_count"`
	Checksum  string     `json:"checksum"`
}

// ItemRow is one indexed captured item with its session's title.
type ItemRow struct {
	Path      string          `json:"path"`
	Title     string          `json:"session_title"`
	ItemID    string          `json:"item_id"`
	Type      models.ItemType `json:"type"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// SearchResult is one matching item with a highlighted excerpt.
type SearchResult struct {
	ItemRow
	Snippet string `json:"snippet"`
}

// ListQuery filters and pages ListSessions.
type ListQuery struct {
	Tag    string
	Limit  int
	Offset int
}

// UpsertSession replaces the session row and all of its items.
func (db *DB) UpsertSession(path, checksum string, s *models.Session) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	tagsJSON, _ := json.Marshal(normalizedTags(s))

	var ended any
	if s.EndedAt != nil {
		ended = s.EndedAt.UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO sessions (path, identity, title, tags, started_at, ended_at, item_count, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			identity   = excluded.identity,
			title      = excluded.title,
			tags       = excluded.tags,
			started_at = excluded.started_at,
			ended_at   = excluded.ended_at,
			item_count = excluded.item_count,
			checksum   = excluded.checksum
	`, path, s.Identity, s.DisplayTitle(), string(tagsJSON), s.StartedAt.UTC(), ended, len(s.Items), checksum)
	if err != nil {
		return fmt.Errorf("index: upsert session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM items WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: clear items: %w", err)
	}
	ftsDelete(tx, path)

	if len(s.Items) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO items (path, position, item_id, type, content, timestamp) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare item insert: %w", err)
		}
		defer stmt.Close()

		for i, it := range s.Items {
			if _, err := stmt.Exec(path, i, it.ID.String(), string(it.Type), it.Content, it.Timestamp.UTC()); err != nil {
				return fmt.Errorf("index: insert item: %w", err)
			}
			if err := ftsUpsert(tx, path, it.ID.String(), s.DisplayTitle(), it.Content, s.TagNames()); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteSession removes a session and its items.
func (db *DB) DeleteSession(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM items WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM sessions WHERE path = ?`, path)

	return tx.Commit()
}

// ListSessions returns sessions newest first with the total match count.
// A non-empty Tag keeps only sessions carrying it.
func (db *DB) ListSessions(q ListQuery) ([]SessionRow, int, error) {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	where := ""
	var args []any
	if tag := models.NormalizeTagName(q.Tag); tag != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(sessions.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM sessions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count sessions: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, identity, title, tags, started_at, ended_at, item_count, checksum
		FROM sessions `+where+`
		ORDER BY started_at DESC, path
		LIMIT ? OFFSET ?
	`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionRow{}
	for rows.Next() {
		var (
			r     SessionRow
			tags  string
			ended sql.NullTime
		)
		if err := rows.Scan(&r.Path, &r.Identity, &r.Title, &tags, &r.StartedAt, &ended, &r.ItemCount, &r.Checksum); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tags), &r.Tags)
		if ended.Valid {
			t := ended.Time
			r.EndedAt = &t
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// ItemsByType returns items of one type, newest first.
func (db *DB) ItemsByType(typ models.ItemType, limit int) ([]ItemRow, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.Query(`
		SELECT i.path, s.title, i.item_id, i.type, i.content, i.timestamp
		FROM items i JOIN sessions s ON s.path = i.path
		WHERE i.type = ?
		ORDER BY i.timestamp DESC, i.path, i.position
		LIMIT ?
	`, string(typ), limit)
	if err != nil {
		return nil, fmt.Errorf("index: items by type: %w", err)
	}
	defer rows.Close()

	out := []ItemRow{}
	for rows.Next() {
		var r ItemRow
		if err := rows.Scan(&r.Path, &r.Title, &r.ItemID, &r.Type, &r.Content, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllChecksums maps every indexed path to its stored checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func normalizedTags(s *models.Session) []string {
	out := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		out = append(out, t.NormalizedName())
	}
	return out
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
