//go:build sqlite_fts5

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/orbit/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM items_fts`).Scan(&count))
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	s := session("f", "FTS", day(15, 9, 0), []string{"search"},
		item(models.ItemNote, "Orbit captures powerful full-text notes.", day(15, 9, 1)))
	require.NoError(t, db.UpsertSession("fts.md", "f1", s))

	results, err := db.SearchItems("powerful", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fts.md", results[0].Path)
	assert.Contains(t, results[0].Snippet, "<b>powerful</b>")
}

func TestFTS5_DeleteRemovesEntries(t *testing.T) {
	db := testDB(t)
	s := session("g", "", day(15, 9, 0), nil, item(models.ItemNote, "ephemeral", day(15, 9, 1)))
	require.NoError(t, db.UpsertSession("gone.md", "1", s))
	require.NoError(t, db.DeleteSession("gone.md"))

	results, err := db.SearchItems("ephemeral", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFTS5_PunctuationIsQuoted(t *testing.T) {
	db := testDB(t)
	s := session("p", "", day(15, 9, 0), nil, item(models.ItemLink, "see example.com today", day(15, 9, 1)))
	require.NoError(t, db.UpsertSession("p.md", "1", s))

	_, err := db.SearchItems(`example.com "unbalanced`, 10)
	require.NoError(t, err)
}
