//go:build !sqlite_fts5

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/orbit/internal/models"
)

func TestSearchItems_LikeMatchesTitleAndTags(t *testing.T) {
	db := testDB(t)
	s := session("s", "Quarterly planning", day(15, 9, 0), []string{"meeting"},
		item(models.ItemNote, "agenda", day(15, 9, 1)))
	require.NoError(t, db.UpsertSession("s.md", "1", s))

	byTitle, err := db.SearchItems("quarterly", 10)
	require.NoError(t, err)
	assert.Len(t, byTitle, 1)

	byTag, err := db.SearchItems("meeting", 10)
	require.NoError(t, err)
	assert.Len(t, byTag, 1)
}

func TestSearchItems_WildcardsAreLiteral(t *testing.T) {
	db := testDB(t)
	s := session("s", "T", day(15, 9, 0), nil,
		item(models.ItemNote, "100% done", day(15, 9, 1)),
		item(models.ItemNote, "1000 items", day(15, 9, 2)))
	require.NoError(t, db.UpsertSession("s.md", "1", s))

	results, err := db.SearchItems("100%", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% done", results[0].Content)
}
