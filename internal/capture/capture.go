// Package capture turns raw quick-capture input into captured items.
package capture

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/orbit/internal/models"
)

// Parse reads an optional "@todo", "@next", "@note" or "@link" prefix from
// raw and returns the item it describes. Items without a prefix are notes.
// ok is false when raw, or the content after the prefix, is blank.
func Parse(raw string, timestamp time.Time, id uuid.UUID) (item models.CapturedItem, ok bool) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return models.CapturedItem{}, false
	}

	typ := models.ItemNote
	for _, t := range models.ItemTypes {
		if rest, found := strings.CutPrefix(input, t.Prefix()); found {
			typ = t
			input = rest
			break
		}
	}

	content := strings.TrimSpace(input)
	if content == "" {
		return models.CapturedItem{}, false
	}
	return models.CapturedItem{
		ID:        id,
		Content:   content,
		Timestamp: timestamp,
		Type:      typ,
	}, true
}
