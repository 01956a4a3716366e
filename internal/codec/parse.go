package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/orbit/internal/models"
)

// header is the first line of a document, split at its last " - ".
type header struct {
	label   string
	started time.Time
}

// Parse reads a session document. The current tagged layout is tried first,
// then the legacy mode layout. A document whose first line is not a session
// header, or whose header date is malformed, yields an *InvalidDocumentError.
func (c *Codec) Parse(doc string) (*models.Session, error) {
	doc = strings.TrimPrefix(newlines.Replace(doc), "\ufeff")
	lines := strings.Split(doc, "\n")

	h, err := c.parseHeader(lines[0])
	if err != nil {
		return nil, err
	}
	body := lines[1:]

	if s, ok := c.parseCurrent(h, body); ok {
		return s, nil
	}
	if s, ok := c.parseLegacy(h, body); ok {
		return s, nil
	}
	return nil, invalid("missing session header")
}

func (c *Codec) parseHeader(line string) (header, error) {
	rest, ok := strings.CutPrefix(line, headerPrefix)
	if !ok {
		return header{}, invalid("missing session header")
	}
	i := strings.LastIndex(rest, " - ")
	if i < 0 {
		return header{}, invalid("missing session header")
	}
	started, ok := c.parseDate(rest[i+3:])
	if !ok {
		return header{}, invalid("invalid session date")
	}
	return header{label: rest[:i], started: started}, nil
}

// parseCurrent recognises the tagged layout by its metadata block: at least
// one Tags/Started/Ended line before the first section heading.
func (c *Codec) parseCurrent(h header, body []string) (*models.Session, bool) {
	s := &models.Session{
		Title:     normalizeTitle(h.label),
		Tags:      []models.Tag{},
		StartedAt: h.started,
	}

	seen := false
	for _, line := range body {
		if strings.HasPrefix(line, "## ") || strings.HasPrefix(line, itemPrefix) {
			break
		}
		switch {
		case strings.HasPrefix(line, tagsPrefix):
			seen = true
			s.Tags = models.ResolveTags(strings.Split(strings.TrimPrefix(line, tagsPrefix), ","))
		case strings.HasPrefix(line, startedPrefix):
			seen = true
			if t, ok := c.parseDate(strings.TrimPrefix(line, startedPrefix)); ok {
				s.StartedAt = t
			}
		case strings.HasPrefix(line, endedPrefix):
			seen = true
			if t, ok := c.parseDate(strings.TrimPrefix(line, endedPrefix)); ok {
				s.EndedAt = &t
			}
		}
	}
	if !seen {
		return nil, false
	}

	s.Items = c.parseItems(s.StartedAt, body)
	return s, true
}

// parseLegacy recognises headers that name a focus mode instead of a title.
// The mode becomes the session's only tag and its identity.
func (c *Codec) parseLegacy(h header, body []string) (*models.Session, bool) {
	mode, ok := models.ModeFromDisplayName(strings.TrimSpace(h.label))
	if !ok {
		return nil, false
	}
	tags := []models.Tag{}
	if t, ok := mode.BuiltInTag(); ok {
		tags = append(tags, t)
	}
	return &models.Session{
		Identity:  string(mode),
		Title:     models.DefaultTitle,
		Tags:      tags,
		StartedAt: h.started,
		Items:     c.parseItems(h.started, body),
	}, true
}

// parseItems collects every "### HH:mm - @type" block. Content runs until the
// next "### " line; empty lines are dropped and blocks without content are
// skipped.
func (c *Codec) parseItems(started time.Time, lines []string) []models.CapturedItem {
	items := []models.CapturedItem{}
	for i := 0; i < len(lines); {
		m := itemHeaderRe.FindStringSubmatch(lines[i])
		i++
		if m == nil {
			continue
		}

		var content []string
		for ; i < len(lines) && !strings.HasPrefix(lines[i], itemPrefix); i++ {
			if lines[i] != "" {
				content = append(content, lines[i])
			}
		}
		text := strings.TrimSpace(strings.Join(content, "\n"))
		if text == "" {
			continue
		}

		typ := models.ItemType(m[2])
		items = append(items, models.CapturedItem{
			ID:        itemID(started, len(items), typ),
			Content:   text,
			Timestamp: c.itemTime(started, m[1]),
			Type:      typ,
		})
	}
	return items
}

// itemTime places an HH:mm clock time on the session's start day. An
// unreadable time falls back to the session start.
func (c *Codec) itemTime(started time.Time, clock string) time.Time {
	day := started.In(c.loc).Format(dayLayout)
	t, err := time.ParseInLocation(dateLayout, day+" "+clock, c.loc)
	if err != nil {
		return started
	}
	return t
}

// itemID derives a stable identifier from the item's position so repeated
// parses of one file agree.
func itemID(started time.Time, index int, typ models.ItemType) uuid.UUID {
	return uuid.NewSHA1(itemNamespace, fmt.Appendf(nil, "%d/%d/%s", started.Unix(), index, typ))
}

func normalizeTitle(label string) string {
	t := strings.TrimSpace(label)
	if t == "" || t == fallbackTitle {
		return models.DefaultTitle
	}
	return t
}
