// Package codec renders capture sessions as markdown documents and parses
// them back, including the legacy mode-based layout.
package codec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/starford/orbit/internal/models"
)

const (
	headerPrefix   = "# Session: "
	itemsHeading   = "## Captured Items"
	tagsPrefix     = "Tags:"
	startedPrefix  = "Started:"
	endedPrefix    = "Ended:"
	itemPrefix     = "### "
	fallbackTitle  = "Focus Session"
	fallbackIdent  = "session"
	fileExt        = ".md"
	dateLayout     = "2006-01-02 15:04"
	dayLayout      = "2006-01-02"
	timeLayout     = "15:04"
	fileDateLayout = "2006-01-02-1504"
)

var (
	itemHeaderRe = regexp.MustCompile(`^### (\S+) - @(todo|next|note|link)`)
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

	itemNamespace = uuid.MustParse("5b0c6d3e-2f41-4c8e-9a57-3c1d0e7f9a10")

	newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// ErrInvalidDocument is matched by every structural parse failure.
var ErrInvalidDocument = errors.New("invalid document")

// InvalidDocumentError reports why a document has no usable session header.
type InvalidDocumentError struct {
	Reason string
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("invalid document: %s", e.Reason)
}

// Is makes errors.Is(err, ErrInvalidDocument) hold.
func (e *InvalidDocumentError) Is(target error) bool {
	return target == ErrInvalidDocument
}

func invalid(reason string) error {
	return &InvalidDocumentError{Reason: reason}
}

// Codec renders and parses session documents. All timestamps are formatted
// and parsed in its location.
type Codec struct {
	loc *time.Location
}

// New returns a codec working in loc; nil means time.Local.
func New(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.Local
	}
	return &Codec{loc: loc}
}

// Location returns the codec's time zone.
func (c *Codec) Location() *time.Location {
	return c.loc
}

var std = New(nil)

// Render renders s with the local-time codec.
func Render(s *models.Session) string { return std.Render(s) }

// Parse parses doc with the local-time codec.
func Parse(doc string) (*models.Session, error) { return std.Parse(doc) }

// FileName returns the canonical file name of s in local time.
func FileName(s *models.Session) string { return std.FileName(s) }

// Render produces the canonical document for s. The output depends only on
// the session value: items are ordered by timestamp, trailing whitespace is
// trimmed and exactly one newline ends the document.
func (c *Codec) Render(s *models.Session) string {
	lines := []string{
		headerPrefix + singleLine(s.DisplayTitle()) + " - " + c.formatDate(s.StartedAt),
		metadataLine(tagsPrefix, strings.Join(s.TagNames(), ", ")),
		metadataLine(startedPrefix, c.formatDate(s.StartedAt)),
	}
	if s.EndedAt != nil {
		lines = append(lines, metadataLine(endedPrefix, c.formatDate(*s.EndedAt)))
	}
	lines = append(lines, "", itemsHeading, "")

	for _, item := range s.SortedItems() {
		lines = append(lines,
			itemPrefix+item.Timestamp.In(c.loc).Format(timeLayout)+" - "+item.Type.Prefix(),
			item.Content,
			"",
		)
	}

	return strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace) + "\n"
}

// FileName returns "<startedAt as yyyy-MM-dd-HHmm>-<identity>.md". Bytes of
// the identity that are unsafe in file names are replaced with '-'.
func (c *Codec) FileName(s *models.Session) string {
	ident := s.Identity
	if ident == "" {
		ident = fallbackIdent
	}
	ident = unsafeNameRe.ReplaceAllString(ident, "-")
	return s.StartedAt.In(c.loc).Format(fileDateLayout) + "-" + ident + fileExt
}

// ParseFileName splits a canonical file name into its start time and
// identity.
func (c *Codec) ParseFileName(name string) (time.Time, string, bool) {
	stem, ok := strings.CutSuffix(name, fileExt)
	if !ok || len(stem) < len(fileDateLayout)+2 || stem[len(fileDateLayout)] != '-' {
		return time.Time{}, "", false
	}
	started, err := time.ParseInLocation(fileDateLayout, stem[:len(fileDateLayout)], c.loc)
	if err != nil {
		return time.Time{}, "", false
	}
	return started, stem[len(fileDateLayout)+1:], true
}

// ParseFile parses a document read from the file name. The identity is taken
// from a canonical file name when there is one.
func (c *Codec) ParseFile(name, doc string) (*models.Session, error) {
	s, err := c.Parse(doc)
	if err != nil {
		return nil, err
	}
	if _, ident, ok := c.ParseFileName(name); ok {
		s.Identity = ident
	}
	return s, nil
}

func (c *Codec) formatDate(t time.Time) string {
	return t.In(c.loc).Format(dateLayout)
}

func (c *Codec) parseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), c.loc)
	return t, err == nil
}

func metadataLine(prefix, value string) string {
	if value == "" {
		return prefix
	}
	return prefix + " " + value
}

func singleLine(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' }), " ")
}
