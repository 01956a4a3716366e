package models

import (
	"strings"

	"github.com/google/uuid"
)

// tagNamespace seeds name-derived IDs for ad-hoc tags.
var tagNamespace = uuid.MustParse("a4f6e7e2-8ac7-4a10-81c1-fa7b43e3ce00")

// Tag labels a session. Two tags with the same normalised name are the same
// tag for matching purposes.
type Tag struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	BuiltIn bool      `json:"built_in"`
}

// NormalizedName is the trimmed, lower-cased name.
func (t Tag) NormalizedName() string {
	return NormalizeTagName(t.Name)
}

// NormalizeTagName trims and lower-cases a tag name.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BuiltInTags is the fixed table of tags shipped with the application.
var BuiltInTags = []Tag{
	{ID: uuid.MustParse("a4f6e7e2-8ac7-4a10-81c1-fa7b43e3ce01"), Name: "coding", BuiltIn: true},
	{ID: uuid.MustParse("a4f6e7e2-8ac7-4a10-81c1-fa7b43e3ce02"), Name: "researching", BuiltIn: true},
	{ID: uuid.MustParse("a4f6e7e2-8ac7-4a10-81c1-fa7b43e3ce03"), Name: "email", BuiltIn: true},
	{ID: uuid.MustParse("a4f6e7e2-8ac7-4a10-81c1-fa7b43e3ce04"), Name: "meeting", BuiltIn: true},
}

// LookupBuiltInTag finds a built-in tag by name, case-insensitively.
func LookupBuiltInTag(name string) (Tag, bool) {
	n := NormalizeTagName(name)
	for _, t := range BuiltInTags {
		if t.Name == n {
			return t, true
		}
	}
	return Tag{}, false
}

// ResolveTag returns the built-in tag for name, or an ad-hoc tag whose ID is
// derived from the normalised name. ok is false for a blank name.
func ResolveTag(name string) (tag Tag, ok bool) {
	n := NormalizeTagName(name)
	if n == "" {
		return Tag{}, false
	}
	if t, found := LookupBuiltInTag(n); found {
		return t, true
	}
	return Tag{ID: uuid.NewSHA1(tagNamespace, []byte(n)), Name: n}, true
}

// ResolveTags resolves names in order, dropping blanks and duplicates.
func ResolveTags(names []string) []Tag {
	seen := make(map[string]struct{}, len(names))
	out := make([]Tag, 0, len(names))
	for _, name := range names {
		t, ok := ResolveTag(name)
		if !ok {
			continue
		}
		if _, dup := seen[t.Name]; dup {
			continue
		}
		seen[t.Name] = struct{}{}
		out = append(out, t)
	}
	return out
}

// FocusMode is a historical session mode. Legacy documents name one in their
// header instead of listing tags.
type FocusMode string

const (
	ModeCoding      FocusMode = "coding"
	ModeResearching FocusMode = "researching"
	ModeEmail       FocusMode = "email"
	ModeMeeting     FocusMode = "meeting"
)

// FocusModes lists every mode.
var FocusModes = []FocusMode{ModeCoding, ModeResearching, ModeEmail, ModeMeeting}

// DisplayName is the capitalised name written in legacy headers.
func (m FocusMode) DisplayName() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

// BuiltInTag returns the built-in tag the mode maps to.
func (m FocusMode) BuiltInTag() (Tag, bool) {
	return LookupBuiltInTag(string(m))
}

// ModeFromDisplayName matches a legacy header mode name exactly.
func ModeFromDisplayName(name string) (FocusMode, bool) {
	for _, m := range FocusModes {
		if m.DisplayName() == name {
			return m, true
		}
	}
	return "", false
}
