// Package models defines the domain types for Orbit capture sessions.
package models

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is used for sessions without a title and for every session
// loaded from the legacy layout.
const DefaultTitle = "Focus"

// ItemType is the kind of a captured item.
type ItemType string

const (
	ItemTodo ItemType = "todo"
	ItemNext ItemType = "next"
	ItemNote ItemType = "note"
	ItemLink ItemType = "link"
)

// ItemTypes lists every item type in display order.
var ItemTypes = []ItemType{ItemTodo, ItemNext, ItemNote, ItemLink}

// Prefix returns the "@type" marker used in capture input and item headers.
func (t ItemType) Prefix() string {
	return "@" + string(t)
}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTodo, ItemNext, ItemNote, ItemLink:
		return true
	}
	return false
}

// CapturedItem is one timestamped, typed note entry within a session.
type CapturedItem struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Type      ItemType  `json:"type"`
}

// Session is a capture session: its metadata and items.
type Session struct {
	// Identity is the stable suffix of the session's file name.
	Identity  string         `json:"identity"`
	Title     string         `json:"title"`
	Tags      []Tag          `json:"tags"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Items     []CapturedItem `json:"items"`
}

// DisplayTitle returns the trimmed title, or DefaultTitle when it is empty.
func (s *Session) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return DefaultTitle
}

// TagNames returns the names of the session's tags in order.
func (s *Session) TagNames() []string {
	out := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		out[i] = t.Name
	}
	return out
}

// HasTag reports whether the session carries a tag matching name after
// normalisation.
func (s *Session) HasTag(name string) bool {
	n := NormalizeTagName(name)
	for _, t := range s.Tags {
		if t.NormalizedName() == n {
			return true
		}
	}
	return false
}

// SortedItems returns a copy of the items in ascending timestamp order. Items
// with equal timestamps keep their relative order.
func (s *Session) SortedItems() []CapturedItem {
	out := make([]CapturedItem, len(s.Items))
	copy(out, s.Items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Item returns the item with the given id.
func (s *Session) Item(id uuid.UUID) (*CapturedItem, bool) {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.Tags = slices.Clone(s.Tags)
	c.Items = slices.Clone(s.Items)
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// identityNamespace seeds identities derived from session content.
var identityNamespace = uuid.MustParse("5d1c0b8e-3f0a-4e61-9a7e-0b7c2f9d4a10")

// NewIdentity returns a short random identity for a new session file.
func NewIdentity() string {
	return shortID(uuid.New())
}

// DerivedIdentity returns a short identity computed from a session's start
// time and title. The same inputs always give the same identity.
func DerivedIdentity(started time.Time, title string) string {
	return shortID(uuid.NewSHA1(identityNamespace, []byte(fmt.Sprintf("%d/%s", started.Unix(), title))))
}

func shortID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

// FileMetadata is a lightweight representation returned by vault listings.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
