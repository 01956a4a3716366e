package api

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/orbit/internal/index"
	"github.com/starford/orbit/internal/mdedit"
	"github.com/starford/orbit/internal/models"
)

var identityRe = regexp.MustCompile(`^[A-Za-z0-9._-]*$`)

// maxBufferBytes bounds editor buffers and preview sources.
const maxBufferBytes = 1 << 20

var bufferRule = validation.Length(0, maxBufferBytes)

// selectionRule rejects negative offsets. The editing core would clamp them,
// but from a client they indicate a bug.
var selectionRule = validation.By(func(v any) error {
	if r, ok := v.(mdedit.Range); ok && (r.Start < 0 || r.Length < 0) {
		return errors.New("start and length must not be negative")
	}
	return nil
})

// SessionRequest is the body of POST /sessions and PUT /sessions/{name}.
type SessionRequest struct {
	Identity  string        `json:"identity"`
	Title     string        `json:"title"`
	Tags      []string      `json:"tags"`
	StartedAt *time.Time    `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at"`
	Items     []ItemRequest `json:"items"`
}

// Validate implements validation.Validatable.
func (r *SessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identity, validation.Length(0, 64), validation.Match(identityRe)),
		validation.Field(&r.Title, validation.Length(0, 200)),
		validation.Field(&r.EndedAt, validation.By(func(any) error {
			if r.EndedAt != nil && r.StartedAt != nil && r.EndedAt.Before(*r.StartedAt) {
				return errors.New("must not be before started_at")
			}
			return nil
		})),
		validation.Field(&r.Items),
	)
}

func (r *SessionRequest) toSession() *models.Session {
	s := &models.Session{
		Identity: r.Identity,
		Title:    r.Title,
		Tags:     models.ResolveTags(r.Tags),
		EndedAt:  r.EndedAt,
		Items:    make([]models.CapturedItem, 0, len(r.Items)),
	}
	if r.StartedAt != nil {
		s.StartedAt = *r.StartedAt
	}
	for _, it := range r.Items {
		s.Items = append(s.Items, it.toItem())
	}
	return s
}

// ItemRequest is one captured item inside a SessionRequest.
type ItemRequest struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate implements validation.Validatable.
func (r ItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(itemTypeNames()...)),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Timestamp, validation.Required),
	)
}

func (r ItemRequest) toItem() models.CapturedItem {
	return models.CapturedItem{
		ID:        uuid.New(),
		Type:      models.ItemType(r.Type),
		Content:   r.Content,
		Timestamp: r.Timestamp,
	}
}

func itemTypeNames() []any {
	out := make([]any, len(models.ItemTypes))
	for i, t := range models.ItemTypes {
		out[i] = string(t)
	}
	return out
}

// CaptureRequest is the body of POST /sessions/{name}/items.
type CaptureRequest struct {
	Input string `json:"input" example:"@todo test cache invalidation"`
}

// Validate implements validation.Validatable.
func (r *CaptureRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Input, validation.Required),
	)
}

// ImportRequest is the body of POST /import.
type ImportRequest struct {
	Name    string `json:"name" example:"2024-01-15-1430-coding.md"`
	Content string `json:"content"`
}

// Validate implements validation.Validatable.
func (r *ImportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
	)
}

// SessionListResponse wraps a page of indexed sessions.
type SessionListResponse struct {
	Sessions []index.SessionRow `json:"sessions"`
	Total    int                `json:"total"`
}

// FormatRequest is the body of POST /editor/format.
type FormatRequest struct {
	Action    string       `json:"action" example:"bold"`
	Text      string       `json:"text"`
	Selection mdedit.Range `json:"selection"`
}

// Validate implements validation.Validatable.
func (r *FormatRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Action, validation.Required, validation.By(func(any) error {
			if _, ok := mdedit.ParseAction(r.Action); !ok {
				return errors.New("unknown action")
			}
			return nil
		})),
		validation.Field(&r.Text, bufferRule),
		validation.Field(&r.Selection, selectionRule),
	)
}

// AcceptLineRequest is the body of POST /editor/accept-line.
type AcceptLineRequest struct {
	Text      string       `json:"text"`
	Selection mdedit.Range `json:"selection"`
	Shift     bool         `json:"shift"`
}

// Validate implements validation.Validatable.
func (r *AcceptLineRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, bufferRule),
		validation.Field(&r.Selection, selectionRule),
	)
}

// TasksRequest is the body of POST /editor/tasks.
type TasksRequest struct {
	Text string `json:"text"`
}

// Validate implements validation.Validatable.
func (r *TasksRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, bufferRule),
	)
}

// ToggleRequest is the body of POST /editor/tasks/toggle.
type ToggleRequest struct {
	Text string `json:"text"`
	Line int    `json:"line"`
}

// Validate implements validation.Validatable.
func (r *ToggleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, bufferRule),
		validation.Field(&r.Line, validation.Min(0)),
	)
}

// PreviewRequest is the body of POST /preview.
type PreviewRequest struct {
	Markdown string `json:"markdown"`
}

// Validate implements validation.Validatable.
func (r *PreviewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Markdown, bufferRule),
	)
}

// EditResponse is a rewritten buffer with its new selection.
type EditResponse struct {
	Text      string       `json:"text"`
	Selection mdedit.Range `json:"selection"`
}

// AcceptLineResponse tells the editor whether the keystroke was handled.
type AcceptLineResponse struct {
	Handled bool `json:"handled"`
	mdedit.Edit
}

// ActionInfo describes one format action for toolbars.
type ActionInfo struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Inline bool   `json:"inline"`
}
