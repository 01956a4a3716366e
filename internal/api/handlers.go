package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/orbit/internal/index"
	"github.com/starford/orbit/internal/models"
	"github.com/starford/orbit/internal/preview"
	"github.com/starford/orbit/internal/sessionservice"
)

// Handler holds the API route handlers.
type Handler struct {
	svc     *sessionservice.Service
	preview *preview.Renderer
}

// NewHandler creates a Handler.
func NewHandler(svc *sessionservice.Service, pv *preview.Renderer) *Handler {
	return &Handler{svc: svc, preview: pv}
}

// sessionPath decodes the {name} parameter. Clients escape slashes for
// sessions in subdirectories (archive%2F2024-01-15-1430-a.md).
func sessionPath(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func writeDetail(w http.ResponseWriter, status int, d *sessionservice.SessionDetail) {
	w.Header().Set("ETag", `"`+d.Checksum+`"`)
	writeJSON(w, status, d)
}

// ListSessions handles GET /api/sessions.
//
//	@Summary		List indexed sessions, newest first
//	@Tags			sessions
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Param			tag	query		string	false	"Only sessions with this tag"
//	@Success		200		{object}	SessionListResponse
//	@Security		BearerAuth
//	@Router			/sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	rows, total, err := h.svc.List(r.Context(), index.ListQuery{
		Tag:    r.URL.Query().Get("tag"),
		Limit:  intParam(r, "limit"),
		Offset: intParam(r, "offset"),
	})
	if err != nil {
		writeError(w, "list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: rows, Total: total})
}

// CreateSession handles POST /api/sessions.
//
//	@Summary		Create a session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SessionRequest	true	"Session to create"
//	@Success		201		{object}	sessionservice.SessionDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.Create(r.Context(), req.toSession())
	if err != nil {
		writeError(w, "create session", err)
		return
	}
	writeDetail(w, http.StatusCreated, d)
}

// GetSession handles GET /api/sessions/{name}.
//
//	@Summary		Get a parsed session
//	@Tags			sessions
//	@Produce		json
//	@Param			name	path		string	true	"Session file path, URL-escaped"
//	@Success		200		{object}	sessionservice.SessionDetail
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{name} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), sessionPath(r))
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	writeDetail(w, http.StatusOK, d)
}

// GetSessionMarkdown handles GET /api/sessions/{name}/markdown.
//
//	@Summary		Get the canonical Markdown of a session
//	@Tags			sessions
//	@Produce		plain
//	@Param			name	path		string	true	"Session file path, URL-escaped"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{name}/markdown [get]
func (h *Handler) GetSessionMarkdown(w http.ResponseWriter, r *http.Request) {
	md, err := h.svc.Markdown(r.Context(), sessionPath(r))
	if err != nil {
		writeError(w, "render session", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}

// UpdateSession handles PUT /api/sessions/{name}. An If-Match header guards
// against overwriting a newer file.
//
//	@Summary		Replace a session with optimistic concurrency
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Session file path, URL-escaped"
//	@Param			If-Match	header		string	false	"Current checksum"
//	@Param			body	body		SessionRequest	true	"New session content"
//	@Success		200		{object}	sessionservice.SessionDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{name} [put]
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.Update(r.Context(), sessionPath(r), req.toSession(), r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "update session", err)
		return
	}
	writeDetail(w, http.StatusOK, d)
}

// DeleteSession handles DELETE /api/sessions/{name}.
//
//	@Summary		Delete a session
//	@Tags			sessions
//	@Param			name	path		string	true	"Session file path, URL-escaped"
//	@Success		204
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{name} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), sessionPath(r)); err != nil {
		writeError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndSession handles POST /api/sessions/{name}/end.
//
//	@Summary		Mark a session as ended
//	@Tags			sessions
//	@Produce		json
//	@Param			name	path		string	true	"Session file path, URL-escaped"
//	@Success		200		{object}	sessionservice.SessionDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{name}/end [post]
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.End(r.Context(), sessionPath(r))
	if err != nil {
		writeError(w, "end session", err)
		return
	}
	writeDetail(w, http.StatusOK, d)
}

// CaptureItem handles POST /api/sessions/{name}/items.
//
//	@Summary		Capture an item into a session
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Session file path, URL-escaped"
//	@Param			body	body		CaptureRequest	true	"Capture input"
//	@Success		201		{object}	sessionservice.SessionDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{name}/items [post]
func (h *Handler) CaptureItem(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.Capture(r.Context(), sessionPath(r), req.Input)
	if err != nil {
		writeError(w, "capture item", err)
		return
	}
	writeDetail(w, http.StatusCreated, d)
}

// ToggleItemTask handles POST /api/sessions/{name}/items/{id}/tasks/{line}/toggle.
//
//	@Summary		Toggle a task line inside a captured item
//	@Tags			items
//	@Produce		json
//	@Param			name	path		string	true	"Session file path, URL-escaped"
//	@Param			id	path		string	true	"Item ID"
//	@Param			line	path		int	true	"Line index within the item"
//	@Success		200		{object}	sessionservice.SessionDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{name}/items/{id}/tasks/{line}/toggle [post]
func (h *Handler) ToggleItemTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid item id"))
		return
	}
	line, err := strconv.Atoi(chi.URLParam(r, "line"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid line"))
		return
	}
	d, err := h.svc.ToggleTask(r.Context(), sessionPath(r), id, line)
	if err != nil {
		writeError(w, "toggle task", err)
		return
	}
	writeDetail(w, http.StatusOK, d)
}

// ClosestSession handles GET /api/sessions/closest?at=RFC3339. Without at
// the current time is used.
//
//	@Summary		Get the session starting closest to a time
//	@Tags			sessions
//	@Produce		json
//	@Param			at	query		string	false	"RFC 3339 time, defaults to now"
//	@Success		200		{object}	sessionservice.SessionDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/closest [get]
func (h *Handler) ClosestSession(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("at must be an RFC 3339 time"))
			return
		}
		at = t
	}
	d, err := h.svc.Closest(r.Context(), at)
	if err != nil {
		writeError(w, "closest session", err)
		return
	}
	writeDetail(w, http.StatusOK, d)
}

// Import handles POST /api/import.
//
//	@Summary		Import a session document in either layout
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Document to import"
//	@Success		201		{object}	sessionservice.SessionDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.Import(r.Context(), req.Name, []byte(req.Content))
	if err != nil {
		writeError(w, "import session", err)
		return
	}
	writeDetail(w, http.StatusCreated, d)
}

// Search handles GET /api/search?q=.
//
//	@Summary		Full-text search over captured items
//	@Tags			items
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	map[string][]index.SearchResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, intParam(r, "limit"))
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Items handles GET /api/items?type=todo. open=true keeps only todos with
// work left.
//
//	@Summary		List captured items of one type
//	@Tags			items
//	@Produce		json
//	@Param			type	query		string	true	"Item type"	Enums(todo, next, note, link)
//	@Param			open	query		bool	false	"Only todos with unchecked tasks"
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	map[string][]index.ItemRow
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [get]
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := models.ItemType(q.Get("type"))

	var (
		items []index.ItemRow
		err   error
	)
	if typ == models.ItemTodo && q.Get("open") == "true" {
		items, err = h.svc.OpenTodos(r.Context(), intParam(r, "limit"))
	} else {
		items, err = h.svc.Items(r.Context(), typ, intParam(r, "limit"))
	}
	if err != nil {
		writeError(w, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
