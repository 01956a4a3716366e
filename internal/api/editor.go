package api

import (
	"net/http"
	"slices"

	"github.com/starford/orbit/internal/mdedit"
)

// Actions handles GET /api/editor/actions.
//
//	@Summary		List format actions
//	@Tags			editor
//	@Produce		json
//	@Success		200		{object}	map[string][]ActionInfo
//	@Security		BearerAuth
//	@Router			/editor/actions [get]
func (h *Handler) Actions(w http.ResponseWriter, _ *http.Request) {
	out := []ActionInfo{}
	for _, a := range mdedit.Actions() {
		out = append(out, ActionInfo{Name: a.String(), Title: a.Title(), Inline: a.IsInline()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": out})
}

// Format handles POST /api/editor/format.
//
//	@Summary		Apply a format action to a buffer
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FormatRequest	true	"Buffer, selection and action"
//	@Success		200		{object}	EditResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/editor/format [post]
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	action, _ := mdedit.ParseAction(req.Action)
	text, sel := mdedit.Apply(action, req.Text, req.Selection)
	writeJSON(w, http.StatusOK, EditResponse{Text: text, Selection: sel})
}

// AcceptLine handles POST /api/editor/accept-line.
//
//	@Summary		Handle an accept-line keystroke
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AcceptLineRequest	true	"Buffer and caret"
//	@Success		200		{object}	AcceptLineResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/editor/accept-line [post]
func (h *Handler) AcceptLine(w http.ResponseWriter, r *http.Request) {
	var req AcceptLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	edit, handled := mdedit.HandleAcceptLine(req.Text, req.Selection, req.Shift)
	writeJSON(w, http.StatusOK, AcceptLineResponse{Handled: handled, Edit: edit})
}

// Tasks handles POST /api/editor/tasks.
//
//	@Summary		List the task lines of a buffer
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TasksRequest	true	"Buffer"
//	@Success		200		{object}	map[string][]mdedit.TaskLine
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/editor/tasks [post]
func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	var req TasksRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tasks := slices.Collect(mdedit.TaskLines(req.Text))
	if tasks == nil {
		tasks = []mdedit.TaskLine{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// ToggleTask handles POST /api/editor/tasks/toggle.
//
//	@Summary		Toggle one task line of a buffer
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ToggleRequest	true	"Buffer and line index"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/editor/tasks/toggle [post]
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": mdedit.Toggle(req.Text, req.Line)})
}

// Preview handles POST /api/preview.
//
//	@Summary		Render Markdown to HTML
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreviewRequest	true	"Markdown source"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": h.preview.HTML(req.Markdown)})
}
