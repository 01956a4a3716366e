package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/orbit/internal/preview"
	"github.com/starford/orbit/internal/sessionservice"
)

// NewRouter builds the API routes. sseHandler, if non-nil, is mounted at
// GET /events behind the same auth.
func NewRouter(svc *sessionservice.Service, pv *preview.Renderer, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, pv)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Post("/", h.CreateSession)
		r.Get("/closest", h.ClosestSession)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Put("/", h.UpdateSession)
			r.Delete("/", h.DeleteSession)
			r.Get("/markdown", h.GetSessionMarkdown)
			r.Post("/end", h.EndSession)
			r.Post("/items", h.CaptureItem)
			r.Post("/items/{id}/tasks/{line}/toggle", h.ToggleItemTask)
		})
	})

	r.Post("/import", h.Import)
	r.Get("/search", h.Search)
	r.Get("/items", h.Items)

	r.Route("/editor", func(r chi.Router) {
		r.Get("/actions", h.Actions)
		r.Post("/format", h.Format)
		r.Post("/accept-line", h.AcceptLine)
		r.Post("/tasks", h.Tasks)
		r.Post("/tasks/toggle", h.ToggleTask)
	})

	r.Post("/preview", h.Preview)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
