package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc NoteService, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Board.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)

	// Files by vault-relative path.
	r.Get("/files/*", h.OpenFile)
	r.Put("/files/*", h.SaveFile)
	r.Delete("/files/*", h.DeleteFile)
	r.Post("/rename", h.Rename)
	r.Post("/import", h.Import)

	// Editor helpers.
	r.Post("/format", h.Format)
	r.Post("/preview", h.Preview)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
