package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/merely/internal/apperr"
	"github.com/starford/merely/internal/format"
	"github.com/starford/merely/internal/render"
	"github.com/starford/merely/internal/textbuf"
)

// Handler holds API route handlers.
type Handler struct {
	svc NoteService
}

// NewHandler creates a new Handler.
func NewHandler(svc NoteService) *Handler {
	return &Handler{svc: svc}
}

// filePath extracts the note path from the URL (everything after /files/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /notes.
//
//	@Summary		List notes, most recently updated first
//	@Tags			notes
//	@Produce		json
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// CreateNote handles POST /notes. The file name is generated.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	false	"Initial content"
//	@Success		201		{object}	models.Note
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.Create(r.Context(), []byte(req.Content))
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// GetNote handles GET /notes/{id}.
//
//	@Summary		Get a note and its content by record id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	reconciler.Document
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("id must be a positive integer"))
		return
	}
	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err, slog.Int64("id", id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// OpenFile handles GET /files/*.
//
//	@Summary		Open a note by vault-relative path
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	reconciler.Document
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) OpenFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.Open(r.Context(), path)
	if err != nil {
		writeError(w, "open file", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SaveFile handles PUT /files/*. The file is written first, then indexed.
//
//	@Summary		Save note content at a path
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Note path"
//	@Param			body	body		ContentRequest	true	"Content"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [put]
func (h *Handler) SaveFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.Save(r.Context(), path, []byte(req.Content))
	if err != nil {
		writeError(w, "save file", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteFile handles DELETE /files/*.
//
//	@Summary		Delete a note file and its record
//	@Tags			files
//	@Param			path	path	string	true	"Note path"
//	@Success		204		"Note deleted"
//	@Security		BearerAuth
//	@Router			/files/{path} [delete]
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.Delete(r.Context(), path); err != nil {
		writeError(w, "delete file", err, slog.String("path", path))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rename handles POST /rename.
//
//	@Summary		Rename or move a note
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenameRequest	true	"Source and target"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rename [post]
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.Rename(r.Context(), req.From, req.To)
	if err != nil {
		writeError(w, "rename", err, slog.String("from", req.From), slog.String("to", req.To))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Format handles POST /format.
//
//	@Summary		Apply a Markdown formatting operation to a buffer
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FormatRequest	true	"Buffer and operation"
//	@Success		200		{object}	FormatResponse
//	@Failure		400		{object}	errResponse
//	@Router			/format [post]
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	buf := textbuf.New(req.Text, req.Cursor, req.SelectionLength)
	out, err := format.Apply(buf, format.Request{
		Op:    req.Op,
		Level: req.Level,
		Text:  req.DisplayText,
		URL:   req.URL,
	})
	resp := FormatResponse{
		Text:            out.Text(),
		Cursor:          out.Cursor(),
		SelectionLength: out.SelectionLength(),
		Applied:         err == nil,
	}
	if err != nil {
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) {
			writeError(w, "format", err)
			return
		}
		resp.Error = ve.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Preview handles POST /preview.
//
//	@Summary		Render Markdown to HTML
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreviewRequest	true	"Markdown"
//	@Success		200		{object}	PreviewResponse
//	@Router			/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{HTML: render.HTML(req.Markdown)})
}
