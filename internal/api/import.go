package api

import (
	"log/slog"
	"net/http"
	"path/filepath"
)

const maxUploadBytes = 10 << 20

// Import handles POST /import (multipart/form-data, field "file"). The file
// is copied into the vault root under its sanitised original name.
//
//	@Summary		Import an external Markdown file
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Markdown file"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	// Clients may send a full path; only the base name is kept.
	name := filepath.Base(filepath.FromSlash(header.Filename))

	note, err := h.svc.Import(r.Context(), name, file)
	if err != nil {
		writeError(w, "import", err, slog.String("filename", header.Filename))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
