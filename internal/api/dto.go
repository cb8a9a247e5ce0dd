package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/merely/internal/format"
	"github.com/starford/merely/internal/models"
)

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// ContentRequest is the body for creating or saving a note.
type ContentRequest struct {
	Content string `json:"content" example:"# Hello\nWorld"`
}

// RenameRequest moves a note to a new vault-relative path.
type RenameRequest struct {
	From string `json:"from" example:"note_1.md"`
	To   string `json:"to" example:"projects/plan.md"`
}

// Validate validates the rename request.
func (r RenameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required),
	)
}

// FormatRequest applies one formatting operation to an editor buffer.
// Cursor and SelectionLength count characters, not bytes.
type FormatRequest struct {
	Text            string `json:"text"`
	Cursor          int    `json:"cursor"`
	SelectionLength int    `json:"selection_length"`
	Op              string `json:"op" example:"bold"`
	Level           int    `json:"level,omitempty"`
	DisplayText     string `json:"display_text,omitempty"`
	URL             string `json:"url,omitempty"`
}

// Validate validates the format request.
func (r FormatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Op, validation.Required, validation.In(opValues()...)),
		validation.Field(&r.Cursor, validation.Min(0)),
		validation.Field(&r.SelectionLength, validation.Min(0)),
		validation.Field(&r.Level, validation.Min(0), validation.Max(format.MaxHeadingLevel)),
	)
}

// FormatResponse is the buffer after an operation. Applied is false when a
// link URL was rejected; the buffer is then unchanged and Error says why.
type FormatResponse struct {
	Text            string `json:"text"`
	Cursor          int    `json:"cursor"`
	SelectionLength int    `json:"selection_length"`
	Applied         bool   `json:"applied"`
	Error           string `json:"error,omitempty"`
}

// PreviewRequest carries Markdown to render.
type PreviewRequest struct {
	Markdown string `json:"markdown"`
}

// PreviewResponse carries the rendered HTML fragment.
type PreviewResponse struct {
	HTML string `json:"html"`
}

func opValues() []any {
	out := make([]any, len(format.Ops))
	for i, op := range format.Ops {
		out[i] = op
	}
	return out
}
