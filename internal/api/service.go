package api

import (
	"context"
	"io"

	"github.com/starford/merely/internal/models"
	"github.com/starford/merely/internal/reconciler"
)

// NoteService is the note lifecycle the handlers drive.
type NoteService interface {
	List(ctx context.Context) ([]models.Note, error)
	Create(ctx context.Context, content []byte) (*models.Note, error)
	Get(ctx context.Context, id int64) (*reconciler.Document, error)
	Open(ctx context.Context, filePath string) (*reconciler.Document, error)
	Save(ctx context.Context, filePath string, content []byte) (*models.Note, error)
	Rename(ctx context.Context, oldPath, newPath string) (*models.Note, error)
	Delete(ctx context.Context, filePath string) error
	Import(ctx context.Context, name string, src io.Reader) (*models.Note, error)
}

var _ NoteService = (*reconciler.Reconciler)(nil)
