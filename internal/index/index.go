package index

import (
	"context"

	"github.com/starford/merely/internal/models"
)

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type NoteIndex interface {
	// ListAll returns every record, most recently updated first.
	ListAll(ctx context.Context) ([]models.Note, error)
	// GetByID returns apperr.ErrNotFound when no record has id.
	GetByID(ctx context.Context, id int64) (*models.Note, error)
	// GetByPath returns the record for filePath or apperr.ErrNotFound.
	GetByPath(ctx context.Context, filePath string) (*models.Note, error)
	// Upsert inserts n when it is new, otherwise updates it, and returns its id.
	Upsert(ctx context.Context, n *models.Note) (int64, error)
	// Delete removes the record with id. A missing record is not an error.
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
