// Package reconciler keeps note files and their index records consistent.
//
// Files are the source of truth for content; the index is a derived cache of
// metadata. Every mutation touches the file system first and the index
// second, so a failed file step never leaves the index ahead of the disk.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/starford/merely/internal/apperr"
	"github.com/starford/merely/internal/filename"
	"github.com/starford/merely/internal/index"
	"github.com/starford/merely/internal/models"
	"github.com/starford/merely/internal/parser"
	"github.com/starford/merely/internal/storage"
)

// Event kinds passed to the notifier.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventRenamed = "renamed"
	EventDeleted = "deleted"
)

// maxImportSize bounds content copied in by Import.
const maxImportSize = 10 << 20

// Event describes a completed mutation.
type Event struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	OldPath string `json:"old_path,omitempty"`
}

// Document is a note's content together with its index record.
type Document struct {
	Note    models.Note `json:"note"`
	Content string      `json:"content"`
}

// Reconciler coordinates storage and index operations.
type Reconciler struct {
	store  storage.Provider
	idx    index.NoteIndex
	logger *slog.Logger
	notify func(Event)
	now    func() time.Time

	// mu orders index lookup-then-write sections against Rebuild, which may
	// run from the watcher goroutine.
	mu sync.Mutex
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for degraded paths.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithNotifier registers fn to be called after each successful mutation.
func WithNotifier(fn func(Event)) Option {
	return func(r *Reconciler) { r.notify = fn }
}

// WithClock overrides the time source for synthesised records.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New creates a Reconciler over store and idx.
func New(store storage.Provider, idx index.NoteIndex, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		idx:    idx,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save writes content to filePath and then inserts or updates its record.
// When the write fails the index is not touched. When the index step fails
// the new content stays on disk and the error reports the stale index.
func (r *Reconciler) Save(ctx context.Context, filePath string, content []byte) (*models.Note, error) {
	p, err := cleanPath(filePath)
	if err != nil {
		return nil, err
	}
	if err := r.store.Write(p, content); err != nil {
		return nil, apperr.Storage("reconciler: save", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	note, err := r.idx.GetByPath(ctx, p)
	kind := EventUpdated
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		note = &models.Note{FilePath: p}
		kind = EventCreated
	case err != nil:
		return nil, fmt.Errorf("reconciler: save %s: file written, index stale: %w", p, err)
	}
	note.Title = parser.Title(content, p)
	if _, err := r.idx.Upsert(ctx, note); err != nil {
		return nil, fmt.Errorf("reconciler: save %s: file written, index stale: %w", p, err)
	}
	r.emit(Event{Kind: kind, Path: p})
	return note, nil
}

// Create writes content under a freshly generated note name.
func (r *Reconciler) Create(ctx context.Context, content []byte) (*models.Note, error) {
	return r.Save(ctx, filename.NewNoteName(), content)
}

// Rename moves oldPath to newPath (whose base name is sanitised) and points
// the old record at the new location. A missing record is not an error; the
// returned note then has ID 0.
func (r *Reconciler) Rename(ctx context.Context, oldPath, newPath string) (*models.Note, error) {
	from, err := cleanPath(oldPath)
	if err != nil {
		return nil, err
	}
	to, err := r.safeTarget(newPath)
	if err != nil {
		return nil, err
	}
	if from == to {
		return r.lookup(ctx, from)
	}

	if err := r.store.Move(from, to); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reconciler: rename %s: %w", from, apperr.ErrNotFound)
		case errors.Is(err, apperr.ErrAlreadyExists):
			return nil, fmt.Errorf("reconciler: rename to %s: %w", to, err)
		}
		return nil, apperr.Storage("reconciler: rename", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	note, err := r.idx.GetByPath(ctx, from)
	if errors.Is(err, apperr.ErrNotFound) {
		r.logger.Debug("reconciler: renamed file has no record",
			slog.String("old_path", from), slog.String("path", to))
		r.emit(Event{Kind: EventRenamed, Path: to, OldPath: from})
		now := r.now().UTC()
		return &models.Note{Title: parser.Stem(to), FilePath: to, CreatedAt: now, UpdatedAt: now}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reconciler: rename %s: file moved, index stale: %w", from, err)
	}
	note.FilePath = to
	note.Title = parser.Stem(to)
	if _, err := r.idx.Upsert(ctx, note); err != nil {
		return nil, fmt.Errorf("reconciler: rename %s: file moved, index stale: %w", from, err)
	}
	r.emit(Event{Kind: EventRenamed, Path: to, OldPath: from})
	return note, nil
}

// OpenAs imports the external file at srcPath into the vault under its
// original base name.
func (r *Reconciler) OpenAs(ctx context.Context, srcPath string) (*models.Note, error) {
	f, err := os.Open(srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reconciler: open-as %s: %w", srcPath, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("reconciler: open-as", err)
	}
	defer f.Close()
	return r.Import(ctx, filepath.Base(srcPath), f)
}

// Import copies src into the vault root as name. A record is created only
// when none exists for the resulting path.
func (r *Reconciler) Import(ctx context.Context, name string, src io.Reader) (*models.Note, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxImportSize+1))
	if err != nil {
		return nil, apperr.Storage("reconciler: import read", err)
	}
	if len(data) > maxImportSize {
		return nil, apperr.Invalid("content", "import exceeds 10 MiB")
	}
	target, err := r.safeTarget(name)
	if err != nil {
		return nil, err
	}
	if err := r.store.Write(target, data); err != nil {
		return nil, apperr.Storage("reconciler: import", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	note, err := r.idx.GetByPath(ctx, target)
	if err == nil {
		return note, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("reconciler: import %s: file written, index stale: %w", target, err)
	}
	note = &models.Note{Title: parser.Title(data, target), FilePath: target}
	if _, err := r.idx.Upsert(ctx, note); err != nil {
		return nil, fmt.Errorf("reconciler: import %s: file written, index stale: %w", target, err)
	}
	r.emit(Event{Kind: EventCreated, Path: target})
	return note, nil
}

// Open reads the note at filePath. A missing file is apperr.ErrNotFound; a
// file without a record comes back with a transient record (ID 0).
func (r *Reconciler) Open(ctx context.Context, filePath string) (*Document, error) {
	p, err := cleanPath(filePath)
	if err != nil {
		return nil, err
	}
	data, err := r.read(p)
	if err != nil {
		return nil, err
	}
	note, err := r.idx.GetByPath(ctx, p)
	if errors.Is(err, apperr.ErrNotFound) {
		now := r.now().UTC()
		note = &models.Note{Title: parser.Title(data, p), FilePath: p, CreatedAt: now, UpdatedAt: now}
	} else if err != nil {
		return nil, err
	}
	return &Document{Note: *note, Content: string(data)}, nil
}

// Get reads the note with id. A record whose file is gone is reported as
// apperr.ErrNotFound.
func (r *Reconciler) Get(ctx context.Context, id int64) (*Document, error) {
	note, err := r.idx.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := r.read(note.FilePath)
	if err != nil {
		return nil, err
	}
	return &Document{Note: *note, Content: string(data)}, nil
}

// Delete removes the file (already gone is fine) and then every record that
// points at it. A failure to remove the file stops before the index.
func (r *Reconciler) Delete(ctx context.Context, filePath string) error {
	p, err := cleanPath(filePath)
	if err != nil {
		return err
	}
	if err := r.store.Delete(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperr.Storage("reconciler: delete", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		note, err := r.idx.GetByPath(ctx, p)
		if errors.Is(err, apperr.ErrNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("reconciler: delete %s: file removed, index stale: %w", p, err)
		}
		if err := r.idx.Delete(ctx, note.ID); err != nil {
			return fmt.Errorf("reconciler: delete %s: file removed, index stale: %w", p, err)
		}
	}
	r.emit(Event{Kind: EventDeleted, Path: p})
	return nil
}

// List returns the indexed notes, most recent first. When the index cannot
// be read it falls back to scanning the vault and returns transient records
// (ID 0, title from the file name, timestamps now) that are not persisted.
func (r *Reconciler) List(ctx context.Context) ([]models.Note, error) {
	notes, err := r.idx.ListAll(ctx)
	if err == nil {
		return notes, nil
	}
	r.logger.Warn("reconciler: index list failed, scanning vault", slog.String("error", err.Error()))

	metas, scanErr := r.store.List("")
	if scanErr != nil {
		return nil, errors.Join(err, apperr.Storage("reconciler: scan", scanErr))
	}
	now := r.now().UTC()
	out := make([]models.Note, 0, len(metas))
	for _, m := range metas {
		out = append(out, models.Note{
			Title:     parser.Stem(m.Path),
			FilePath:  m.Path,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out, nil
}

func (r *Reconciler) lookup(ctx context.Context, p string) (*models.Note, error) {
	if ok, err := r.store.Exists(p); err != nil {
		return nil, apperr.Storage("reconciler: stat", err)
	} else if !ok {
		return nil, fmt.Errorf("reconciler: %s: %w", p, apperr.ErrNotFound)
	}
	note, err := r.idx.GetByPath(ctx, p)
	if errors.Is(err, apperr.ErrNotFound) {
		now := r.now().UTC()
		return &models.Note{Title: parser.Stem(p), FilePath: p, CreatedAt: now, UpdatedAt: now}, nil
	}
	return note, err
}

func (r *Reconciler) read(p string) ([]byte, error) {
	data, err := r.store.Read(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reconciler: read %s: %w", p, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("reconciler: read", err)
	}
	return data, nil
}

// safeTarget cleans p and replaces its base name with a sanitised one that
// fits the platform path budget.
func (r *Reconciler) safeTarget(p string) (string, error) {
	p = strings.TrimSpace(filepath.ToSlash(p))
	dir, base := path.Split(p)
	dir = strings.TrimSuffix(dir, "/")
	absDir, err := r.store.Abs(dir)
	if err != nil {
		return "", apperr.Invalid("path", err.Error())
	}
	return cleanPath(path.Join(dir, filename.EnsureSafe(absDir, base, 0)))
}

func (r *Reconciler) emit(ev Event) {
	if r.notify != nil {
		r.notify(ev)
	}
}

// cleanPath normalises a vault-relative note path and requires the ".md"
// extension.
func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return "", apperr.Invalid("path", "empty")
	}
	if path.IsAbs(p) {
		return "", apperr.Invalid("path", "must be relative to the vault")
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", apperr.Invalid("path", "outside the vault")
	}
	if !strings.EqualFold(path.Ext(p), filename.Ext) {
		return "", apperr.Invalid("path", "must end with "+filename.Ext)
	}
	return p, nil
}
