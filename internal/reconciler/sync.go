package reconciler

import (
	"context"
	"log/slog"

	"github.com/starford/merely/internal/apperr"
	"github.com/starford/merely/internal/filename"
	"github.com/starford/merely/internal/models"
	"github.com/starford/merely/internal/parser"
)

// WelcomeContent is written by SeedWelcome into an empty board.
const WelcomeContent = "# Welcome\nCreate notes using the New Note button.\n"

// RebuildStats summarises a Rebuild pass.
type RebuildStats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Rebuild walks the vault and brings the index up to date:
//   - files without a record are indexed
//   - records whose file is gone are deleted
//
// Per-file failures are logged and skipped; listing failures are returned.
func (r *Reconciler) Rebuild(ctx context.Context) (RebuildStats, error) {
	var stats RebuildStats

	r.mu.Lock()
	defer r.mu.Unlock()

	metas, err := r.store.List("")
	if err != nil {
		return stats, apperr.Storage("reconciler: rebuild scan", err)
	}
	notes, err := r.idx.ListAll(ctx)
	if err != nil {
		return stats, err
	}

	indexed := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		indexed[n.FilePath] = struct{}{}
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if _, ok := indexed[m.Path]; ok {
			continue
		}
		data, err := r.store.Read(m.Path)
		if err != nil {
			r.logger.Warn("rebuild: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		note := &models.Note{Title: parser.Title(data, m.Path), FilePath: m.Path, CreatedAt: m.UpdatedAt}
		if _, err := r.idx.Upsert(ctx, note); err != nil {
			r.logger.Warn("rebuild: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Added++
		r.logger.Debug("rebuild: indexed", slog.String("path", m.Path))
		r.emit(Event{Kind: EventCreated, Path: m.Path})
	}

	for _, n := range notes {
		if _, ok := disk[n.FilePath]; ok {
			continue
		}
		if err := r.idx.Delete(ctx, n.ID); err != nil {
			r.logger.Warn("rebuild: delete failed", slog.String("path", n.FilePath), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		r.logger.Debug("rebuild: removed stale", slog.String("path", n.FilePath))
		r.emit(Event{Kind: EventDeleted, Path: n.FilePath})
	}

	return stats, nil
}

// SeedWelcome writes the welcome note when the index holds no notes. It
// reports whether a note was created.
func (r *Reconciler) SeedWelcome(ctx context.Context) (bool, error) {
	notes, err := r.idx.ListAll(ctx)
	if err != nil {
		return false, err
	}
	if len(notes) > 0 {
		return false, nil
	}
	if _, err := r.Save(ctx, filename.NewNoteName(), []byte(WelcomeContent)); err != nil {
		return false, err
	}
	return true, nil
}
