package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/merely/internal/apperr"
	"github.com/starford/merely/internal/models"
)

// timeLayout is fixed-width so that updated_at orders lexically.
const timeLayout = "2006-01-02 15:04:05.000000000-07:00"

const noteColumns = `id, title, file_path, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (models.Note, error) {
	var n models.Note
	err := s.Scan(&n.ID, &n.Title, &n.FilePath, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ListAll returns every note ordered by updated_at descending.
func (db *DB) ListAll(ctx context.Context) ([]models.Note, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, apperr.Storage("index: list", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, apperr.Storage("index: list scan", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("index: list", err)
	}
	return out, nil
}

// GetByID returns the note with id.
func (db *DB) GetByID(ctx context.Context, id int64) (*models.Note, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return nil, err
	}
	row := db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	return db.one(row, fmt.Sprintf("id %d", id))
}

// GetByPath returns the most recently updated note stored under filePath.
func (db *DB) GetByPath(ctx context.Context, filePath string) (*models.Note, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return nil, err
	}
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE file_path = ? ORDER BY updated_at DESC, id DESC LIMIT 1`,
		filePath)
	return db.one(row, filePath)
}

func (db *DB) one(row *sql.Row, key string) (*models.Note, error) {
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("index: get", err)
	}
	return &n, nil
}

// Upsert writes n and refreshes n.UpdatedAt to the current time. A new note
// (ID 0) is inserted and receives its assigned ID; CreatedAt is set when
// zero. Updating an ID that no longer exists returns apperr.ErrNotFound.
func (db *DB) Upsert(ctx context.Context, n *models.Note) (int64, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return 0, err
	}
	now := db.now().UTC()

	if n.IsNew() {
		created := n.CreatedAt
		if created.IsZero() {
			created = now
		}
		res, err := db.conn.ExecContext(ctx, `
			INSERT INTO notes (title, file_path, created_at, updated_at)
			VALUES (?, ?, ?, ?)
		`, n.Title, n.FilePath, formatTime(created), formatTime(now))
		if err != nil {
			return 0, apperr.Storage("index: insert note", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, apperr.Storage("index: insert note id", err)
		}
		n.ID, n.CreatedAt, n.UpdatedAt = id, created.UTC(), now
		return id, nil
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE notes SET title = ?, file_path = ?, updated_at = ?
		WHERE id = ?
	`, n.Title, n.FilePath, formatTime(now), n.ID)
	if err != nil {
		return 0, apperr.Storage("index: update note", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Storage("index: update note", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("index: update note %d: %w", n.ID, apperr.ErrNotFound)
	}
	n.UpdatedAt = now
	return n.ID, nil
}

// Delete removes the note with id.
func (db *DB) Delete(ctx context.Context, id int64) error {
	if err := db.ensureSchema(ctx); err != nil {
		return err
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return apperr.Storage("index: delete note", err)
	}
	return nil
}
