// Package models defines the domain types for merely.
package models

import "time"

// Note is the index record for one Markdown file in the vault.
// The file holds the content; the record holds discoverable metadata.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsNew reports whether the record has not been persisted yet.
func (n *Note) IsNew() bool { return n.ID == 0 }

// FileMeta describes a Markdown file found in the vault.
type FileMeta struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
