// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/merely/internal/models"

// Provider is the interface for vault file operations. Paths are relative to
// the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath. It fails if newPath already exists.
	Move(oldPath, newPath string) error
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
	// Abs resolves path to an absolute file-system path; "" is the vault root.
	Abs(path string) (string, error)
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
