// Package filename builds safe Markdown file names for the vault.
package filename

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// Ext is the extension every note file carries.
	Ext = ".md"
	// Fallback is used when a requested name sanitises to nothing.
	Fallback = "note" + Ext
	// MaxPath is the default full-path length budget.
	MaxPath = 260
)

const invalidChars = `<>:"/\|?*`

// Sanitize replaces characters that are invalid in file names on common
// platforms with '_', strips leading dots and ensures the ".md" extension.
func Sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return Fallback
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(invalidChars, r) {
			return '_'
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")
	if strings.TrimSpace(name) == "" {
		return Fallback
	}
	if !strings.EqualFold(filepath.Ext(name), Ext) {
		name += Ext
	}
	return name
}

// EnsureSafe sanitises name and truncates its stem so that dir joined with
// the result stays within maxPath bytes. A maxPath <= 0 selects MaxPath.
func EnsureSafe(dir, name string, maxPath int) string {
	if maxPath <= 0 {
		maxPath = MaxPath
	}
	name = Sanitize(name)
	full := filepath.Join(dir, name)
	if abs, err := filepath.Abs(full); err == nil {
		full = abs
	}
	if len(full) <= maxPath {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	avail := max(1, maxPath-(len(full)-len(name))-len(ext))
	if len(stem) > avail {
		stem = truncate(stem, avail)
	}
	return stem + ext
}

// NewNoteName returns a collision-free name for a fresh note.
func NewNoteName() string {
	return "note_" + uuid.NewString() + Ext
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	if n == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return s[:size]
	}
	return s[:n]
}
