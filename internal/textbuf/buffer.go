// Package textbuf implements the immutable editor snapshot used by the formatter.
//
// Offsets are 0-based rune offsets into the normalised text. Selections are
// half-open: [Cursor, Cursor+SelectionLength).
package textbuf

import "strings"

// Buffer is an editor snapshot: text, cursor and selection length.
// The zero value is an empty buffer.
type Buffer struct {
	runes  []rune
	cursor int
	selLen int
}

// New normalises line endings to "\n" and clamps cursor and selection into
// the text.
func New(text string, cursor, selectionLength int) Buffer {
	runes := []rune(Normalize(text))
	cursor = clamp(cursor, 0, len(runes))
	selectionLength = clamp(selectionLength, 0, len(runes)-cursor)
	return Buffer{runes: runes, cursor: cursor, selLen: selectionLength}
}

// Normalize converts "\r\n" and lone "\r" to "\n".
func Normalize(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func (b Buffer) Text() string { return string(b.runes) }

func (b Buffer) Len() int { return len(b.runes) }

func (b Buffer) Cursor() int { return b.cursor }

func (b Buffer) SelectionLength() int { return b.selLen }

// SelectionEnd is the exclusive end offset of the selection.
func (b Buffer) SelectionEnd() int { return b.cursor + b.selLen }

func (b Buffer) HasSelection() bool { return b.selLen > 0 }

// Selected returns the selected text, or "" when the selection is empty.
func (b Buffer) Selected() string {
	return string(b.runes[b.cursor:b.SelectionEnd()])
}

// Slice returns the text in [start, end), clamped to the buffer.
func (b Buffer) Slice(start, end int) string {
	start = clamp(start, 0, len(b.runes))
	end = clamp(end, start, len(b.runes))
	return string(b.runes[start:end])
}

// LineRange returns the whole-line span [start, end) covering the cursor and
// the selection. start follows the last '\n' before the cursor; end is the
// first '\n' at or after the selection end. The trailing '\n' is not included.
func (b Buffer) LineRange() (start, end int) {
	for i := b.cursor - 1; i >= 0; i-- {
		if b.runes[i] == '\n' {
			start = i + 1
			break
		}
	}
	end = len(b.runes)
	for i := b.SelectionEnd(); i < len(b.runes); i++ {
		if b.runes[i] == '\n' {
			end = i
			break
		}
	}
	return start, end
}

// Splice returns a new buffer with [start, end) replaced by insert. The cursor
// lands right after the inserted text and the selection is cleared.
func (b Buffer) Splice(start, end int, insert string) Buffer {
	start = clamp(start, 0, len(b.runes))
	end = clamp(end, start, len(b.runes))
	ins := []rune(Normalize(insert))

	out := make([]rune, 0, len(b.runes)-(end-start)+len(ins))
	out = append(out, b.runes[:start]...)
	out = append(out, ins...)
	out = append(out, b.runes[end:]...)
	return Buffer{runes: out, cursor: start + len(ins)}
}

// WithSelection returns a copy of b with a new, clamped cursor and selection.
func (b Buffer) WithSelection(cursor, selectionLength int) Buffer {
	cursor = clamp(cursor, 0, len(b.runes))
	selectionLength = clamp(selectionLength, 0, len(b.runes)-cursor)
	return Buffer{runes: b.runes, cursor: cursor, selLen: selectionLength}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
