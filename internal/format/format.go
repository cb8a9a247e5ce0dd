// Package format applies Markdown syntax edits to a textbuf.Buffer.
//
// Every operation takes a buffer snapshot and returns a new one with the
// cursor at the end of the edited region and an empty selection.
package format

import (
	"strings"
	"unicode"

	"github.com/starford/merely/internal/links"
	"github.com/starford/merely/internal/textbuf"
)

// Heading levels accepted by ToggleHeading; other values are clamped.
const (
	MinHeadingLevel = 1
	MaxHeadingLevel = 6
)

var bulletMarkers = []string{"- ", "* ", "+ "}

// WrapSelection surrounds the selection (or the cursor position) with prefix
// and suffix.
func WrapSelection(b textbuf.Buffer, prefix, suffix string) textbuf.Buffer {
	return b.Splice(b.Cursor(), b.SelectionEnd(), prefix+b.Selected()+suffix)
}

func Bold(b textbuf.Buffer) textbuf.Buffer       { return WrapSelection(b, "**", "**") }
func Italic(b textbuf.Buffer) textbuf.Buffer     { return WrapSelection(b, "*", "*") }
func InlineCode(b textbuf.Buffer) textbuf.Buffer { return WrapSelection(b, "`", "`") }

// ToggleHeading toggles a level-N heading prefix on every line covered by
// the selection. A line already carrying exactly this level loses it; any
// other line has its leading '#' run replaced by the requested level.
func ToggleHeading(b textbuf.Buffer, level int) textbuf.Buffer {
	level = max(MinHeadingLevel, min(level, MaxHeadingLevel))
	prefix := strings.Repeat("#", level) + " "

	return mapLines(b, func(content string) string {
		if strings.HasPrefix(content, prefix) {
			return content[len(prefix):]
		}
		content = strings.TrimLeft(content, "#")
		content = strings.TrimLeftFunc(content, unicode.IsSpace)
		return prefix + content
	})
}

// ToggleBullet removes a "- ", "* " or "+ " list marker from each covered
// line, or adds "- " where none is present.
func ToggleBullet(b textbuf.Buffer) textbuf.Buffer {
	return mapLines(b, func(content string) string {
		for _, m := range bulletMarkers {
			if strings.HasPrefix(content, m) {
				return content[len(m):]
			}
		}
		return "- " + content
	})
}

// InsertLink replaces the selection with [text](url). The selected text wins
// over displayText, which wins over the URL itself. A rejected URL returns
// the buffer unchanged together with a validation error.
func InsertLink(b textbuf.Buffer, displayText, rawURL string) (textbuf.Buffer, error) {
	url, err := links.Normalize(rawURL)
	if err != nil {
		return b, err
	}

	label := b.Selected()
	if isBlank(label) {
		label = displayText
		if isBlank(label) {
			label = url
		}
	}
	return b.Splice(b.Cursor(), b.SelectionEnd(), "["+label+"]("+url+")"), nil
}

// mapLines rewrites each line in the buffer's line range. fn receives the
// line content after its leading whitespace, which is preserved.
func mapLines(b textbuf.Buffer, fn func(content string) string) textbuf.Buffer {
	start, end := b.LineRange()
	lines := strings.Split(b.Slice(start, end), "\n")
	for i, line := range lines {
		content := strings.TrimLeftFunc(line, unicode.IsSpace)
		leading := line[:len(line)-len(content)]
		lines[i] = leading + fn(content)
	}
	return b.Splice(start, end, strings.Join(lines, "\n"))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
