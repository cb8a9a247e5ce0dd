package format

import (
	"github.com/starford/merely/internal/apperr"
	"github.com/starford/merely/internal/textbuf"
)

// Operation names accepted by Apply.
const (
	OpBold    = "bold"
	OpItalic  = "italic"
	OpCode    = "code"
	OpHeading = "heading"
	OpBullet  = "bullet"
	OpLink    = "link"
)

// Ops lists every operation Apply understands.
var Ops = []string{OpBold, OpItalic, OpCode, OpHeading, OpBullet, OpLink}

// Request names one formatting operation and its arguments.
// Level is used by OpHeading (0 means 1); Text and URL by OpLink.
type Request struct {
	Op    string
	Level int
	Text  string
	URL   string
}

// Apply runs the operation described by req against b.
func Apply(b textbuf.Buffer, req Request) (textbuf.Buffer, error) {
	switch req.Op {
	case OpBold:
		return Bold(b), nil
	case OpItalic:
		return Italic(b), nil
	case OpCode:
		return InlineCode(b), nil
	case OpHeading:
		level := req.Level
		if level == 0 {
			level = MinHeadingLevel
		}
		return ToggleHeading(b, level), nil
	case OpBullet:
		return ToggleBullet(b), nil
	case OpLink:
		return InsertLink(b, req.Text, req.URL)
	default:
		return b, apperr.Invalid("op", "unknown operation "+req.Op)
	}
}
