package render

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"heading", "# Title", []string{`<h1 id="title">Title</h1>`}},
		{"bold italic", "**b** and *i*", []string{"<strong>b</strong>", "<em>i</em>"}},
		{"inline code", "`x := 1`", []string{"<code>x := 1</code>"}},
		{"bullets", "- one\n- two", []string{"<ul>", "<li>one</li>", "<li>two</li>"}},
		{"strikethrough", "~~gone~~", []string{"<del>gone</del>"}},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<td>1</td>"}},
		{"external link", "[site](https://example.com)", []string{
			`href="https://example.com"`, `target="_blank"`, `rel="noopener noreferrer"`,
		}},
		{"linkify", "see https://example.com/x now", []string{
			`<a href="https://example.com/x"`, `target="_blank"`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HTML(tt.in)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("HTML(%q) = %q, missing %q", tt.in, got, w)
				}
			}
		})
	}
}

func TestHTML_RelativeLinkStaysInTab(t *testing.T) {
	got := HTML("[other](other.md)")
	if strings.Contains(got, "_blank") {
		t.Errorf("relative link marked external: %q", got)
	}
}

func TestHTML_RawHTMLOmitted(t *testing.T) {
	got := HTML("<script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw html rendered: %q", got)
	}
}

func TestHTML_Empty(t *testing.T) {
	if got := HTML(""); got != "" {
		t.Errorf("HTML(\"\") = %q, want empty", got)
	}
}
