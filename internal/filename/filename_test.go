package filename

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "note.md"},
		{"   ", "note.md"},
		{"Shopping list", "Shopping list.md"},
		{"plan.md", "plan.md"},
		{"PLAN.MD", "PLAN.MD"},
		{"a/b:c?.md", "a_b_c_.md"},
		{"...hidden", "hidden.md"},
		{"...", "note.md"},
		{"tab\there", "tab_here.md"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureSafe_ShortNameUnchanged(t *testing.T) {
	dir := t.TempDir()
	if got := EnsureSafe(dir, "short", 0); got != "short.md" {
		t.Errorf("got %q", got)
	}
}

func TestEnsureSafe_Truncates(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 500)
	got := EnsureSafe(dir, long, 0)
	if !strings.HasSuffix(got, Ext) {
		t.Fatalf("extension lost: %q", got)
	}
	abs, _ := filepath.Abs(filepath.Join(dir, got))
	if len(abs) > MaxPath {
		t.Errorf("full path length %d exceeds %d", len(abs), MaxPath)
	}
}

func TestNewNoteName_Unique(t *testing.T) {
	a, b := NewNoteName(), NewNoteName()
	if a == b {
		t.Fatalf("names collide: %q", a)
	}
	if !strings.HasPrefix(a, "note_") || !strings.HasSuffix(a, Ext) {
		t.Errorf("unexpected shape %q", a)
	}
}
