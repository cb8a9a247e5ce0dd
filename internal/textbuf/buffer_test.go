package textbuf

import "testing"

func TestNew_NormalizesLineEndings(t *testing.T) {
	b := New("a\r\nb\rc", 0, 0)
	if got, want := b.Text(), "a\nb\nc"; got != want {
		t.Fatalf("text=%q, want %q", got, want)
	}
}

func TestNew_ClampsCursorAndSelection(t *testing.T) {
	tests := []struct {
		name       string
		cursor     int
		sel        int
		wantCursor int
		wantSel    int
	}{
		{"negative cursor", -5, 2, 0, 2},
		{"cursor past end", 99, 3, 5, 0},
		{"selection past end", 3, 10, 3, 2},
		{"negative selection", 2, -1, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("hello", tt.cursor, tt.sel)
			if b.Cursor() != tt.wantCursor || b.SelectionLength() != tt.wantSel {
				t.Fatalf("cursor=%d sel=%d, want %d/%d", b.Cursor(), b.SelectionLength(), tt.wantCursor, tt.wantSel)
			}
		})
	}
}

func TestNew_RuneOffsets(t *testing.T) {
	b := New("πテst", 1, 2)
	if got, want := b.Selected(), "テs"; got != want {
		t.Fatalf("selected=%q, want %q", got, want)
	}
	if b.Len() != 4 {
		t.Fatalf("len=%d, want 4", b.Len())
	}
}

func TestLineRange(t *testing.T) {
	text := "one\ntwo\nthree"
	tests := []struct {
		name      string
		cursor    int
		sel       int
		wantStart int
		wantEnd   int
	}{
		{"start of buffer", 0, 0, 0, 3},
		{"middle of first line", 2, 0, 0, 3},
		{"end of first line", 3, 0, 0, 3},
		{"start of second line", 4, 0, 4, 7},
		{"last line", 10, 0, 8, 13},
		{"selection across lines", 1, 5, 0, 7},
		{"selection to buffer end", 5, 8, 4, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := New(text, tt.cursor, tt.sel).LineRange()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Fatalf("range=[%d,%d), want [%d,%d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestLineRange_LeadingNewline(t *testing.T) {
	start, end := New("\nabc", 0, 0).LineRange()
	if start != 0 || end != 0 {
		t.Fatalf("range=[%d,%d), want [0,0)", start, end)
	}
}

func TestSplice(t *testing.T) {
	b := New("hello world", 6, 5)
	got := b.Splice(6, 11, "there")
	if got.Text() != "hello there" {
		t.Fatalf("text=%q", got.Text())
	}
	if got.Cursor() != 11 || got.HasSelection() {
		t.Fatalf("cursor=%d sel=%d, want 11/0", got.Cursor(), got.SelectionLength())
	}
	if b.Text() != "hello world" {
		t.Fatal("splice must not mutate the original buffer")
	}
}

func TestSlice_Clamps(t *testing.T) {
	b := New("abc", 0, 0)
	if got := b.Slice(-1, 10); got != "abc" {
		t.Fatalf("slice=%q", got)
	}
	if got := b.Slice(2, 1); got != "" {
		t.Fatalf("slice=%q, want empty", got)
	}
}
