package links

import (
	"testing"

	"github.com/starford/merely/internal/apperr"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/docs?q=1  ", "https://example.com/docs?q=1"},
		{"http://example.com", "http://example.com"},
		{"https://example.com/a#b", "https://example.com/a#b"},
		{"HTTPS://Example.com", "HTTPS://Example.com"},
		{"localhost:8080/notes", "https://localhost:8080/notes"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if err != nil {
				t.Fatalf("Normalize(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"ftp://x",
		"mailto:someone@example.com",
		"javascript:alert(1)",
		"/relative/path",
		"http://",
		"https:///nohost",
		"exa mple.com",
	}
	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			_, err := Normalize(in)
			if err == nil {
				t.Fatalf("Normalize(%q) accepted, want rejection", in)
			}
			if !apperr.IsValidation(err) {
				t.Errorf("error type = %T, want *apperr.ValidationError", err)
			}
		})
	}
}

func TestIsAcceptable(t *testing.T) {
	if !IsAcceptable("example.com") {
		t.Error(`IsAcceptable("example.com") = false`)
	}
	if IsAcceptable("ftp://x") {
		t.Error(`IsAcceptable("ftp://x") = true`)
	}
	if IsAcceptable("") {
		t.Error(`IsAcceptable("") = true`)
	}
}
