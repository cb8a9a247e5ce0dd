// Package links validates and normalises hyperlink targets for link insertion.
package links

import (
	"net/url"
	"strings"

	"github.com/starford/merely/internal/apperr"
)

const defaultScheme = "https://"

// Normalize returns the accepted form of raw: an absolute http or https URL
// with a host. Input without a scheme is retried with "https://" prepended.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", apperr.Invalid("url", "empty")
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", apperr.Invalid("url", "contains whitespace")
	}

	if hasScheme(s) {
		if err := check(s); err != nil {
			return "", err
		}
		return s, nil
	}

	candidate := defaultScheme + s
	if err := check(candidate); err != nil {
		return "", err
	}
	return candidate, nil
}

// IsAcceptable reports whether raw normalises to a valid link target.
func IsAcceptable(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

func check(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return apperr.Invalid("url", "malformed")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return apperr.Invalid("url", "scheme "+u.Scheme+" not allowed")
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return apperr.Invalid("url", "missing host")
	}
	return nil
}

// hasScheme reports whether s starts with "scheme:" per RFC 3986. A bare
// "host:port" is not treated as a scheme.
func hasScheme(s string) bool {
	i := strings.Index(s, ":")
	if i <= 0 {
		return false
	}
	for j, c := range s[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	rest := s[i+1:]
	if strings.HasPrefix(rest, "//") {
		return true
	}
	// "localhost:8080/x" parses as scheme "localhost"; treat a numeric
	// remainder as a port instead.
	return rest == "" || rest[0] < '0' || rest[0] > '9'
}
