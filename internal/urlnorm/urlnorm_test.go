package urlnorm

import (
	"errors"
	"testing"

	"github.com/ternhq/tern/internal/domain"
)

func TestNormalize_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare domain gets https and root path", "github.com", "https://github.com/"},
		{"existing https kept", "https://example.com/page", "https://example.com/page"},
		{"http kept", "http://example.com", "http://example.com/"},
		{"uppercase scheme and host lowered", "HTTPS://EXAMPLE.COM/Path", "https://example.com/Path"},
		{"default https port stripped", "https://example.com:443/x", "https://example.com/x"},
		{"default http port stripped", "http://example.com:80", "http://example.com/"},
		{"non-default port kept", "https://example.com:8443/x", "https://example.com:8443/x"},
		{"host with port but no scheme", "localhost:3000/admin", "https://localhost:3000/admin"},
		{"query preserved", "example.com/search?q=go&lang=en", "https://example.com/search?q=go&lang=en"},
		{"surrounding whitespace trimmed", "  example.com  ", "https://example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"github.com",
		"https://example.com:8443/a/b?x=1",
		"HTTP://Example.COM:80/Path",
		"example.com/search?q=go",
	}

	for _, input := range inputs {
		once, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", input, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", input, once, twice)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"javascript scheme", "javascript:alert(1)"},
		{"data scheme", "data:text/html,<script>alert(1)</script>"},
		{"file scheme", "file:///etc/passwd"},
		{"ftp scheme", "ftp://example.com/file"},
		{"mailto scheme", "mailto:someone@example.com"},
		{"scheme only", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			if !errors.Is(err, domain.ErrInvalidURL) {
				t.Fatalf("Normalize(%q): expected ErrInvalidURL, got %v", tt.input, err)
			}
		})
	}
}

// Dedup compares exact normalized strings, so trailing-slash and
// query-order variants stay distinct on purpose.
func TestNormalize_VariantsStayDistinct(t *testing.T) {
	a, err := Normalize("example.com/page")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize("example.com/page/")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("expected %q and %q to remain distinct", a, b)
	}
}
