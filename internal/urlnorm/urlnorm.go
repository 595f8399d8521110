// Package urlnorm canonicalizes user-submitted URLs before they are stored.
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ternhq/tern/internal/domain"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// Normalize validates raw and returns its canonical absolute form: scheme
// and host lowercased, default ports stripped, empty path replaced with "/".
// Inputs without a scheme get "https://" prepended. Anything that is not an
// http or https URL after parsing is rejected with domain.ErrInvalidURL;
// this is the security boundary that blocks javascript:, data:, file: and
// friends. The canonical string is what gets stored and compared for dedup.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", domain.ErrInvalidURL
	}

	if !looksLikeScheme(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", domain.ErrInvalidURL
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", domain.ErrInvalidURL
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", domain.ErrInvalidURL
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	u.Scheme = scheme
	if port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// looksLikeScheme reports whether s carries an explicit URL scheme. A colon
// followed by digits ("localhost:3000") is a port, not a scheme.
func looksLikeScheme(s string) bool {
	m := schemePattern.FindString(s)
	if m == "" {
		return false
	}
	rest := s[len(m):]
	if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		return false
	}
	return true
}
