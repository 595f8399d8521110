// Package shortcode generates the random identifiers used in short URLs.
package shortcode

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the 64-symbol URL-safe alphabet codes are drawn from.
// 64^6 gives roughly 68 billion combinations, so collisions are possible
// but rare enough to handle by retrying instead of lengthening codes.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Length is the fixed length of a short code.
const Length = 6

// Generate returns a new random short code. The randomness comes from
// crypto/rand so codes resist enumeration; an error means the platform
// random source is unavailable.
func Generate() (string, error) {
	code, err := gonanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("failed to generate short code: %w", err)
	}
	return code, nil
}
