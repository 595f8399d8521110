package domain

import (
	"errors"
	"time"
)

var (
	ErrURLNotFound = errors.New("url not found")
	ErrCodeExists  = errors.New("short code already exists")
	ErrInvalidURL  = errors.New("invalid url")
)

// URL is the authoritative record for a shortened URL. Code is the primary
// key; OriginalURL holds the normalized absolute URL.
type URL struct {
	Code        string    `db:"code" json:"code"`
	OriginalURL string    `db:"original_url" json:"originalUrl"`
	Visits      int64     `db:"visits" json:"visits"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

func NewURL(code, originalURL string) (*URL, error) {
	if originalURL == "" {
		return nil, ErrInvalidURL
	}

	return &URL{
		Code:        code,
		OriginalURL: originalURL,
		Visits:      0,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
