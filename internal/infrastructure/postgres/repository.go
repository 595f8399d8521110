package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ternhq/tern/internal/domain"
)

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Insert(ctx context.Context, url *domain.URL) error {
	query := `
		INSERT INTO urls (code, original_url, visits, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, url.Code, url.OriginalURL, url.Visits, url.CreatedAt)
	if err != nil {
		return r.handlePostgreSQLError(err, "insert URL")
	}

	slog.Debug("URL inserted", "code", url.Code)
	return nil
}

func (r *URLRepository) FindByCode(ctx context.Context, code string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT code, original_url, visits, created_at FROM urls WHERE code = $1`

	err := r.db.GetContext(ctx, &url, query, code)
	if err != nil {
		return nil, r.handlePostgreSQLError(err, "find URL by code")
	}

	return &url, nil
}

func (r *URLRepository) FindByURL(ctx context.Context, originalURL string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT code, original_url, visits, created_at FROM urls WHERE original_url = $1 ORDER BY created_at LIMIT 1`

	err := r.db.GetContext(ctx, &url, query, originalURL)
	if err != nil {
		return nil, r.handlePostgreSQLError(err, "find URL by original URL")
	}

	return &url, nil
}

func (r *URLRepository) ListAll(ctx context.Context) ([]domain.URL, error) {
	urls := []domain.URL{}
	query := `SELECT code, original_url, visits, created_at FROM urls ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &urls, query); err != nil {
		return nil, r.handlePostgreSQLError(err, "list URLs")
	}

	return urls, nil
}

func (r *URLRepository) DeleteByCode(ctx context.Context, code string) (int64, error) {
	query := `DELETE FROM urls WHERE code = $1`

	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return 0, r.handlePostgreSQLError(err, "delete URL")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, r.handlePostgreSQLError(err, "delete URL rows affected")
	}

	return affected, nil
}

func (r *URLRepository) IncrementVisits(ctx context.Context, code string) error {
	query := `UPDATE urls SET visits = visits + 1 WHERE code = $1`

	// zero rows affected means the code is gone; that is fine, a redirect
	// served from cache may race a delete
	if _, err := r.db.ExecContext(ctx, query, code); err != nil {
		return r.handlePostgreSQLError(err, "increment visits")
	}

	return nil
}

// handlePostgreSQLError converts PostgreSQL-specific errors to domain errors
func (r *URLRepository) handlePostgreSQLError(err error, operation string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		slog.Error("PostgreSQL error",
			"operation", operation,
			"code", pqErr.Code,
			"message", pqErr.Message,
			"detail", pqErr.Detail,
		)

		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "urls_code_key" || pqErr.Constraint == "urls_pkey" {
				return domain.ErrCodeExists
			}
			return fmt.Errorf("unique constraint violation: %s", pqErr.Detail)
		case "23502": // not_null_violation
			return fmt.Errorf("required field missing: %s", pqErr.Column)
		case "08000", "08003", "08006": // connection errors
			return fmt.Errorf("database connection error: %s", pqErr.Message)
		default:
			return fmt.Errorf("database error [%s]: %s", pqErr.Code, pqErr.Message)
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrURLNotFound
	}

	return err
}

func (r *URLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *URLRepository) HealthCheck(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection is nil")
	}
	return r.db.PingContext(ctx)
}
