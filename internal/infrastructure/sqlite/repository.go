package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

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
		VALUES (:code, :original_url, :visits, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, url)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return domain.ErrCodeExists
		}
		return err
	}

	return nil
}

func (r *URLRepository) FindByCode(ctx context.Context, code string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT code, original_url, visits, created_at FROM urls WHERE code = $1`

	err := r.db.GetContext(ctx, &url, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrURLNotFound
		}
		return nil, err
	}

	return &url, nil
}

func (r *URLRepository) FindByURL(ctx context.Context, originalURL string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT code, original_url, visits, created_at FROM urls WHERE original_url = $1 ORDER BY created_at LIMIT 1`

	err := r.db.GetContext(ctx, &url, query, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrURLNotFound
		}
		return nil, err
	}

	return &url, nil
}

func (r *URLRepository) ListAll(ctx context.Context) ([]domain.URL, error) {
	urls := []domain.URL{}
	query := `SELECT code, original_url, visits, created_at FROM urls ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &urls, query); err != nil {
		return nil, err
	}

	return urls, nil
}

func (r *URLRepository) DeleteByCode(ctx context.Context, code string) (int64, error) {
	query := `DELETE FROM urls WHERE code = $1`

	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *URLRepository) IncrementVisits(ctx context.Context, code string) error {
	query := `UPDATE urls SET visits = visits + 1 WHERE code = $1`

	// missing code is a no-op by contract
	_, err := r.db.ExecContext(ctx, query, code)
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
