package fx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/fx"

	"github.com/ternhq/tern/config"
	"github.com/ternhq/tern/internal/domain"
	cacheImpl "github.com/ternhq/tern/internal/infrastructure/cache"
	memoryRepo "github.com/ternhq/tern/internal/infrastructure/memory"
	postgresRepo "github.com/ternhq/tern/internal/infrastructure/postgres"
	redisCache "github.com/ternhq/tern/internal/infrastructure/redis"
	sqliteRepo "github.com/ternhq/tern/internal/infrastructure/sqlite"
	"github.com/ternhq/tern/internal/pkg/metrics"
)

// ProvideLogger creates and configures the application logger
func ProvideLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// ProvideRepository creates the appropriate repository based on configuration
func ProvideRepository(cfg *config.Config, logger *slog.Logger) (domain.URLRepository, error) {
	switch cfg.Database.Type {
	case "memory":
		logger.Info("Using in-memory repository")
		return memoryRepo.NewURLRepository(), nil

	case "sqlite":
		dbURL := cfg.GetDatabaseURL()
		logger.Info("Using SQLite repository", "path", dbURL)

		if err := os.MkdirAll("./data", 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		db, err := sqlx.Connect("sqlite3", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}

		if err := runMigrations(db, "sqlite3", "sqlite"); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return sqliteRepo.NewURLRepository(db), nil

	case "postgres":
		dbURL := cfg.GetDatabaseURL()
		logger.Info("Using PostgreSQL repository")

		db, err := sqlx.Connect("postgres", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		if err := runMigrations(db, "postgres", "postgres"); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return postgresRepo.NewURLRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// ProvideCache creates the Redis cache, or the no-op cache when caching is
// disabled or no endpoint is configured. A missing Redis never fails
// startup: the service runs correct but slower without it.
func ProvideCache(cfg *config.Config, logger *slog.Logger) domain.Cache {
	if !cfg.CacheActive() {
		logger.Info("Cache disabled, using no-op cache")
		return cacheImpl.NewNoOpCache()
	}

	logger.Info("Using Redis cache", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	return redisCache.New(cfg.Cache.Addr, cfg.Cache.Timeout, logger)
}

// ProvideCacheTTL exposes the configured cache entry TTL
func ProvideCacheTTL(cfg *config.Config) time.Duration {
	return cfg.Cache.TTL
}

// ProvideMetricsRegistry creates the metrics registry based on configuration
func ProvideMetricsRegistry(cfg *config.Config) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoOpRegistry(), nil
	}
	return metrics.NewPrometheusRegistry(cfg.Metrics)
}

// runMigrations runs database migrations
func runMigrations(db *sqlx.DB, driverName, migrationDir string) error {
	var driver database.Driver
	var err error

	sqlDB := db.DB

	switch driverName {
	case "sqlite3":
		driver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	case "postgres":
		driver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported driver: %s", driverName)
	}

	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := fmt.Sprintf("file://migrations/%s", migrationDir)
	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		driverName,
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Migrations completed successfully")
	return nil
}

// RepositoryParams holds the parameters needed for repository lifecycle management
type RepositoryParams struct {
	fx.In

	Repository domain.URLRepository
	Logger     *slog.Logger
}

// RegisterRepositoryHooks registers repository lifecycle hooks with FX
func RegisterRepositoryHooks(lc fx.Lifecycle, params RepositoryParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := params.Repository.Close(); err != nil {
				params.Logger.Error("Failed to close repository resources", "error", err)
				return err
			}
			params.Logger.Info("Repository resources closed")
			return nil
		},
	})
}

// CacheParams holds the parameters needed for cache lifecycle management
type CacheParams struct {
	fx.In

	Cache  domain.Cache
	Logger *slog.Logger
}

// RegisterCacheHooks registers cache lifecycle hooks with FX
func RegisterCacheHooks(lc fx.Lifecycle, params CacheParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			closer, ok := params.Cache.(io.Closer)
			if !ok {
				return nil
			}
			if err := closer.Close(); err != nil {
				params.Logger.Error("Failed to close cache connection", "error", err)
			}
			return nil
		},
	})
}
