package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	redisContainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ternhq/tern/internal/application"
	postgresRepo "github.com/ternhq/tern/internal/infrastructure/postgres"
	redisCache "github.com/ternhq/tern/internal/infrastructure/redis"
	"github.com/ternhq/tern/internal/pkg/metrics"
)

var (
	sharedPostgres *postgresContainer.PostgresContainer
	sharedRedis    *redisContainer.RedisContainer
	sharedDB       *sqlx.DB
	sharedCache    *redisCache.Cache
	sharedClient   *goredis.Client
	containerOnce  sync.Once
	cleanupOnce    sync.Once
)

// TestEnvironment holds the test setup
type TestEnvironment struct {
	DB          *sqlx.DB
	RedisClient *goredis.Client
	Service     *application.URLService
}

// SetupTestEnvironment starts shared PostgreSQL and Redis containers, runs
// migrations, and returns a configured URLService backed by both
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	containerOnce.Do(func() {
		ctx := context.Background()

		pg, err := postgresContainer.Run(ctx,
			"postgres:16-alpine",
			postgresContainer.WithDatabase("tern_test"),
			postgresContainer.WithUsername("test"),
			postgresContainer.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		sharedPostgres = pg

		connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed to get connection string: %v", err)
		}

		db, err := sqlx.Connect("postgres", connStr)
		if err != nil {
			t.Fatalf("failed to connect to database: %v", err)
		}
		sharedDB = db

		if err := runMigrations(db.DB); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		rd, err := redisContainer.Run(ctx, "redis:7-alpine")
		if err != nil {
			t.Fatalf("failed to start redis container: %v", err)
		}
		sharedRedis = rd

		redisURL, err := rd.ConnectionString(ctx)
		if err != nil {
			t.Fatalf("failed to get redis connection string: %v", err)
		}
		redisAddr := strings.TrimPrefix(redisURL, "redis://")

		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		sharedCache = redisCache.New(redisAddr, 3*time.Second, logger)
		sharedClient = goredis.NewClient(&goredis.Options{Addr: redisAddr})
	})

	cleanState(t)

	repo := postgresRepo.NewURLRepository(sharedDB)
	service := application.NewURLService(repo, sharedCache, time.Hour, metrics.NewNoOpRegistry())

	return &TestEnvironment{
		DB:          sharedDB,
		RedisClient: sharedClient,
		Service:     service,
	}
}

// CleanupSharedResources should be called once at the end of all tests
func CleanupSharedResources() {
	cleanupOnce.Do(func() {
		ctx := context.Background()
		if sharedCache != nil {
			_ = sharedCache.Close()
		}
		if sharedClient != nil {
			_ = sharedClient.Close()
		}
		if sharedDB != nil {
			_ = sharedDB.Close()
		}
		if sharedPostgres != nil {
			_ = sharedPostgres.Terminate(ctx)
		}
		if sharedRedis != nil {
			_ = sharedRedis.Terminate(ctx)
		}
	})
}

// cleanState truncates the urls table and flushes Redis for test isolation
func cleanState(t *testing.T) {
	if _, err := sharedDB.Exec("TRUNCATE TABLE urls CASCADE"); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	if err := sharedClient.FlushAll(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationsPath, err := filepath.Abs("../../migrations/postgres")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// TestMain handles setup and teardown for the entire test suite
func TestMain(m *testing.M) {
	code := m.Run()

	CleanupSharedResources()

	// Exit with the same code as the tests
	os.Exit(code)
}
