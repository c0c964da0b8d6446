package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pravodoc/pravodoc-backend/pkg/config"
	"github.com/pravodoc/pravodoc-backend/pkg/database"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// PostgresDB returns a connection to the shared PostgreSQL container with
// the given schema applied. The test is skipped in -short mode.
//
// Usage:
//
//	func TestRepository_Postgres(t *testing.T) {
//	    db := testutil.PostgresDB(t, repository.Schema(config.DriverPostgres)...)
//	    repo := repository.NewSQLRegistry(db)
//	    ...
//	}
func PostgresDB(t *testing.T, schema ...string) *database.DB {
	t.Helper()
	SkipIfShort(t)

	ctx := context.Background()
	_, db, err := getOrCreateContainer(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	if err := ApplySchema(ctx, db, schema...); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return database.Wrap(db, logger.Nop())
}

// SQLiteDB opens a fresh SQLite database in a temp dir with the given
// schema applied. It is closed when the test ends.
func SQLiteDB(t *testing.T, schema ...string) *database.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	db, err := database.New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ApplySchema(context.Background(), db.DB, schema...); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return db
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		containerErr = noPanic(func() error {
			var err error
			globalContainer, err = NewPostgresContainer(ctx, DefaultPostgresConfig())
			if err != nil {
				return err
			}
			globalDB, err = globalContainer.Connect(ctx)
			return err
		})
	})

	return globalContainer, globalDB, containerErr
}

// noPanic runs fn and reports a panic as an error. testcontainers panics
// when no Docker host can be found.
func noPanic(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container runtime unavailable: %v", r)
		}
	}()
	return fn()
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
//
//	func TestMain(m *testing.M) {
//	    code := m.Run()
//	    testutil.TerminateContainer(context.Background())
//	    os.Exit(code)
//	}
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}

// GetEnvOrDefault returns the environment variable or defaultVal when unset
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
