// Package repository persists the contract counter and the per-user
// registry of generated contracts, either in JSON files or in SQL.
package repository

import (
	"context"
	"fmt"

	"github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/pkg/config"
	"github.com/pravodoc/pravodoc-backend/pkg/database"
)

// Counter hands out contract sequence numbers.
type Counter interface {
	// Next increments the counter and returns the new value.
	Next(ctx context.Context) (int, error)
}

// Registry records the contracts generated for each user.
type Registry interface {
	Append(ctx context.Context, userID string, e *domain.Entry) error
	// Last returns the most recent entry of the user, or a not found error.
	Last(ctx context.Context, userID string) (*domain.Entry, error)
}

// Open returns the counter and registry for the configured storage backend.
// db is only used by the sql backend.
func Open(cfg *config.StorageConfig, db *database.DB) (Counter, Registry, error) {
	switch cfg.Backend {
	case config.StorageJSON, "":
		return NewJSONCounter(cfg.CounterFile), NewJSONRegistry(cfg.RegistryFile), nil
	case config.StorageSQL:
		if db == nil {
			return nil, nil, fmt.Errorf("sql storage requires a database connection")
		}
		return NewSQLCounter(db), NewSQLRegistry(db), nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
