package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
)

// ErrCorrupt is returned when a store file exists but does not decode. The
// file is left as it is for manual repair.
var ErrCorrupt = errors.New("STORAGE_CORRUPT", "storage file is corrupt", http.StatusInternalServerError)

// JSONCounter keeps the counter in a file shaped {"value": n}. A missing
// file starts the sequence from zero.
type JSONCounter struct {
	path string
	mu   sync.Mutex
}

// NewJSONCounter creates a counter stored at path
func NewJSONCounter(path string) *JSONCounter {
	return &JSONCounter{path: path}
}

type counterFile struct {
	Value int `json:"value"`
}

// Next increments and persists the counter
func (c *JSONCounter) Next(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var data counterFile
	if err := readJSON(c.path, &data); err != nil {
		return 0, fmt.Errorf("failed to load counter: %w", err)
	}

	data.Value++
	if err := writeJSON(c.path, data); err != nil {
		return 0, fmt.Errorf("failed to save counter: %w", err)
	}
	return data.Value, nil
}

// JSONRegistry keeps the registry in a file shaped
// {"users": {"<id>": {"contracts": [...], "last_contract": {...}}}}.
// A missing file is an empty registry.
type JSONRegistry struct {
	path string
	mu   sync.Mutex
}

// NewJSONRegistry creates a registry stored at path
func NewJSONRegistry(path string) *JSONRegistry {
	return &JSONRegistry{path: path}
}

type registryFile struct {
	Users map[string]*userContracts `json:"users"`
}

type userContracts struct {
	Contracts    []*domain.Entry `json:"contracts"`
	LastContract *domain.Entry   `json:"last_contract,omitempty"`
}

// Append adds e to the user's history and makes it the last contract
func (r *JSONRegistry) Append(ctx context.Context, userID string, e *domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.UserID = userID

	data, err := r.load()
	if err != nil {
		return err
	}
	user, ok := data.Users[userID]
	if !ok {
		user = &userContracts{}
		data.Users[userID] = user
	}
	user.Contracts = append(user.Contracts, e)
	user.LastContract = e

	if err := writeJSON(r.path, data); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}
	return nil
}

// Last returns the user's last contract
func (r *JSONRegistry) Last(ctx context.Context, userID string) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return nil, err
	}
	user, ok := data.Users[userID]
	if !ok || user.LastContract == nil {
		return nil, errors.NotFound("contract")
	}
	last := *user.LastContract
	last.UserID = userID
	return &last, nil
}

func (r *JSONRegistry) load() (*registryFile, error) {
	data := &registryFile{}
	if err := readJSON(r.path, data); err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	if data.Users == nil {
		data.Users = make(map[string]*userContracts)
	}
	return data, nil
}

// readJSON decodes path into v. A missing file leaves v untouched.
func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
	}
	return nil
}

// writeJSON replaces path with the indented encoding of v. The file is
// written next to the target and renamed so readers never see a partial
// document.
func writeJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
