// File: internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
)

// ErrNotFound is returned by Load when no state has been persisted yet.
var ErrNotFound = errors.New("storage: state not found")

// Store persists the tracker state as a single durable aggregate. Save is a
// whole-object overwrite; there is no incremental update path.
type Store interface {
	Connect() error
	Close() error
	Ping(ctx context.Context) error

	// Load returns the persisted state, or ErrNotFound on first run.
	Load(ctx context.Context) (*models.PersistedState, error)

	// Save durably overwrites the persisted state.
	Save(ctx context.Context, state *models.PersistedState) error
}

// StoreConfig holds storage configuration
type StoreConfig struct {
	Type             string `json:"type"` // file, sqlite, postgres, redis
	Path             string `json:"path"`
	ConnectionString string `json:"connection_string"`
	RedisAddr        string `json:"redis_addr"`
	RedisUsername    string `json:"redis_username"`
	RedisPassword    string `json:"redis_password"`
	RedisDB          int    `json:"redis_db"`
}
