// File: internal/storage/file.go
package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// FileStore persists state as a single JSON file. Writes go through a
// temp-file rename so a crash mid-write never leaves a truncated file.
type FileStore struct {
	config *StoreConfig
	logger *logrus.Logger
}

// NewFileStore creates a file-backed store
func NewFileStore(config *StoreConfig) *FileStore {
	return &FileStore{
		config: config,
		logger: utils.GetLogger(),
	}
}

// Connect ensures the parent directory exists
func (s *FileStore) Connect() error {
	dir := filepath.Dir(s.config.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create state directory", err.Error())
		}
	}
	return nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}

// Ping checks that the parent directory is writable
func (s *FileStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.config.Path)
	info, err := os.Stat(dir)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "State directory not accessible", err.Error())
	}
	if !info.IsDir() {
		return utils.NewAppError(utils.ErrCodeDatabase, "State path parent is not a directory", dir)
	}
	return nil
}

// Load reads the persisted state from disk
func (s *FileStore) Load(ctx context.Context) (*models.PersistedState, error) {
	data, err := os.ReadFile(s.config.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to read state file", err.Error())
	}

	var state models.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to decode state file", err.Error())
	}
	if state.Subscribers == nil {
		state.Subscribers = make(map[int64]*models.FilterSettings)
	}
	return &state, nil
}

// Save atomically overwrites the state file
func (s *FileStore) Save(ctx context.Context, state *models.PersistedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to encode state", err.Error())
	}

	tmp := s.config.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to write state file", err.Error())
	}
	if err := os.Rename(tmp, s.config.Path); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to replace state file", err.Error())
	}
	return nil
}
