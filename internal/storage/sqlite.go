// File: internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// SQLiteStore implements Store using a single-row SQLite table
type SQLiteStore struct {
	db     *sql.DB
	config *StoreConfig
	logger *logrus.Logger
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(config *StoreConfig) *SQLiteStore {
	return &SQLiteStore{
		config: config,
		logger: utils.GetLogger(),
	}
}

// Connect opens the database and creates the state table
func (s *SQLiteStore) Connect() error {
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracker_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create state table", err.Error())
	}

	s.db = db
	s.logger.WithField("path", s.config.ConnectionString).Info("SQLite state store connected")
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return s.db.PingContext(ctx)
}

// Load reads the single state row
func (s *SQLiteStore) Load(ctx context.Context) (*models.PersistedState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM tracker_state WHERE id = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to load state", err.Error())
	}

	var state models.PersistedState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to decode state", err.Error())
	}
	if state.Subscribers == nil {
		state.Subscribers = make(map[int64]*models.FilterSettings)
	}
	return &state, nil
}

// Save overwrites the single state row
func (s *SQLiteStore) Save(ctx context.Context, state *models.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to encode state", err.Error())
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tracker_state (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), time.Now().UTC())
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save state", err.Error())
	}
	return nil
}
