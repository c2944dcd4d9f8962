// File: internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// PostgresStore implements Store using a single-row PostgreSQL table
type PostgresStore struct {
	db     *sql.DB
	config *StoreConfig
	logger *logrus.Logger
}

// NewPostgresStore creates a new PostgreSQL store instance
func NewPostgresStore(config *StoreConfig) *PostgresStore {
	return &PostgresStore{
		config: config,
		logger: utils.GetLogger(),
	}
}

// Connect opens the database and creates the state table
func (s *PostgresStore) Connect() error {
	db, err := sql.Open("postgres", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL database", err.Error())
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to reach PostgreSQL database", err.Error())
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracker_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create state table", err.Error())
	}

	s.db = db
	s.logger.Info("PostgreSQL state store connected")
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return s.db.PingContext(ctx)
}

// Load reads the single state row
func (s *PostgresStore) Load(ctx context.Context) (*models.PersistedState, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM tracker_state WHERE id = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to load state", err.Error())
	}

	var state models.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to decode state", err.Error())
	}
	if state.Subscribers == nil {
		state.Subscribers = make(map[int64]*models.FilterSettings)
	}
	return &state, nil
}

// Save overwrites the single state row
func (s *PostgresStore) Save(ctx context.Context, state *models.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to encode state", err.Error())
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tracker_state (id, data, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		data, time.Now().UTC())
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save state", err.Error())
	}
	return nil
}
