// File: internal/storage/redis.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// stateKey is the single Redis key holding the serialized tracker state.
const stateKey = "revstracker:state"

// RedisStore implements Store using a single Redis key with no expiration
type RedisStore struct {
	conn   *redis.Client
	config *StoreConfig
	logger *logrus.Logger
}

// NewRedisStore creates a new Redis store instance
func NewRedisStore(config *StoreConfig) *RedisStore {
	return &RedisStore{
		config: config,
		logger: utils.GetLogger(),
	}
}

// Connect establishes the Redis connection
func (s *RedisStore) Connect() error {
	conn := redis.NewClient(&redis.Options{
		Addr:     s.config.RedisAddr,
		Username: s.config.RedisUsername,
		Password: s.config.RedisPassword,
		DB:       s.config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx).Err(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to connect to Redis", err.Error())
	}

	s.conn = conn
	s.logger.WithField("addr", s.config.RedisAddr).Info("Redis state store connected")
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Ping checks Redis connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	if s.conn == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Redis not connected", "")
	}
	return s.conn.Ping(ctx).Err()
}

// Load reads the state key
func (s *RedisStore) Load(ctx context.Context) (*models.PersistedState, error) {
	val, err := s.conn.Get(ctx, stateKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to load state", err.Error())
	}

	var state models.PersistedState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to decode state", err.Error())
	}
	if state.Subscribers == nil {
		state.Subscribers = make(map[int64]*models.FilterSettings)
	}
	return &state, nil
}

// Save overwrites the state key
func (s *RedisStore) Save(ctx context.Context, state *models.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to encode state", err.Error())
	}
	if err := s.conn.Set(ctx, stateKey, data, 0).Err(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save state", err.Error())
	}
	return nil
}

// Compile-time interface checks for all backends.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisStore)(nil)
)
