// File: internal/storage/factory.go
package storage

import (
	"strings"

	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// NewStore creates a store instance based on configuration
func NewStore(cfg *StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "file", "":
		return NewFileStore(cfg), nil
	case "sqlite":
		return NewSQLiteStore(cfg), nil
	case "postgres", "postgresql":
		return NewPostgresStore(cfg), nil
	case "redis":
		return NewRedisStore(cfg), nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeConfiguration,
			"Unsupported storage type", cfg.Type)
	}
}

// ValidateStoreConfig validates storage configuration
func ValidateStoreConfig(cfg *StoreConfig) error {
	switch strings.ToLower(cfg.Type) {
	case "file", "":
		if cfg.Path == "" {
			return utils.NewAppError(utils.ErrCodeConfiguration, "Storage path is required", "")
		}
	case "sqlite", "postgres", "postgresql":
		if cfg.ConnectionString == "" {
			return utils.NewAppError(utils.ErrCodeConfiguration, "Storage connection string is required", "")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return utils.NewAppError(utils.ErrCodeConfiguration, "Redis address is required", "")
		}
	default:
		return utils.NewAppError(utils.ErrCodeConfiguration,
			"Unsupported storage type", "Supported types: file, sqlite, postgres, redis")
	}
	return nil
}
