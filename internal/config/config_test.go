// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = "11111111111111111111111111111111"

func validConfig() *Config {
	return &Config{
		Solana: SolanaConfig{
			Endpoint:       "https://api.mainnet-beta.solana.com",
			Account:        testAccount,
			RequestTimeout: 30 * time.Second,
		},
		Telegram: TelegramConfig{
			Enabled: true,
			Token:   "123456:token",
		},
		Monitor: MonitorConfig{
			PollInterval: 30 * time.Second,
			PageSize:     10,
			Tolerance:    0.001,
		},
		Filter: FilterConfig{
			Epsilon:      1e-9,
			InputTimeout: 2 * time.Minute,
		},
		Storage: StorageConfig{Type: "file", Path: "./data/state.json"},
		Server:  ServerConfig{Port: 8081, Host: "0.0.0.0"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.Solana.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 10, cfg.Monitor.PageSize)
	assert.Equal(t, 0.001, cfg.Monitor.Tolerance)
	assert.Equal(t, 1e-9, cfg.Filter.Epsilon)
	assert.Equal(t, 2*time.Minute, cfg.Filter.InputTimeout)
	assert.Equal(t, "file", cfg.Storage.Type)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("MONITORED_ACCOUNT", testAccount)
	t.Setenv("SOLANA_ENDPOINT", "https://rpc.example.com")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, testAccount, cfg.Solana.Account)
	assert.Equal(t, "https://rpc.example.com", cfg.Solana.Endpoint)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingAccount(t *testing.T) {
	cfg := validConfig()
	cfg.Solana.Account = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMalformedAccount(t *testing.T) {
	// Long enough to pass the length tag but not valid base58.
	cfg := validConfig()
	cfg.Solana.Account = "0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingTelegramToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	assert.Error(t, cfg.Validate())

	// Unless the channel is disabled outright.
	cfg.Telegram.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTunables(t *testing.T) {
	cfg := validConfig()
	cfg.Monitor.PollInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Monitor.Tolerance = -0.1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Filter.Epsilon = 0
	assert.Error(t, cfg.Validate())
}
