// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// SolanaConfig contains ledger connection configuration
type SolanaConfig struct {
	Endpoint       string        `mapstructure:"endpoint" validate:"required,url"`
	Account        string        `mapstructure:"account" validate:"required,min=32,max=44"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryAttempts  uint          `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// TelegramConfig contains Bot API configuration
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Token          string        `mapstructure:"token"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
}

// MonitorConfig contains poll loop configuration
type MonitorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PageSize     int           `mapstructure:"page_size" validate:"min=1,max=1000"`
	ItemDelay    time.Duration `mapstructure:"item_delay"`
	Tolerance    float64       `mapstructure:"tolerance"`
}

// FilterConfig contains filter evaluation configuration
type FilterConfig struct {
	Epsilon      float64       `mapstructure:"epsilon"`
	InputTimeout time.Duration `mapstructure:"input_timeout"`
}

// StorageConfig contains state persistence configuration
type StorageConfig struct {
	Type             string `mapstructure:"type"` // file, sqlite, postgres, redis
	Path             string `mapstructure:"path"`
	ConnectionString string `mapstructure:"connection_string"`
	RedisAddr        string `mapstructure:"redis_addr"`
	RedisUsername    string `mapstructure:"redis_username"`
	RedisPassword    string `mapstructure:"redis_password"`
	RedisDB          int    `mapstructure:"redis_db"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetEnvPrefix("REVSTRACKER")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override with environment variables if present
	if endpoint := os.Getenv("SOLANA_ENDPOINT"); endpoint != "" {
		config.Solana.Endpoint = endpoint
	}
	if account := os.Getenv("MONITORED_ACCOUNT"); account != "" {
		config.Solana.Account = account
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "revstracker")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Solana defaults
	viper.SetDefault("solana.endpoint", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("solana.request_timeout", "30s")
	viper.SetDefault("solana.retry_attempts", 3)
	viper.SetDefault("solana.retry_delay", "5s")

	// Telegram defaults
	viper.SetDefault("telegram.enabled", true)
	viper.SetDefault("telegram.request_timeout", "30s")
	viper.SetDefault("telegram.poll_timeout", "50s")

	// Monitor defaults
	viper.SetDefault("monitor.poll_interval", "30s")
	viper.SetDefault("monitor.page_size", 10)
	viper.SetDefault("monitor.item_delay", "1s")
	viper.SetDefault("monitor.tolerance", 0.001)

	// Filter defaults
	viper.SetDefault("filter.epsilon", 1e-9)
	viper.SetDefault("filter.input_timeout", "2m")

	// Storage defaults
	viper.SetDefault("storage.type", "file")
	viper.SetDefault("storage.path", "./data/state.json")
	viper.SetDefault("storage.connection_string", "./data/state.db")

	// Server defaults
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration. An absent or malformed monitored
// account is fatal: the tracker refuses to start rather than watch the
// wrong address.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := solana.PublicKeyFromBase58(c.Solana.Account); err != nil {
		return fmt.Errorf("invalid monitored account %q: %w", c.Solana.Account, err)
	}

	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor poll interval must be positive")
	}
	if c.Monitor.Tolerance <= 0 {
		return fmt.Errorf("monitor tolerance must be positive")
	}
	if c.Filter.Epsilon <= 0 {
		return fmt.Errorf("filter epsilon must be positive")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required when telegram is enabled")
	}

	return nil
}
