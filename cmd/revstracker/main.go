// File: cmd/revstracker/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/commands"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/config"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/filter"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/ledger"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/metrics"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/monitor"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/notify"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/server"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/state"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/storage"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/telegram"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application wires all components of the tracker
type Application struct {
	config  *config.Config
	ledger  *ledger.SolanaClient
	store   storage.Store
	state   *state.Manager
	monitor *monitor.AccountMonitor
	gateway *telegram.Gateway
	server  *server.HTTPServer
	metrics *metrics.Manager
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	logCfg := cfg.Logging
	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		cancel()
		return nil, err
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	logger := utils.GetLogger()
	logger.Info("Initializing components")

	app.metrics = metrics.NewManager()

	// Storage and state
	store, err := storage.NewStore(storeConfig(app.config))
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	app.store = store

	app.state = state.NewManager(store, app.config.Filter.Epsilon)
	app.state.SetMetricsManager(app.metrics)
	if err := app.state.Load(app.ctx); err != nil {
		return fmt.Errorf("failed to load persisted state: %w", err)
	}

	// Ledger client
	ledgerClient, err := ledger.NewSolanaClient(&ledger.SolanaConfig{
		Endpoint:       app.config.Solana.Endpoint,
		Account:        app.config.Solana.Account,
		RequestTimeout: app.config.Solana.RequestTimeout,
		RetryAttempts:  app.config.Solana.RetryAttempts,
		RetryDelay:     app.config.Solana.RetryDelay,
	})
	if err != nil {
		return fmt.Errorf("failed to create ledger client: %w", err)
	}
	ledgerClient.SetMetricsManager(app.metrics)
	if err := ledgerClient.Connect(app.ctx); err != nil {
		return fmt.Errorf("failed to connect to ledger: %w", err)
	}
	app.ledger = ledgerClient

	// Notification channel
	var notifier notify.Notifier
	if app.config.Telegram.Enabled {
		tgClient := telegram.NewClient(&telegram.TelegramConfig{
			Token:          app.config.Telegram.Token,
			BaseURL:        app.config.Telegram.BaseURL,
			RequestTimeout: app.config.Telegram.RequestTimeout,
			PollTimeout:    app.config.Telegram.PollTimeout,
		})
		router := commands.NewRouter(app.state, app.config.Filter.InputTimeout)
		app.gateway = telegram.NewGateway(tgClient, router)
		notifier = tgClient
	} else {
		notifier = notify.NewLogNotifier()
		logger.Warn("Telegram disabled, alerts will be logged only")
	}

	engine := filter.NewEngine(app.config.Filter.Epsilon)
	dispatcher := notify.NewDispatcher(notifier, app.state, engine, app.config.Telegram.RequestTimeout)
	dispatcher.SetMetricsManager(app.metrics)

	// Monitor
	app.monitor = monitor.NewAccountMonitor(&monitor.MonitorConfig{
		PollInterval: app.config.Monitor.PollInterval,
		PageSize:     app.config.Monitor.PageSize,
		ItemDelay:    app.config.Monitor.ItemDelay,
		Tolerance:    app.config.Monitor.Tolerance,
	}, ledgerClient, app.state, dispatcher, app.config.Solana.Account)
	app.monitor.SetMetricsManager(app.metrics)

	// HTTP server
	app.server = server.NewHTTPServer(&server.ServerConfig{
		Port:          app.config.Server.Port,
		Host:          app.config.Server.Host,
		ReadTimeout:   app.config.Server.ReadTimeout,
		WriteTimeout:  app.config.Server.WriteTimeout,
		EnableMetrics: app.config.Server.EnableMetrics,
		EnableHealth:  app.config.Server.EnableHealth,
	}, app.state, app.monitor, ledgerClient, app.metrics, AppVersion)

	logger.Info("All components initialized")
	return nil
}

// Start starts the application
func (app *Application) Start() error {
	logger := utils.GetLogger()

	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := app.monitor.Start(app.ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	if app.gateway != nil {
		if err := app.gateway.Start(app.ctx); err != nil {
			return fmt.Errorf("failed to start telegram gateway: %w", err)
		}
	}

	logger.WithField("account", app.config.Solana.Account).Info("RevsTracker started")
	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	logger := utils.GetLogger()
	logger.Info("Stopping RevsTracker")

	if app.gateway != nil {
		if err := app.gateway.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop telegram gateway")
		}
	}

	if app.monitor != nil {
		if err := app.monitor.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop monitor")
		}
	}

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop HTTP server")
		}
	}

	app.cancel()

	if app.ledger != nil {
		if err := app.ledger.Close(); err != nil {
			logger.WithError(err).Error("Failed to close ledger client")
		}
	}

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			logger.WithError(err).Error("Failed to close storage")
		}
	}

	logger.Info("RevsTracker stopped")
	return nil
}

func storeConfig(cfg *config.Config) *storage.StoreConfig {
	return &storage.StoreConfig{
		Type:             cfg.Storage.Type,
		Path:             cfg.Storage.Path,
		ConnectionString: cfg.Storage.ConnectionString,
		RedisAddr:        cfg.Storage.RedisAddr,
		RedisUsername:    cfg.Storage.RedisUsername,
		RedisPassword:    cfg.Storage.RedisPassword,
		RedisDB:          cfg.Storage.RedisDB,
	}
}

// CLI Commands

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "revstracker",
	Short:   "Revs treasury wallet tracker",
	Long:    `Watches a single Solana account, reconstructs transfers from balance deltas and pushes filtered alerts to Telegram subscribers.`,
	Version: AppVersion,
	RunE:    runTracker,
}

// runTracker is the main command to run the tracker
func runTracker(cmd *cobra.Command, args []string) error {
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-signalChan
	fmt.Println("\nReceived shutdown signal, stopping application...")

	return app.Stop()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("RevsTracker %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Solana endpoint: %s\n", cfg.Solana.Endpoint)
		fmt.Printf("Monitored account: %s\n", cfg.Solana.Account)
		fmt.Printf("Storage: %s\n", cfg.Storage.Type)

		return nil
	},
}

// testCmd represents the connectivity test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connectivity and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		ctx := cmd.Context()
		fmt.Println("Testing RevsTracker connectivity...")

		fmt.Printf("Testing Solana endpoint %s...\n", cfg.Solana.Endpoint)
		ledgerClient, err := ledger.NewSolanaClient(&ledger.SolanaConfig{
			Endpoint:       cfg.Solana.Endpoint,
			Account:        cfg.Solana.Account,
			RequestTimeout: cfg.Solana.RequestTimeout,
			RetryAttempts:  cfg.Solana.RetryAttempts,
			RetryDelay:     cfg.Solana.RetryDelay,
		})
		if err != nil {
			return fmt.Errorf("failed to create ledger client: %w", err)
		}
		defer ledgerClient.Close()
		if err := ledgerClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to Solana endpoint: %w", err)
		}
		balance, err := ledgerClient.Balance(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch account balance: %w", err)
		}
		fmt.Printf("✓ Solana connection successful (account balance %.4f SOL)\n", balance)

		fmt.Printf("Testing storage (%s)...\n", cfg.Storage.Type)
		store, err := storage.NewStore(storeConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		defer store.Close()
		if err := store.Connect(); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping storage: %w", err)
		}
		fmt.Println("✓ Storage connection successful")

		if cfg.Telegram.Enabled {
			fmt.Println("Testing Telegram bot token...")
			tgClient := telegram.NewClient(&telegram.TelegramConfig{
				Token:          cfg.Telegram.Token,
				BaseURL:        cfg.Telegram.BaseURL,
				RequestTimeout: cfg.Telegram.RequestTimeout,
			})
			username, err := tgClient.GetMe(ctx)
			if err != nil {
				return fmt.Errorf("failed to verify bot token: %w", err)
			}
			fmt.Printf("✓ Telegram bot @%s reachable\n", username)
		}

		fmt.Println("\nAll connectivity tests passed! ✓")
		return nil
	},
}

// init initializes the CLI commands
func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(testCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
