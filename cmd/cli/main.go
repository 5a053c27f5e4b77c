package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/cmd/cli/commands"
	"github.com/jakechorley/timegrid/internal/config"
	"github.com/jakechorley/timegrid/pkg/cache"
	"github.com/jakechorley/timegrid/pkg/memstore"
	"github.com/jakechorley/timegrid/pkg/postgres"
	"github.com/jakechorley/timegrid/pkg/utils/logging"
)

var (
	env     string
	logsDir string
	app     = &commands.AppContext{Ctx: context.Background()}
	closers []func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "timegrid CLI - group scheduling polls that learn usual availability",
		Long: `A CLI and HTTP API for group scheduling polls.

Participants vote on a grid of candidate dates and times. Their available cells are
learned as usual-availability windows that pre-fill suggestions on later events.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&logsDir, "logs-dir", "logs", "Directory for JSON log files (empty disables file logging)")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.CreateEventCmd(app))
	rootCmd.AddCommand(commands.ResultsCmd(app))
	rootCmd.AddCommand(commands.SuggestCmd(app))
	rootCmd.AddCommand(commands.PatternsCmd(app))
	rootCmd.AddCommand(commands.ExportPatternsCmd(app))

	if err := rootCmd.Execute(); err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up logger, config and the store
func initApp() error {
	var err error

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, logsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully", zap.String("store", app.Cfg.Store))

	var checks []func(ctx context.Context) error

	switch app.Cfg.Store {
	case "postgres":
		app.Logger.Info("Connecting to database")
		app.Postgres, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		closers = append(closers, app.Postgres.Close)
		checks = append(checks, app.Postgres.Ping)
		app.Database = app.Postgres
	default:
		app.Logger.Warn("Using in-memory store; data is lost on exit")
		app.Database = memstore.NewDB()
	}

	if app.Cfg.RedisAddress != "" {
		app.Logger.Info("Enabling pattern cache",
			zap.String("redis_address", app.Cfg.RedisAddress),
			zap.Duration("ttl", app.Cfg.PatternCacheTTL()))
		patternCache := cache.New(app.Database, cache.NewClient(app.Cfg.RedisAddress, app.Cfg.RedisPassword), app.Cfg.PatternCacheTTL(), app.Logger)
		closers = append(closers, func() { _ = patternCache.Close() })
		checks = append(checks, patternCache.Ping)
		app.Database = patternCache
	}

	app.Health = func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	app.Logger.Info("Store initialized successfully")
	return nil
}

func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}
