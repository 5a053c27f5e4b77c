package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/internal/config"
	"github.com/jakechorley/timegrid/pkg/db"
	"github.com/jakechorley/timegrid/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	// Postgres is nil when the memory store is configured
	Postgres *postgres.DB
	Logger   *zap.Logger
	Ctx      context.Context
	// Health pings the store and cache connections
	Health func(ctx context.Context) error
}
