package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/medseed/internal/catalog"
	"github.com/Lumos-Labs-HQ/medseed/internal/config"
	"github.com/Lumos-Labs-HQ/medseed/internal/database"
	"github.com/Lumos-Labs-HQ/medseed/internal/logging"
	"github.com/Lumos-Labs-HQ/medseed/internal/schema"
	"github.com/Lumos-Labs-HQ/medseed/internal/store"
	"github.com/rs/zerolog"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
}

// connect opens the configured database. The caller closes the connector.
func connect(ctx context.Context, cfg *config.Config) (database.Connector, error) {
	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}

	conn, err := database.NewConnector(cfg.Database.Provider, cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if err := conn.Connect(ctx, dbURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return conn, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store.SQLStore, func(), error) {
	conn, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	missing, err := schema.Missing(ctx, conn, conn.Dialect().Name)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if len(missing) > 0 {
		conn.Close()
		return nil, nil, fmt.Errorf("database is missing tables %s, run 'medseed schema' first", strings.Join(missing, ", "))
	}
	return store.NewSQLStore(conn), func() { conn.Close() }, nil
}

// loadCatalog prefers path, then the config file's catalog, then the
// built-in data.
func loadCatalog(cfg *config.Config, path string) (*catalog.Catalog, error) {
	if path == "" {
		path = cfg.Catalog
	}
	return catalog.Load(path)
}
