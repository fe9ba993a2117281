package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"curator/internal/catalog"
	"curator/internal/catalog/pgcat"
	"curator/internal/catalog/sqlitecat"
	"curator/internal/config"
	"curator/internal/coordinator"
	"curator/internal/fetcher/unsplash"
	"curator/internal/logging"
	"curator/internal/notifications"
	"curator/internal/overrides"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// catalogStore is an adapter that owns a connection.
type catalogStore interface {
	catalog.Adapter
	Close() error
}

// openCatalog opens the adapter for the configured driver.
func openCatalog(ctx context.Context, cfg config.Catalog) (catalogStore, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := sqlitecat.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := pgcat.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("catalog driver %q is not supported", cfg.Driver)
	}
}

// session bundles what a catalog-facing command needs.
type session struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       catalogStore
	coordinator *coordinator.Coordinator
	notifier    notifications.Service
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("failed to close catalog", logging.Error(err))
		}
	}
}

// openSession loads config, opens the catalog, and wires a coordinator with
// the overrides file and, when fetching is enabled, the image source.
func (c *commandContext) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	store, err := openCatalog(cmd.Context(), cfg.Catalog)
	if err != nil {
		return nil, err
	}

	deps := coordinator.Deps{
		Config:  cfg,
		Catalog: store,
		Logger:  logger,
	}
	if ov := overrides.NewCatalog(cfg.Reconcile.OverridesPath, logger); ov != nil {
		deps.Overrides = ov
	}
	if cfg.FetchEnabled() {
		client, err := unsplash.New(cfg.Unsplash.AccessKey, cfg.Unsplash.BaseURL, cfg.Unsplash.Orientation,
			unsplash.WithTimeout(cfg.RequestTimeout()))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init image source: %w", err)
		}
		deps.Source = client
	}
	return &session{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		coordinator: coordinator.New(deps),
		notifier:    notifications.NewService(cfg.Notify),
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
