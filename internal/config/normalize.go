package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeUnsplash()
	if err := c.normalizeReconcile(); err != nil {
		return err
	}
	c.normalizeNotify()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	prefix := strings.TrimSpace(c.Paths.PublicPrefix)
	if prefix == "" {
		prefix = defaultPublicPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	c.Paths.PublicPrefix = prefix
	return nil
}

func (c *Config) normalizeCatalog() error {
	c.Catalog.Driver = strings.ToLower(strings.TrimSpace(c.Catalog.Driver))
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = defaultCatalogDriver
	}
	if value, ok := os.LookupEnv("CURATOR_CATALOG_DSN"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.DSN = strings.TrimSpace(value)
	}
	c.Catalog.DSN = strings.TrimSpace(c.Catalog.DSN)
	if c.Catalog.Driver == "sqlite" && c.Catalog.DSN != "" && !strings.HasPrefix(c.Catalog.DSN, "file:") {
		expanded, err := expandPath(c.Catalog.DSN)
		if err != nil {
			return fmt.Errorf("catalog.dsn: %w", err)
		}
		c.Catalog.DSN = expanded
	}
	c.Catalog.Table = strings.TrimSpace(c.Catalog.Table)
	c.Catalog.IDColumn = strings.TrimSpace(c.Catalog.IDColumn)
	c.Catalog.TitleColumn = strings.TrimSpace(c.Catalog.TitleColumn)
	c.Catalog.CategoryColumn = strings.TrimSpace(c.Catalog.CategoryColumn)
	c.Catalog.ReferenceColumn = strings.TrimSpace(c.Catalog.ReferenceColumn)
	c.Catalog.CreatedColumn = strings.TrimSpace(c.Catalog.CreatedColumn)
	return nil
}

func (c *Config) normalizeUnsplash() {
	if value, ok := os.LookupEnv("UNSPLASH_ACCESS_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Unsplash.AccessKey = value
	}
	c.Unsplash.AccessKey = strings.TrimSpace(c.Unsplash.AccessKey)
	c.Unsplash.BaseURL = strings.TrimRight(strings.TrimSpace(c.Unsplash.BaseURL), "/")
	if c.Unsplash.BaseURL == "" {
		c.Unsplash.BaseURL = defaultUnsplashBaseURL
	}
	c.Unsplash.Orientation = strings.ToLower(strings.TrimSpace(c.Unsplash.Orientation))
	if c.Unsplash.RequestTimeout <= 0 {
		c.Unsplash.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeReconcile() error {
	if c.Reconcile.FetchWorkers <= 0 {
		c.Reconcile.FetchWorkers = 1
	}
	if c.Reconcile.ScanWorkers <= 0 {
		c.Reconcile.ScanWorkers = 1
	}
	path := strings.TrimSpace(c.Reconcile.OverridesPath)
	if path == "" {
		c.Reconcile.OverridesPath = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("reconcile.overrides_path: %w", err)
	}
	c.Reconcile.OverridesPath = expanded
	return nil
}

func (c *Config) normalizeNotify() {
	if value, ok := os.LookupEnv("CURATOR_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notify.NtfyTopic = value
	}
	c.Notify.NtfyTopic = strings.TrimSpace(c.Notify.NtfyTopic)
	if c.Notify.RequestTimeout <= 0 {
		c.Notify.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
