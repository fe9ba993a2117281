package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// identifierPattern restricts table and column names to plain SQL identifiers
// because they are interpolated into queries.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateUnsplash(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.AssetDir == "" {
		return errors.New("paths.asset_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if !strings.HasPrefix(c.Paths.PublicPrefix, "/") {
		return fmt.Errorf("paths.public_prefix must start with '/', got %q", c.Paths.PublicPrefix)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("catalog.driver: unsupported value %q (expected sqlite or postgres)", c.Catalog.Driver)
	}
	if c.Catalog.DSN == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/curator/config.toml"
		}
		return fmt.Errorf("catalog.dsn is required. Set CURATOR_CATALOG_DSN or edit %s (create with 'curator config init')", defaultPath)
	}
	identifiers := map[string]string{
		"catalog.table":            c.Catalog.Table,
		"catalog.id_column":        c.Catalog.IDColumn,
		"catalog.title_column":     c.Catalog.TitleColumn,
		"catalog.category_column":  c.Catalog.CategoryColumn,
		"catalog.reference_column": c.Catalog.ReferenceColumn,
	}
	if c.Catalog.CreatedColumn != "" {
		identifiers["catalog.created_column"] = c.Catalog.CreatedColumn
	}
	keys := make([]string, 0, len(identifiers))
	for key := range identifiers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !identifierPattern.MatchString(identifiers[key]) {
			return fmt.Errorf("%s must be a plain SQL identifier, got %q", key, identifiers[key])
		}
	}
	return nil
}

func (c *Config) validateUnsplash() error {
	if !c.Unsplash.Enabled {
		return nil
	}
	switch c.Unsplash.Orientation {
	case "", "landscape", "portrait", "squarish":
	default:
		return fmt.Errorf("unsplash.orientation: unsupported value %q", c.Unsplash.Orientation)
	}
	if err := ensurePositiveMap(map[string]int{
		"unsplash.hourly_quota": c.Unsplash.HourlyQuota,
		"unsplash.min_bytes":    c.Unsplash.MinBytes,
	}); err != nil {
		return err
	}
	if c.Unsplash.MinIntervalMS < 0 {
		return errors.New("unsplash.min_interval_ms must not be negative")
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if err := ensurePositiveMap(map[string]int{
		"reconcile.batch_size":          c.Reconcile.BatchSize,
		"reconcile.max_entries_per_run": c.Reconcile.MaxEntriesPerRun,
		"reconcile.query_variants":      c.Reconcile.QueryVariants,
		"reconcile.pages_per_query":     c.Reconcile.PagesPerQuery,
	}); err != nil {
		return err
	}
	if c.Reconcile.MaxFetchesPerRun < 0 {
		return errors.New("reconcile.max_fetches_per_run must not be negative")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.NtfyTopic == "" {
		return nil
	}
	if !strings.HasPrefix(c.Notify.NtfyTopic, "http://") && !strings.HasPrefix(c.Notify.NtfyTopic, "https://") {
		return fmt.Errorf("notify.ntfy_topic must be a full http(s) URL, got %q", c.Notify.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
