package testsupport

import (
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Fetching is enabled with a dummy key pointed at an unroutable base URL;
// tests that exercise the fetcher override it with WithUnsplashURL.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AssetDir = filepath.Join(base, "static", "images")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Catalog.DSN = filepath.Join(base, "brain.db")
	cfgVal.Unsplash.AccessKey = "test"
	cfgVal.Unsplash.BaseURL = "http://127.0.0.1:0"
	cfgVal.Unsplash.MinIntervalMS = 0
	cfgVal.Unsplash.MinBytes = 64
	cfgVal.Reconcile.OverridesPath = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithUnsplashURL points the fetcher at a test server.
func WithUnsplashURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Unsplash.BaseURL = url
	}
}

// WithoutFetching disables the external source.
func WithoutFetching() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Unsplash.Enabled = false
	}
}

// WithCreatedColumn maps entry creation times onto the named column.
func WithCreatedColumn(column string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.CreatedColumn = column
	}
}

// WithOverrides points the reconciler at an overrides file under the base dir.
func WithOverrides(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reconcile.OverridesPath = filepath.Join(b.baseDir, name)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
