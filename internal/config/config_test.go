package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"curator/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("UNSPLASH_ACCESS_KEY", "test-key")
	t.Setenv("CURATOR_CATALOG_DSN", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantAssets := filepath.Join(tempHome, ".local", "share", "curator", "static", "images")
	if cfg.Paths.AssetDir != wantAssets {
		t.Fatalf("unexpected asset dir: got %q want %q", cfg.Paths.AssetDir, wantAssets)
	}
	if cfg.Paths.PublicPrefix != "/static/images/" {
		t.Fatalf("unexpected public prefix: %q", cfg.Paths.PublicPrefix)
	}
	wantDSN := filepath.Join(tempHome, ".local", "share", "curator", "brain.db")
	if cfg.Catalog.DSN != wantDSN {
		t.Fatalf("unexpected catalog dsn: got %q want %q", cfg.Catalog.DSN, wantDSN)
	}
	if cfg.Unsplash.AccessKey != "test-key" {
		t.Fatalf("expected access key from env, got %q", cfg.Unsplash.AccessKey)
	}
	if !cfg.FetchEnabled() {
		t.Fatal("expected fetching enabled with access key present")
	}
	if cfg.Unsplash.HourlyQuota != 50 {
		t.Fatalf("expected default hourly quota 50, got %d", cfg.Unsplash.HourlyQuota)
	}
	if cfg.Reconcile.BatchSize != config.Default().Reconcile.BatchSize {
		t.Fatalf("unexpected batch size: %d", cfg.Reconcile.BatchSize)
	}
	if cfg.LockPath() != filepath.Join(cfg.Paths.StateDir, "curator.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.AssetDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadWithoutAccessKeyDisablesFetching(t *testing.T) {
	t.Setenv("UNSPLASH_ACCESS_KEY", "")
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FetchEnabled() {
		t.Fatal("expected fetching disabled without access key")
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("UNSPLASH_ACCESS_KEY", "")
	t.Setenv("CURATOR_CATALOG_DSN", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "curator.toml")

	type payload struct {
		Paths struct {
			AssetDir     string `toml:"asset_dir"`
			PublicPrefix string `toml:"public_prefix"`
		} `toml:"paths"`
		Catalog struct {
			Driver string `toml:"driver"`
			DSN    string `toml:"dsn"`
		} `toml:"catalog"`
		Unsplash struct {
			AccessKey string `toml:"access_key"`
			BaseURL   string `toml:"base_url"`
		} `toml:"unsplash"`
		Reconcile struct {
			BatchSize int `toml:"batch_size"`
		} `toml:"reconcile"`
	}
	custom := payload{}
	custom.Paths.AssetDir = filepath.Join(tempDir, "images")
	custom.Paths.PublicPrefix = "/media"
	custom.Catalog.Driver = "Postgres"
	custom.Catalog.DSN = "postgres://curator@localhost/brain"
	custom.Unsplash.AccessKey = "abc123"
	custom.Unsplash.BaseURL = "https://example.com/unsplash/"
	custom.Reconcile.BatchSize = 5
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.PublicPrefix != "/media/" {
		t.Fatalf("expected trailing slash on public prefix, got %q", cfg.Paths.PublicPrefix)
	}
	if cfg.Catalog.Driver != "postgres" {
		t.Fatalf("expected lowercased driver, got %q", cfg.Catalog.Driver)
	}
	if cfg.Catalog.DSN != "postgres://curator@localhost/brain" {
		t.Fatalf("postgres dsn must not be path-expanded, got %q", cfg.Catalog.DSN)
	}
	if cfg.Unsplash.AccessKey != "abc123" {
		t.Fatalf("expected access key from file, got %q", cfg.Unsplash.AccessKey)
	}
	if cfg.Unsplash.BaseURL != "https://example.com/unsplash" {
		t.Fatalf("expected trimmed base url, got %q", cfg.Unsplash.BaseURL)
	}
	if cfg.Reconcile.BatchSize != 5 {
		t.Fatalf("expected batch size 5, got %d", cfg.Reconcile.BatchSize)
	}
}

func TestEnvVarOverridesConfigFileForSecrets(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "curator.toml")

	contents := "[catalog]\ndsn = \"" + filepath.Join(tempDir, "file.db") + "\"\n\n[unsplash]\naccess_key = \"file-key\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	envDSN := filepath.Join(tempDir, "env.db")
	t.Setenv("UNSPLASH_ACCESS_KEY", "env-key")
	t.Setenv("CURATOR_CATALOG_DSN", envDSN)
	t.Setenv("CURATOR_NTFY_TOPIC", " https://ntfy.example/curator ")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Unsplash.AccessKey != "env-key" {
		t.Errorf("expected access key from env, got %q", cfg.Unsplash.AccessKey)
	}
	if cfg.Catalog.DSN != envDSN {
		t.Errorf("expected dsn from env, got %q", cfg.Catalog.DSN)
	}
	if cfg.Notify.NtfyTopic != "https://ntfy.example/curator" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notify.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "UNSPLASH_ACCESS_KEY") {
		t.Fatalf("sample config missing access key hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.AssetDir, "curator") {
			t.Fatalf("expected asset dir to contain curator, got %q", cfg.Paths.AssetDir)
		}
	}
	if cfg.Reconcile.BatchSize != config.Default().Reconcile.BatchSize {
		t.Fatalf("sample batch size drifted from default: %d", cfg.Reconcile.BatchSize)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown driver", func(c *config.Config) { c.Catalog.Driver = "mysql" }},
		{"empty dsn", func(c *config.Config) { c.Catalog.DSN = "" }},
		{"injected table", func(c *config.Config) { c.Catalog.Table = "markets; DROP TABLE x" }},
		{"bad created column", func(c *config.Config) { c.Catalog.CreatedColumn = "created at" }},
		{"zero batch", func(c *config.Config) { c.Reconcile.BatchSize = 0 }},
		{"negative fetch cap", func(c *config.Config) { c.Reconcile.MaxFetchesPerRun = -1 }},
		{"zero quota", func(c *config.Config) { c.Unsplash.HourlyQuota = 0 }},
		{"bad orientation", func(c *config.Config) { c.Unsplash.Orientation = "diagonal" }},
		{"relative prefix", func(c *config.Config) { c.Paths.PublicPrefix = "static/" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bare ntfy topic", func(c *config.Config) { c.Notify.NtfyTopic = "my-topic" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
