package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	AssetDir     string `toml:"asset_dir"`
	PublicPrefix string `toml:"public_prefix"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Catalog describes how to reach the record store and which columns hold the
// fields the reconciler reads.
type Catalog struct {
	Driver          string `toml:"driver"`
	DSN             string `toml:"dsn"`
	Table           string `toml:"table"`
	IDColumn        string `toml:"id_column"`
	TitleColumn     string `toml:"title_column"`
	CategoryColumn  string `toml:"category_column"`
	ReferenceColumn string `toml:"reference_column"`
	// CreatedColumn is optional. When set, duplicate groups pick the
	// earliest-created owner as canonical.
	CreatedColumn string `toml:"created_column"`
}

// Unsplash contains configuration for the external image search API.
type Unsplash struct {
	Enabled        bool   `toml:"enabled"`
	AccessKey      string `toml:"access_key"`
	BaseURL        string `toml:"base_url"`
	Orientation    string `toml:"orientation"`
	MinIntervalMS  int    `toml:"min_interval_ms"`
	HourlyQuota    int    `toml:"hourly_quota"`
	RequestTimeout int    `toml:"request_timeout"`
	MinBytes       int    `toml:"min_bytes"`
}

// Reconcile contains per-run limits for the reconciliation pipeline.
type Reconcile struct {
	BatchSize        int    `toml:"batch_size"`
	MaxEntriesPerRun int    `toml:"max_entries_per_run"`
	MaxFetchesPerRun int    `toml:"max_fetches_per_run"`
	FetchWorkers     int    `toml:"fetch_workers"`
	ScanWorkers      int    `toml:"scan_workers"`
	QueryVariants    int    `toml:"query_variants"`
	PagesPerQuery    int    `toml:"pages_per_query"`
	OverridesPath    string `toml:"overrides_path"`
}

// Notify contains configuration for run notifications.
type Notify struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	// OnlyIssues suppresses notifications for runs that leave nothing behind.
	OnlyIssues bool `toml:"only_issues"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for curator.
//
// Configuration sections by subsystem:
//   - Paths: asset root, public URL prefix, state and log directories
//   - Catalog: record store driver, DSN, and column mapping
//   - Unsplash: external image search credentials and quotas
//   - Reconcile: batch sizes, per-run caps, worker counts, overrides file
//   - Notify: ntfy topic for run outcome notifications
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Catalog   Catalog   `toml:"catalog"`
	Unsplash  Unsplash  `toml:"unsplash"`
	Reconcile Reconcile `toml:"reconcile"`
	Notify    Notify    `toml:"notify"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curator/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("curator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The asset
// directory is created as well so fetched assets have somewhere to land; an
// empty asset directory simply means every reference classifies as missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.AssetDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the run lock file guarding concurrent reconciliations.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "curator.lock")
}

// CheckpointPath returns the JSON checkpoint written after every batch.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.Paths.StateDir, "checkpoint.json")
}

// FetchEnabled reports whether the external image source can be used. A
// missing access key disables fetching without failing validation so that
// scan and doctor keep working.
func (c *Config) FetchEnabled() bool {
	return c.Unsplash.Enabled && c.Unsplash.AccessKey != ""
}

// MinInterval returns the minimum delay between external API requests.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Unsplash.MinIntervalMS) * time.Millisecond
}

// RequestTimeout returns the HTTP timeout for external requests.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Unsplash.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
