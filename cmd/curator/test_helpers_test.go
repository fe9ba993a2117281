package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"curator/internal/catalog"
	"curator/internal/catalog/sqlitecat"
	"curator/internal/config"
	"curator/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *sqlitecat.Store
	configPath string
}

// setupCLITestEnv writes a config pointing at temp directories and seeds a
// SQLite catalog. Fetching is disabled.
func setupCLITestEnv(t *testing.T, entries ...catalog.Entry) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("UNSPLASH_ACCESS_KEY", "")
	t.Setenv("CURATOR_CATALOG_DSN", "")

	cfg := testsupport.NewConfig(t, testsupport.WithoutFetching())
	cfg.Logging.Level = "error"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	store := testsupport.MustOpenCatalog(t, cfg, entries...)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, store: store, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
