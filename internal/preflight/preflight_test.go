package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, 1<<62); result.Passed {
		t.Fatal("expected failure for absurd requirement")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "nope"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckCatalog(t *testing.T) {
	mem := testsupport.NewMemoryCatalog(catalog.Entry{ID: "1"})
	if result := CheckCatalog(context.Background(), mem); !result.Passed || result.Detail != "reachable (1 entries)" {
		t.Fatalf("unexpected result: %+v", result)
	}
	mem.SetUnavailable(true)
	if result := CheckCatalog(context.Background(), mem); result.Passed {
		t.Fatal("expected failure for unavailable catalog")
	}
}

func TestCheckUnsplash_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Client-ID good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	cfg := config.Default().Unsplash
	cfg.BaseURL = srv.URL
	cfg.AccessKey = "good-key"
	var calls []time.Time
	record := func(at time.Time) { calls = append(calls, at) }
	if result := CheckUnsplash(context.Background(), cfg, record); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	cfg.AccessKey = "bad-key"
	if result := CheckUnsplash(context.Background(), cfg, record); result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if len(calls) != 2 {
		t.Fatalf("expected both searches recorded, got %d", len(calls))
	}
}

func TestCheckUnsplash_Disabled(t *testing.T) {
	cfg := config.Default().Unsplash
	cfg.AccessKey = ""
	record := func(time.Time) { t.Fatal("no request expected without a key") }
	if result := CheckUnsplash(context.Background(), cfg, record); !result.Passed {
		t.Fatalf("missing key only disables fetching, got: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := RunAll(context.Background(), cfg, testsupport.NewMemoryCatalog())
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
