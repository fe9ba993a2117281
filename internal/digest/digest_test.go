package digest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileIsContentOnly(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "nested", "other-name.png")
	if err := os.MkdirAll(filepath.Dir(b), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("same bytes"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	da, err := File(a)
	if err != nil {
		t.Fatalf("File(a): %v", err)
	}
	db, err := File(b)
	if err != nil {
		t.Fatalf("File(b): %v", err)
	}
	if da != db {
		t.Fatalf("expected identical digests, got %s and %s", da, db)
	}
	if da != Bytes([]byte("same bytes")) {
		t.Fatalf("File and Bytes disagree: %s vs %s", da, Bytes([]byte("same bytes")))
	}
	if len(da) != 64 || strings.ToLower(string(da)) != string(da) {
		t.Fatalf("expected lowercase hex sha256, got %q", da)
	}
}

func TestFileDistinguishesContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	_ = os.WriteFile(a, []byte("one"), 0o644)
	_ = os.WriteFile(b, []byte("two"), 0o644)

	da, _ := File(a)
	db, _ := File(b)
	if da == db {
		t.Fatal("expected different digests for different content")
	}
}

func TestFileMissingReturnsReadError(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "absent.jpg"))
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestReaderCountsBytes(t *testing.T) {
	d, n, err := Reader(strings.NewReader("abcdef"))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 bytes, got %d", n)
	}
	if d.Short() != string(d)[:12] {
		t.Fatalf("unexpected short form %q", d.Short())
	}
}
