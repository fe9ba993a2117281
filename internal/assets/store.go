package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrExists reports that a write would replace an existing asset.
var ErrExists = errors.New("asset already exists")

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// IsImageName reports whether name carries a known image extension.
func IsImageName(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(name)))
}

// Store writes and enumerates assets under a root directory.
type Store struct {
	resolver Resolver
}

// NewStore returns a store rooted at the resolver's root.
func NewStore(resolver Resolver) *Store {
	return &Store{resolver: resolver}
}

// Resolver returns the resolver the store writes through.
func (s *Store) Resolver() Resolver { return s.resolver }

// Write persists data as name under the root. The file appears atomically:
// it is written to a temporary sibling and renamed into place. Existing files
// are never overwritten.
func (s *Store) Write(name string, data []byte) (string, error) {
	target, reason := s.resolver.Resolve(name)
	if reason != ReasonNone {
		return "", fmt.Errorf("asset name %q: %s", name, reason)
	}
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create asset directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".curator-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return target, nil
}

// Images lists image files under the root as absolute paths in lexical
// order. Hidden files and temporaries are skipped. A missing root yields no
// files.
func (s *Store) Images() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.resolver.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == s.resolver.Root {
				return filepath.SkipAll
			}
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != s.resolver.Root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() || !IsImageName(name) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk asset root: %w", err)
	}
	return paths, nil
}
