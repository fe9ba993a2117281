// Package overrides loads user-authored asset assignments that take
// precedence over automatic repair.
//
// The file is JSON or YAML (chosen by extension) in one of three shapes:
//
//	[{"entry_id": "42", "asset": "/static/images/sports_42.jpg", "note": "hand picked"}]
//	{"overrides": [ ...same as above... ]}
//	{"42": "/static/images/sports_42.jpg"}
//
// The file is re-read whenever its modification time changes, so edits apply
// to the next lookup without restarting a run.
package overrides

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"curator/internal/logging"
)

// Override pins a catalog entry to a specific asset reference.
type Override struct {
	EntryID string `json:"entry_id" yaml:"entry_id"`
	Asset   string `json:"asset" yaml:"asset"`
	Note    string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Catalog serves overrides from a file.
type Catalog struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	loaded  time.Time
	entries map[string]Override
}

// NewCatalog constructs a catalog backed by the provided file. An empty path
// yields nil, and a nil catalog answers every lookup with "no override".
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return &Catalog{
		path:   trimmed,
		logger: logging.NewComponentLogger(logger, "overrides"),
	}
}

// Lookup returns the override for entry id.
func (c *Catalog) Lookup(id string) (Override, bool, error) {
	if c == nil {
		return Override{}, false, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return Override{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.entries[strings.TrimSpace(id)]
	return o, ok, nil
}

// Len returns the number of loaded overrides.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	if err := c.ensureLoaded(); err != nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat overrides: %w", err)
	}

	c.mu.RLock()
	alreadyLoaded := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if alreadyLoaded {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read overrides: %w", err)
	}
	entries, err := parse(data, isYAML(c.path))
	if err != nil {
		return fmt.Errorf("parse overrides %s: %w", c.path, err)
	}

	byID := make(map[string]Override, len(entries))
	for _, entry := range entries {
		if entry.EntryID == "" || entry.Asset == "" {
			continue
		}
		byID[entry.EntryID] = entry
	}

	c.mu.Lock()
	c.entries = byID
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Info("loaded asset overrides", logging.String("path", c.path), logging.Int("count", len(byID)))
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// unmarshaler abstracts json.Unmarshal and yaml.Unmarshal.
type unmarshaler func([]byte, any) error

func parse(data []byte, yamlFormat bool) ([]Override, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	decode := unmarshaler(json.Unmarshal)
	if yamlFormat {
		decode = yaml.Unmarshal
	}

	var list []Override
	if err := decode(data, &list); err == nil {
		return normalize(list), nil
	}

	var wrapper struct {
		Overrides []Override `json:"overrides" yaml:"overrides"`
	}
	if err := decode(data, &wrapper); err == nil && wrapper.Overrides != nil {
		return normalize(wrapper.Overrides), nil
	}

	var mapping map[string]string
	if err := decode(data, &mapping); err != nil {
		return nil, fmt.Errorf("expected a list, an overrides wrapper, or an id-to-asset map: %w", err)
	}
	list = make([]Override, 0, len(mapping))
	for id, asset := range mapping {
		list = append(list, Override{EntryID: id, Asset: asset})
	}
	return normalize(list), nil
}

func normalize(entries []Override) []Override {
	out := make([]Override, 0, len(entries))
	for _, entry := range entries {
		entry.EntryID = strings.TrimSpace(entry.EntryID)
		entry.Asset = strings.TrimSpace(entry.Asset)
		entry.Note = strings.TrimSpace(entry.Note)
		out = append(out, entry)
	}
	return out
}
