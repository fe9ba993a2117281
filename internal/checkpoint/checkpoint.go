// Package checkpoint persists what one reconciliation run hands to the next:
// the rotation cursor, recent external API call times for the hourly quota,
// and a summary of the last run.
//
// The checkpoint is advisory. Classification always comes from a fresh scan;
// losing the file only resets the cursor and the quota history.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"curator/internal/logging"
)

const currentVersion = 1

// Counts mirrors the scanner's issue counts at one point in a run.
type Counts struct {
	Entries    int `json:"entries"`
	OK         int `json:"ok"`
	Duplicates int `json:"duplicates"`
	Missing    int `json:"missing"`
}

// Summary describes a finished run.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Before     Counts    `json:"before"`
	After      Counts    `json:"after"`
	Applied    int       `json:"applied"`
	Unresolved int       `json:"unresolved"`
	FetchCalls int       `json:"fetch_calls"`
}

// State is the persisted checkpoint.
type State struct {
	Version   int         `json:"version"`
	Cursor    string      `json:"cursor,omitempty"`
	APICalls  []time.Time `json:"api_calls,omitempty"`
	LastRun   *Summary    `json:"last_run,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store reads and writes the checkpoint file. An empty path disables it.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore returns a store backed by path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{path: path, logger: logging.NewComponentLogger(logger, "checkpoint")}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string { return s.path }

// Load returns the saved state. A missing file yields a zero state; an
// unreadable or corrupt file is logged and also yields a zero state.
func (s *Store) Load() State {
	if s.path == "" {
		return State{Version: currentVersion}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		logging.WarnWithContext(s.logger, "failed to load checkpoint", "checkpoint_load_failed",
			logging.Error(err),
			logging.String("path", s.path),
			logging.String(logging.FieldErrorHint, "delete the checkpoint file if it keeps failing"),
			logging.String(logging.FieldImpact, "cursor and quota history start empty"),
		)
		return State{Version: currentVersion}
	}
	return state
}

func (s *Store) read() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{Version: currentVersion}, nil
		}
		return State{}, fmt.Errorf("read checkpoint: %w", err)
	}
	if len(data) == 0 {
		return State{Version: currentVersion}, nil
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parse checkpoint: %w", err)
	}
	if state.Version > currentVersion {
		return State{}, fmt.Errorf("checkpoint version %d is newer than supported %d", state.Version, currentVersion)
	}
	state.Version = currentVersion
	slices.SortFunc(state.APICalls, func(a, b time.Time) int { return a.Compare(b) })
	return state, nil
}

// Save writes state atomically.
func (s *Store) Save(state State) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(state)
}

// RecordAPICall appends one quota-bearing call made outside a run and drops
// calls older than window. An unreadable checkpoint is replaced.
func (s *Store) RecordAPICall(at time.Time, window time.Duration) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		state = State{Version: currentVersion}
	}
	cutoff := at.Add(-window)
	state.APICalls = slices.DeleteFunc(state.APICalls, func(t time.Time) bool { return !t.After(cutoff) })
	state.APICalls = append(state.APICalls, at.UTC())
	state.UpdatedAt = time.Time{}
	return s.write(state)
}

func (s *Store) write(state State) error {
	state.Version = currentVersion
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	s.logger.Debug("saved checkpoint", logging.String("cursor", state.Cursor), logging.Int("api_calls", len(state.APICalls)))
	return nil
}
