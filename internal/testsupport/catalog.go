package testsupport

import (
	"context"
	"errors"
	"slices"
	"sync"

	"curator/internal/catalog"
)

// MemoryCatalog is an in-memory catalog.Adapter that records writes.
type MemoryCatalog struct {
	mu          sync.Mutex
	entries     map[string]catalog.Entry
	writes      []Write
	failIDs     map[string]error
	unavailable bool
}

// Write is one recorded UpdateReference call.
type Write struct {
	ID        string
	Reference string
}

// NewMemoryCatalog seeds a catalog with entries.
func NewMemoryCatalog(entries ...catalog.Entry) *MemoryCatalog {
	m := &MemoryCatalog{entries: make(map[string]catalog.Entry), failIDs: make(map[string]error)}
	for _, entry := range entries {
		m.entries[entry.ID] = entry
	}
	return m
}

// FailWrites makes UpdateReference fail for id with err.
func (m *MemoryCatalog) FailWrites(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failIDs[id] = err
}

// SetUnavailable makes List fail with catalog.ErrUnavailable.
func (m *MemoryCatalog) SetUnavailable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = v
}

// List returns a copy of every entry.
func (m *MemoryCatalog) List(context.Context) ([]catalog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, catalog.Unavailable("memory catalog", errors.New("offline"))
	}
	out := make([]catalog.Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry)
	}
	catalog.SortEntries(out)
	return out, nil
}

// UpdateReference rewrites one entry and records the write.
func (m *MemoryCatalog) UpdateReference(_ context.Context, id, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failIDs[id]; ok {
		return &catalog.WriteError{ID: id, Err: err}
	}
	entry, ok := m.entries[id]
	if !ok {
		return &catalog.WriteError{ID: id, Err: catalog.ErrNotFound}
	}
	entry.Reference = reference
	m.entries[id] = entry
	m.writes = append(m.writes, Write{ID: id, Reference: reference})
	return nil
}

// Writes returns the recorded writes in call order.
func (m *MemoryCatalog) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.writes)
}

// Reference returns the current reference of id.
func (m *MemoryCatalog) Reference(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id].Reference
}
