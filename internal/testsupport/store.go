package testsupport

import (
	"context"
	"testing"

	"curator/internal/catalog"
	"curator/internal/catalog/sqlitecat"
	"curator/internal/config"
)

// MustOpenCatalog opens the SQLite catalog described by cfg, creates the
// table, seeds entries, and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config, entries ...catalog.Entry) *sqlitecat.Store {
	t.Helper()

	ctx := context.Background()
	store, err := sqlitecat.Open(ctx, cfg.Catalog)
	if err != nil {
		t.Fatalf("sqlitecat.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	for _, entry := range entries {
		if err := store.Insert(ctx, entry); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	return store
}
