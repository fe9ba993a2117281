package sqlitecat

import (
	"context"
	"fmt"

	"curator/internal/catalog"
)

// CreateTable creates the configured catalog table when it does not exist.
func (s *Store) CreateTable(ctx context.Context) error {
	created := ""
	if s.cols.Created != "" {
		created = fmt.Sprintf(",\n    %s TEXT", s.cols.Created)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s TEXT PRIMARY KEY,
    %s TEXT NOT NULL DEFAULT '',
    %s TEXT NOT NULL DEFAULT '',
    %s TEXT%s
)`, s.cols.Table, s.cols.ID, s.cols.Title, s.cols.Category, s.cols.Reference, created)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create catalog table: %w", err)
	}
	return nil
}

// Insert adds an entry. It exists for seeding local catalogs and tests; the
// reconciler never creates entries.
func (s *Store) Insert(ctx context.Context, entry catalog.Entry) error {
	columns := fmt.Sprintf("%s, %s, %s, %s", s.cols.ID, s.cols.Title, s.cols.Category, s.cols.Reference)
	placeholders := "?, ?, ?, ?"
	args := []any{entry.ID, entry.Title, entry.Category, nullableString(entry.Reference)}
	if s.cols.Created != "" {
		columns += ", " + s.cols.Created
		placeholders += ", ?"
		if entry.HasCreatedAt() {
			args = append(args, entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		} else {
			args = append(args, nil)
		}
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.cols.Table, columns, placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert entry %s: %w", entry.ID, err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
