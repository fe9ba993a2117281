// Package sqlitecat implements catalog.Adapter on top of a SQLite database
// using the pure-Go modernc driver.
package sqlitecat

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"curator/internal/catalog"
	"curator/internal/config"
)

// Store reads and updates catalog entries in a SQLite table.
type Store struct {
	db   *sql.DB
	cols catalog.Columns
	dsn  string
}

// Open connects to the SQLite catalog and verifies the configured table is
// readable. Any failure is reported as catalog.ErrUnavailable.
func Open(ctx context.Context, cfg config.Catalog) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, catalog.Unavailable("open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, catalog.Unavailable(fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	return &Store{db: db, cols: catalog.ColumnsFromConfig(cfg), dsn: cfg.DSN}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the catalog table can be queried.
func (s *Store) Ping(ctx context.Context) error {
	query := fmt.Sprintf("SELECT COUNT(1) FROM %s", s.cols.Table)
	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return catalog.Unavailable("query "+s.cols.Table, err)
	}
	return nil
}

// List returns every entry in the table.
func (s *Store) List(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.cols.SelectList("%s"))
	if err != nil {
		return nil, catalog.Unavailable("list entries", err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		entry, err := s.scanEntry(rows)
		if err != nil {
			return nil, catalog.Unavailable("scan entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, catalog.Unavailable("iterate entries", err)
	}
	return entries, nil
}

func (s *Store) scanEntry(rows *sql.Rows) (catalog.Entry, error) {
	var (
		id        sql.NullString
		title     sql.NullString
		category  sql.NullString
		reference sql.NullString
		created   any
	)
	dest := []any{&id, &title, &category, &reference}
	if s.cols.Created != "" {
		dest = append(dest, &created)
	}
	if err := rows.Scan(dest...); err != nil {
		return catalog.Entry{}, err
	}
	return catalog.Entry{
		ID:        strings.TrimSpace(id.String),
		Title:     title.String,
		Category:  category.String,
		Reference: strings.TrimSpace(reference.String),
		CreatedAt: catalog.ParseTimestamp(created),
	}, nil
}

// UpdateReference rewrites a single entry's reference.
func (s *Store) UpdateReference(ctx context.Context, id, reference string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", s.cols.Table, s.cols.Reference, s.cols.ID)
	res, err := s.db.ExecContext(ctx, query, reference, id)
	if err != nil {
		return &catalog.WriteError{ID: id, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &catalog.WriteError{ID: id, Err: err}
	}
	if affected == 0 {
		return &catalog.WriteError{ID: id, Err: catalog.ErrNotFound}
	}
	return nil
}
