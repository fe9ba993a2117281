// Package pgcat implements catalog.Adapter on top of a PostgreSQL table
// through a pgx connection pool.
package pgcat

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"curator/internal/catalog"
	"curator/internal/config"
)

const defaultMaxConns = 4

// Store reads and updates catalog entries in a Postgres table.
type Store struct {
	pool *pgxpool.Pool
	cols catalog.Columns
}

// Open parses the DSN and builds a pool. pgxpool connects lazily, so Open
// also pings once to surface an unreachable server as catalog.ErrUnavailable.
func Open(ctx context.Context, cfg config.Catalog) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, catalog.Unavailable("parse postgres dsn", err)
	}
	poolCfg.MaxConns = defaultMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, catalog.Unavailable("connect postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, catalog.Unavailable("ping postgres", err)
	}
	return &Store{pool: pool, cols: catalog.ColumnsFromConfig(cfg)}, nil
}

// Close releases pooled connections.
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ping checks that the catalog table can be queried.
func (s *Store) Ping(ctx context.Context) error {
	var count int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(1) FROM %s", s.cols.Table)).Scan(&count); err != nil {
		return catalog.Unavailable("query "+s.cols.Table, err)
	}
	return nil
}

// List returns every entry in the table. Text columns are cast so integer
// and uuid ids read back as strings.
func (s *Store) List(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := s.pool.Query(ctx, s.cols.SelectList("%s::text"))
	if err != nil {
		return nil, catalog.Unavailable("list entries", err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var (
			id, title, category, reference pgtype.Text
			created                        any
		)
		dest := []any{&id, &title, &category, &reference}
		if s.cols.Created != "" {
			dest = append(dest, &created)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, catalog.Unavailable("scan entry", err)
		}
		entries = append(entries, catalog.Entry{
			ID:        strings.TrimSpace(id.String),
			Title:     title.String,
			Category:  category.String,
			Reference: strings.TrimSpace(reference.String),
			CreatedAt: catalog.ParseTimestamp(created),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, catalog.Unavailable("iterate entries", err)
	}
	return entries, nil
}

// UpdateReference rewrites a single entry's reference.
func (s *Store) UpdateReference(ctx context.Context, id, reference string) error {
	tag, err := s.pool.Exec(ctx, updateQuery(s.cols), reference, id)
	if err != nil {
		return &catalog.WriteError{ID: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &catalog.WriteError{ID: id, Err: catalog.ErrNotFound}
	}
	return nil
}

func updateQuery(cols catalog.Columns) string {
	return fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s::text = $2", cols.Table, cols.Reference, cols.ID)
}
