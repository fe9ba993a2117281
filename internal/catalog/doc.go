// Package catalog defines the record store contract the reconciler runs
// against.
//
// The core only ever lists entries and rewrites a single entry's reference.
// Concrete adapters live in subpackages: sqlitecat (modernc SQLite) and pgcat
// (pgx connection pool). Both map a configurable table and column set onto
// Entry so the same binary can reconcile any catalog shaped like a "markets"
// table.
//
// Failures come in two flavours. ErrUnavailable means the store cannot be
// reached at all and the run must abort before writing anything. WriteError
// is scoped to one entry; the reconciler records it and moves on.
package catalog
