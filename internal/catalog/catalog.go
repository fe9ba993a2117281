package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Entry is one catalog record as seen by the reconciler.
type Entry struct {
	ID        string
	Title     string
	Category  string
	Reference string
	// CreatedAt is zero when the catalog does not track creation time.
	CreatedAt time.Time
}

// HasCreatedAt reports whether the entry carries a creation timestamp.
func (e Entry) HasCreatedAt() bool { return !e.CreatedAt.IsZero() }

// Adapter is the narrow contract between the reconciler and a record store.
type Adapter interface {
	List(ctx context.Context) ([]Entry, error)
	UpdateReference(ctx context.Context, id, reference string) error
}

// ErrUnavailable marks failures to reach the catalog. Runs abort on it.
var ErrUnavailable = errors.New("catalog unavailable")

// ErrNotFound is wrapped by WriteError when the target entry does not exist.
var ErrNotFound = errors.New("entry not found")

// WriteError reports a failed reference update for a single entry.
type WriteError struct {
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("update entry %s: %v", e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Unavailable wraps err with ErrUnavailable and an operation label.
func Unavailable(operation string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, operation)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, operation, err)
}
