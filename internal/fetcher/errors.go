package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindBudget    Kind = "budget"
	KindQuota     Kind = "quota"
	KindNoResults Kind = "no_results"
	KindHTTP      Kind = "http"
	KindTooSmall  Kind = "too_small"
	KindNotImage  Kind = "not_image"
	KindDuplicate Kind = "duplicate"
	KindStore     Kind = "store"
)

// FetchError reports why no asset could be fetched for an entry. It carries
// the last failure observed across all query variants.
type FetchError struct {
	Kind  Kind
	Query string
	Page  int
	Err   error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s", e.Kind)
	if e.Query != "" {
		msg += fmt.Sprintf(" (query %q page %d)", e.Query, e.Page)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Terminal reports whether the run should stop fetching altogether.
func (e *FetchError) Terminal() bool {
	return e.Kind == KindBudget || e.Kind == KindQuota
}

// KindOf returns the kind of a FetchError in err's chain, or "".
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
