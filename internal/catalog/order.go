package catalog

import (
	"math/big"
	"slices"
	"strings"
)

// CompareIDs orders entry ids: ids that are base-10 integers come first in
// numeric order, then all other ids lexicographically. Numeric ties such as
// "007" and "7" fall back to lexicographic order, so the result is total.
func CompareIDs(a, b string) int {
	na, aNum := parseNumeric(a)
	nb, bNum := parseNumeric(b)
	switch {
	case aNum && bNum:
		if c := na.Cmp(nb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case aNum:
		return -1
	case bNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortEntries sorts entries in place by CompareIDs.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int { return CompareIDs(a.ID, b.ID) })
}

// SortIDs sorts ids in place by CompareIDs.
func SortIDs(ids []string) {
	slices.SortFunc(ids, CompareIDs)
}

// Canonical returns the owner that keeps a shared asset. When every owner has
// a creation time the earliest wins (ties broken by id); otherwise the
// smallest id wins.
func Canonical(owners []Entry) (Entry, bool) {
	if len(owners) == 0 {
		return Entry{}, false
	}
	allDated := true
	for _, owner := range owners {
		if !owner.HasCreatedAt() {
			allDated = false
			break
		}
	}
	best := owners[0]
	for _, owner := range owners[1:] {
		if allDated {
			if owner.CreatedAt.Before(best.CreatedAt) {
				best = owner
				continue
			}
			if owner.CreatedAt.After(best.CreatedAt) {
				continue
			}
		}
		if CompareIDs(owner.ID, best.ID) < 0 {
			best = owner
		}
	}
	return best, true
}

func parseNumeric(id string) (*big.Int, bool) {
	if id == "" {
		return nil, false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return nil, false
		}
	}
	n, ok := new(big.Int).SetString(id, 10)
	return n, ok
}
