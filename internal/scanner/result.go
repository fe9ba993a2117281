package scanner

import (
	"curator/internal/assets"
	"curator/internal/catalog"
	"curator/internal/digest"
)

// Status classifies a catalog entry against the asset root.
type Status string

const (
	StatusOK        Status = "OK"
	StatusDuplicate Status = "DUPLICATE"
	StatusMissing   Status = "MISSING"
)

// Owned is an entry that resolves to an existing, readable asset.
type Owned struct {
	Entry  catalog.Entry
	Digest digest.Digest
	Path   string
}

// Group is a set of two or more entries sharing one asset digest. Canonical
// keeps the asset; every entry in Violations must be rebound.
type Group struct {
	Digest     digest.Digest
	Path       string
	Canonical  catalog.Entry
	Violations []catalog.Entry
}

// Missing is an entry whose reference names no usable local asset.
type Missing struct {
	Entry  catalog.Entry
	Reason assets.Reason
	Err    error
}

// Orphan is an asset under the root that no entry references and whose
// content is unique on disk.
type Orphan struct {
	Digest digest.Digest
	Path   string
	Name   string
}

// Result is a point-in-time classification of every entry.
type Result struct {
	OK         []Owned
	Duplicates []Group
	Missing    []Missing
	Orphans    []Orphan
}

// Counts summarises a Result for reports.
type Counts struct {
	Entries         int `json:"entries"`
	OK              int `json:"ok"`
	DuplicateGroups int `json:"duplicate_groups"`
	Duplicates      int `json:"duplicates"`
	Missing         int `json:"missing"`
	Orphans         int `json:"orphans"`
}

// Issues is the number of entries that still need repair.
func (c Counts) Issues() int { return c.Duplicates + c.Missing }

// Counts tallies the result. Canonical owners of duplicate groups count as OK.
func (r *Result) Counts() Counts {
	if r == nil {
		return Counts{}
	}
	c := Counts{
		OK:              len(r.OK) + len(r.Duplicates),
		DuplicateGroups: len(r.Duplicates),
		Missing:         len(r.Missing),
		Orphans:         len(r.Orphans),
	}
	for _, group := range r.Duplicates {
		c.Duplicates += len(group.Violations)
	}
	c.Entries = c.OK + c.Duplicates + c.Missing
	return c
}

// Issues is shorthand for Counts().Issues().
func (r *Result) Issues() int { return r.Counts().Issues() }

// StatusOf returns the classification of the entry with the given id.
func (r *Result) StatusOf(id string) (Status, bool) {
	if r == nil {
		return "", false
	}
	for _, owned := range r.OK {
		if owned.Entry.ID == id {
			return StatusOK, true
		}
	}
	for _, group := range r.Duplicates {
		if group.Canonical.ID == id {
			return StatusOK, true
		}
		for _, v := range group.Violations {
			if v.ID == id {
				return StatusDuplicate, true
			}
		}
	}
	for _, m := range r.Missing {
		if m.Entry.ID == id {
			return StatusMissing, true
		}
	}
	return "", false
}
