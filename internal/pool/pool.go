// Package pool indexes spare assets by category so the reconciler can rebind
// broken entries without creating new duplicates.
//
// Spare assets are the scanner's orphans: files on disk that no entry owns
// and whose content is unique. Each is filed under the category token that
// leads its filename ("sports_123_ab12cd.jpg" is a Sports asset). Candidates
// are handed out in ascending name order and each digest at most once per run.
package pool

import (
	"errors"
	"path"
	"slices"
	"strings"
	"sync"

	"curator/internal/digest"
	"curator/internal/scanner"
	"curator/internal/textutil"
)

// ErrExhausted reports that a category has no unclaimed candidates left.
var ErrExhausted = errors.New("fallback pool exhausted")

// Candidate is one spare asset.
type Candidate struct {
	Digest   digest.Digest
	Path     string
	Name     string
	Category string
}

type bucket struct {
	mu         sync.Mutex
	candidates []Candidate
	next       int
}

// Pools holds one ordered bucket per category key.
type Pools struct {
	buckets map[string]*bucket
}

// Categorizer maps an asset name to its category.
type Categorizer func(name string) string

// CategoryFromName reads the leading "<category>_" token of a filename.
// Names without an underscore have no category.
func CategoryFromName(name string) string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	idx := strings.Index(base, "_")
	if idx <= 0 {
		return ""
	}
	return base[:idx]
}

// Build indexes the orphans of a completed scan. A nil categorize uses
// CategoryFromName.
func Build(result *scanner.Result, categorize Categorizer) *Pools {
	if categorize == nil {
		categorize = CategoryFromName
	}
	p := &Pools{buckets: make(map[string]*bucket)}
	if result == nil {
		return p
	}
	for _, orphan := range result.Orphans {
		category := categorize(orphan.Name)
		if strings.TrimSpace(category) == "" {
			continue
		}
		key := textutil.CategoryKey(category)
		b, ok := p.buckets[key]
		if !ok {
			b = &bucket{}
			p.buckets[key] = b
		}
		b.candidates = append(b.candidates, Candidate{
			Digest:   orphan.Digest,
			Path:     orphan.Path,
			Name:     orphan.Name,
			Category: textutil.CanonicalCategory(category),
		})
	}
	for _, b := range p.buckets {
		slices.SortFunc(b.candidates, func(x, y Candidate) int { return strings.Compare(x.Name, y.Name) })
	}
	return p
}

// Next claims and returns the next candidate for category whose digest is not
// yet claimed. Candidates claimed elsewhere are skipped for good. Returns
// ErrExhausted when none remain.
func (p *Pools) Next(category string, claims *Claims, owner string) (Candidate, error) {
	if p == nil {
		return Candidate{}, ErrExhausted
	}
	b, ok := p.buckets[textutil.CategoryKey(category)]
	if !ok {
		return Candidate{}, ErrExhausted
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.next < len(b.candidates) {
		candidate := b.candidates[b.next]
		b.next++
		if claims.Claim(candidate.Digest, owner) {
			return candidate, nil
		}
	}
	return Candidate{}, ErrExhausted
}

// Return puts a candidate handed out by Next back at the head of its bucket
// so the next caller sees it first. Callers release the claim before
// returning the candidate.
func (p *Pools) Return(category string, candidate Candidate) {
	if p == nil {
		return
	}
	b, ok := p.buckets[textutil.CategoryKey(category)]
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := slices.IndexFunc(b.candidates[:b.next], func(c Candidate) bool { return c.Digest == candidate.Digest }); i >= 0 {
		b.candidates = slices.Delete(b.candidates, i, i+1)
		b.next--
	}
	b.candidates = slices.Insert(b.candidates, b.next, candidate)
}

// Remaining returns how many unvisited candidates a category still holds.
// Some of them may turn out to be claimed.
func (p *Pools) Remaining(category string) int {
	if p == nil {
		return 0
	}
	b, ok := p.buckets[textutil.CategoryKey(category)]
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.candidates) - b.next
}

// Size returns the total number of indexed candidates.
func (p *Pools) Size() int {
	if p == nil {
		return 0
	}
	total := 0
	for _, b := range p.buckets {
		total += len(b.candidates)
	}
	return total
}
