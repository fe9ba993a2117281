// Package scanner classifies catalog entries against the assets on disk.
//
// Every reconciliation begins with a fresh scan: references are resolved under
// the asset root, each distinct file is hashed once, and entries are grouped
// by digest into OK, DUPLICATE and MISSING. The scan is read-only.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"curator/internal/assets"
	"curator/internal/catalog"
	"curator/internal/digest"
	"curator/internal/logging"
)

const defaultWorkers = 4

// Scanner hashes and classifies.
type Scanner struct {
	resolver assets.Resolver
	store    *assets.Store
	workers  int
	logger   *slog.Logger
}

// Option customises a Scanner.
type Option func(*Scanner)

// WithWorkers bounds the number of files hashed concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a scanner over the resolver's asset root.
func New(resolver assets.Resolver, opts ...Option) *Scanner {
	s := &Scanner{
		resolver: resolver,
		store:    assets.NewStore(resolver),
		workers:  defaultWorkers,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "scanner")
	return s
}

type hashed struct {
	digest digest.Digest
	reason assets.Reason
	err    error
}

// Scan classifies entries. Only context cancellation and a failure to walk the
// asset root are returned as errors; unreadable files classify as MISSING.
func (s *Scanner) Scan(ctx context.Context, entries []catalog.Entry) (*Result, error) {
	sorted := slices.Clone(entries)
	catalog.SortEntries(sorted)

	result := &Result{}
	entryPaths := make(map[string]string, len(sorted))
	var paths []string
	seen := make(map[string]struct{})
	for _, entry := range sorted {
		path, reason := s.resolver.Resolve(entry.Reference)
		if reason != assets.ReasonNone {
			result.Missing = append(result.Missing, Missing{Entry: entry, Reason: reason})
			continue
		}
		entryPaths[entry.ID] = path
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}

	diskImages, err := s.store.Images()
	if err != nil {
		return nil, err
	}
	for _, path := range diskImages {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}

	hashes, err := s.hashAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	owners := make(map[digest.Digest][]catalog.Entry)
	ownerPath := make(map[digest.Digest]string)
	for _, entry := range sorted {
		path, ok := entryPaths[entry.ID]
		if !ok {
			continue
		}
		h := hashes[path]
		if h.reason != assets.ReasonNone {
			result.Missing = append(result.Missing, Missing{Entry: entry, Reason: h.reason, Err: h.err})
			continue
		}
		owners[h.digest] = append(owners[h.digest], entry)
		if _, ok := ownerPath[h.digest]; !ok {
			ownerPath[h.digest] = path
		}
	}

	for d, group := range owners {
		if len(group) == 1 {
			result.OK = append(result.OK, Owned{Entry: group[0], Digest: d, Path: ownerPath[d]})
			continue
		}
		canonical, _ := catalog.Canonical(group)
		violations := make([]catalog.Entry, 0, len(group)-1)
		for _, entry := range group {
			if entry.ID != canonical.ID {
				violations = append(violations, entry)
			}
		}
		result.Duplicates = append(result.Duplicates, Group{
			Digest:     d,
			Path:       ownerPath[d],
			Canonical:  canonical,
			Violations: violations,
		})
	}

	result.Orphans = orphans(diskImages, hashes, owners, s.resolver)

	slices.SortFunc(result.OK, func(a, b Owned) int { return catalog.CompareIDs(a.Entry.ID, b.Entry.ID) })
	slices.SortFunc(result.Duplicates, func(a, b Group) int { return catalog.CompareIDs(a.Canonical.ID, b.Canonical.ID) })
	slices.SortFunc(result.Missing, func(a, b Missing) int { return catalog.CompareIDs(a.Entry.ID, b.Entry.ID) })

	counts := result.Counts()
	s.logger.Info("scan complete",
		logging.Int("entries", counts.Entries),
		logging.Int("ok", counts.OK),
		logging.Int("duplicate_groups", counts.DuplicateGroups),
		logging.Int("duplicates", counts.Duplicates),
		logging.Int("missing", counts.Missing),
		logging.Int("orphans", counts.Orphans),
		logging.Int("files_hashed", len(paths)),
	)
	return result, nil
}

func (s *Scanner) hashAll(ctx context.Context, paths []string) (map[string]hashed, error) {
	out := make([]hashed, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = hashFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan assets: %w", err)
	}

	byPath := make(map[string]hashed, len(paths))
	for i, path := range paths {
		byPath[path] = out[i]
		if out[i].reason == assets.ReasonUnreadable {
			s.logger.Debug("asset unreadable", logging.String("path", path), logging.Error(out[i].err))
		}
	}
	return byPath, nil
}

func hashFile(path string) hashed {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return hashed{reason: assets.ReasonNotFound, err: err}
		}
		return hashed{reason: assets.ReasonUnreadable, err: &digest.ReadError{Path: path, Err: err}}
	}
	if info.IsDir() {
		return hashed{reason: assets.ReasonNotFound}
	}
	d, err := digest.File(path)
	if err != nil {
		return hashed{reason: assets.ReasonUnreadable, err: err}
	}
	return hashed{digest: d}
}

// orphans keeps on-disk images nobody references whose digest is owned by no
// entry and appears in exactly one file.
func orphans(diskImages []string, hashes map[string]hashed, owners map[digest.Digest][]catalog.Entry, resolver assets.Resolver) []Orphan {
	occurrences := make(map[digest.Digest]int)
	for _, h := range hashes {
		if h.reason == assets.ReasonNone {
			occurrences[h.digest]++
		}
	}

	var out []Orphan
	for _, path := range diskImages {
		h := hashes[path]
		if h.reason != assets.ReasonNone {
			continue
		}
		if _, owned := owners[h.digest]; owned {
			continue
		}
		if occurrences[h.digest] != 1 {
			continue
		}
		out = append(out, Orphan{Digest: h.digest, Path: path, Name: resolver.Name(path)})
	}
	slices.SortFunc(out, func(a, b Orphan) int { return strings.Compare(a.Path, b.Path) })
	return out
}
