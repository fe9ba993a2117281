// Package fetcher retrieves new assets from the external photo source.
//
// A fetch walks the planned query variants page by page. Each page yields one
// candidate which is downloaded, validated as an image, hashed locally, and
// claimed for the requesting entry. A candidate whose digest is already
// claimed in the run is skipped in favour of the next page. The accepted
// payload is written atomically under a name derived from the entry id and
// the digest, so no two entries ever share a fetched file.
//
// Every external call passes through a Scheduler that enforces the minimum
// spacing, the sliding hourly quota, and the per-run call budget.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"curator/internal/assets"
	"curator/internal/digest"
	"curator/internal/fetcher/unsplash"
	"curator/internal/logging"
	"curator/internal/textutil"
)

// Source is the search-then-download API.
type Source interface {
	Search(ctx context.Context, query string, page int) (unsplash.Photo, error)
	Download(ctx context.Context, url string) (unsplash.Payload, error)
}

// Claimer reserves digests for entries within a run.
type Claimer interface {
	Claim(d digest.Digest, owner string) bool
	Release(d digest.Digest, owner string)
}

// Request asks for one new asset.
type Request struct {
	EntryID  string
	Category string
	Queries  []string
}

// Asset is a fetched and persisted file.
type Asset struct {
	Digest    digest.Digest
	Path      string
	Name      string
	Reference string
	Query     string
	Page      int
	Size      int64
}

// Options tune a Fetcher.
type Options struct {
	PagesPerQuery int
	MinBytes      int64
	Logger        *slog.Logger
}

// Fetcher is safe for concurrent use.
type Fetcher struct {
	source    Source
	store     *assets.Store
	scheduler *Scheduler
	claims    Claimer
	pages     int
	minBytes  int64
	logger    *slog.Logger
}

// New wires a fetcher for one run.
func New(source Source, store *assets.Store, scheduler *Scheduler, claims Claimer, opts Options) *Fetcher {
	pages := opts.PagesPerQuery
	if pages <= 0 {
		pages = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		source:    source,
		store:     store,
		scheduler: scheduler,
		claims:    claims,
		pages:     pages,
		minBytes:  opts.MinBytes,
		logger:    logging.NewComponentLogger(logger, "fetcher"),
	}
}

// Fetch retrieves one asset for req. Failures are *FetchError unless ctx was
// cancelled, in which case ctx.Err() is returned.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Asset, error) {
	logger := f.logger.With(logging.String(logging.FieldEntryID, req.EntryID))
	last := &FetchError{Kind: KindNoResults, Err: errors.New("no queries planned")}

	for _, query := range req.Queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
	pages:
		for page := 1; page <= f.pages; page++ {
			asset, ferr := f.attempt(ctx, req, query, page)
			if ferr == nil {
				logger.Info("fetched asset",
					logging.String("query", query),
					logging.Int("page", page),
					logging.String("name", asset.Name),
					logging.String("digest", asset.Digest.Short()),
				)
				return asset, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Asset{}, ctxErr
			}
			ferr.Query, ferr.Page = query, page
			last = ferr
			logger.Debug("fetch attempt failed", logging.String("query", query), logging.Int("page", page), logging.Error(ferr))
			switch {
			case ferr.Terminal():
				return Asset{}, ferr
			case ferr.Kind == KindNoResults:
				// Later pages of the same query are empty too.
				break pages
			}
		}
	}
	return Asset{}, last
}

func (f *Fetcher) attempt(ctx context.Context, req Request, query string, page int) (Asset, *FetchError) {
	if ferr := f.acquire(ctx, CallSearch); ferr != nil {
		return Asset{}, ferr
	}
	photo, err := f.source.Search(ctx, query, page)
	if err != nil {
		f.scheduler.Forfeit()
		return Asset{}, classify(err)
	}

	if ferr := f.acquire(ctx, CallDownload); ferr != nil {
		return Asset{}, ferr
	}
	payload, err := f.source.Download(ctx, photo.URLs.Regular)
	if err != nil {
		if errors.Is(err, unsplash.ErrTooLarge) {
			return Asset{}, &FetchError{Kind: KindNotImage, Err: err}
		}
		return Asset{}, classify(err)
	}

	ext, ferr := inspect(payload.Data, f.minBytes)
	if ferr != nil {
		return Asset{}, ferr
	}

	sum := digest.Bytes(payload.Data)
	if !f.claims.Claim(sum, req.EntryID) {
		return Asset{}, &FetchError{Kind: KindDuplicate, Err: fmt.Errorf("digest %s already claimed", sum.Short())}
	}

	name := AssetName(req.Category, req.EntryID, sum, ext)
	path, err := f.store.Write(name, payload.Data)
	if errors.Is(err, assets.ErrExists) {
		// Same entry, same content: a previous run already persisted it.
		path, err = f.existing(name, sum)
	}
	if err != nil {
		f.claims.Release(sum, req.EntryID)
		return Asset{}, &FetchError{Kind: KindStore, Err: err}
	}
	return Asset{
		Digest:    sum,
		Path:      path,
		Name:      name,
		Reference: f.store.Resolver().Reference(name),
		Query:     query,
		Page:      page,
		Size:      int64(len(payload.Data)),
	}, nil
}

func (f *Fetcher) existing(name string, want digest.Digest) (string, error) {
	path, reason := f.store.Resolver().Resolve(name)
	if reason != assets.ReasonNone {
		return "", fmt.Errorf("asset name %q: %s", name, reason)
	}
	got, err := digest.File(path)
	if err != nil {
		return "", err
	}
	if got != want {
		return "", fmt.Errorf("%w: %s holds different content", assets.ErrExists, filepath.Base(path))
	}
	return path, nil
}

func (f *Fetcher) acquire(ctx context.Context, kind CallKind) *FetchError {
	err := f.scheduler.Acquire(ctx, kind)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBudgetExhausted):
		return &FetchError{Kind: KindBudget, Err: err}
	case errors.Is(err, ErrQuotaExhausted):
		return &FetchError{Kind: KindQuota, Err: err}
	default:
		return &FetchError{Kind: KindHTTP, Err: err}
	}
}

func classify(err error) *FetchError {
	var statusErr *unsplash.StatusError
	switch {
	case errors.Is(err, unsplash.ErrNoResults):
		return &FetchError{Kind: KindNoResults, Err: err}
	case errors.As(err, &statusErr) && statusErr.RateLimited():
		return &FetchError{Kind: KindQuota, Err: err}
	default:
		return &FetchError{Kind: KindHTTP, Err: err}
	}
}

// AssetName derives the file name for a fetched asset. The leading token is
// the category key the fallback pool files assets under.
func AssetName(category, entryID string, sum digest.Digest, ext string) string {
	return fmt.Sprintf("%s_%s_%s%s", textutil.CategoryKey(category), textutil.SanitizeToken(entryID), sum.Short(), ext)
}
