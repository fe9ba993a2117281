// Package reconcile rebinds broken catalog entries to unique assets.
//
// Each task walks a fixed policy: an explicit override, then the category's
// fallback pool, then an external fetch. An entry that none of them can serve
// keeps its reference and is reported as unresolved. Every digest bound during
// a run is recorded in a shared claim set seeded with the digests of healthy
// entries, so no step can hand out an asset that another entry already owns.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"curator/internal/assets"
	"curator/internal/catalog"
	"curator/internal/digest"
	"curator/internal/fetcher"
	"curator/internal/logging"
	"curator/internal/overrides"
	"curator/internal/pool"
)

// OverrideSource looks up user-pinned assets.
type OverrideSource interface {
	Lookup(id string) (overrides.Override, bool, error)
}

// Fetcher retrieves a new asset from the external source.
type Fetcher interface {
	Fetch(ctx context.Context, req fetcher.Request) (fetcher.Asset, error)
}

// Planner derives search queries for an entry.
type Planner interface {
	Plan(entry catalog.Entry, k int) []string
}

// Deps are the collaborators of a Reconciler. Overrides and Fetcher may be
// nil; a nil Fetcher disables the external step.
type Deps struct {
	Catalog   catalog.Adapter
	Resolver  assets.Resolver
	Overrides OverrideSource
	Pools     *pool.Pools
	Claims    *pool.Claims
	Fetcher   Fetcher
	Planner   Planner
}

// Options tune a Reconciler.
type Options struct {
	QueryVariants int
	FetchWorkers  int
	DryRun        bool
	Logger        *slog.Logger
}

// Reconciler is built once per run so pools and claims span every batch.
type Reconciler struct {
	deps     Deps
	variants int
	workers  int
	dryRun   bool
	logger   *slog.Logger

	mu          sync.Mutex
	fetchHalted error
}

// New wires a reconciler.
func New(deps Deps, opts Options) *Reconciler {
	if deps.Claims == nil {
		deps.Claims = pool.NewClaims()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		deps:     deps,
		variants: max(opts.QueryVariants, 1),
		workers:  max(opts.FetchWorkers, 1),
		dryRun:   opts.DryRun,
		logger:   logging.NewComponentLogger(logger, "reconcile"),
	}
}

type slot struct {
	applied    *Applied
	unresolved *Unresolved
	needsFetch bool
	reasons    []string
}

// Reconcile processes tasks. Override and pool steps run sequentially in task
// order so assignments are deterministic; fetches then run concurrently up to
// the worker cap. The returned error is non-nil only when ctx is cancelled or
// the catalog becomes unavailable; committed writes stay in place either way.
func (r *Reconciler) Reconcile(ctx context.Context, tasks []Task) (Outcome, error) {
	slots := make([]slot, len(tasks))

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return collect(slots[:i]), err
		}
		s, err := r.local(ctx, task)
		if err != nil {
			return collect(slots[:i]), err
		}
		slots[i] = s
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range slots {
		if !slots[i].needsFetch {
			continue
		}
		g.Go(func() error {
			return r.remote(gctx, tasks[i], &slots[i])
		})
	}
	err := g.Wait()
	return collect(slots), err
}

// local tries the override and the pool.
func (r *Reconciler) local(ctx context.Context, task Task) (slot, error) {
	var s slot
	entry := task.Entry

	if asset, reason := r.override(entry.ID); reason != "" {
		s.reasons = append(s.reasons, reason)
	} else if asset != nil {
		ok, err := r.bind(ctx, task, asset.digest, asset.reference, MethodOverride, &s)
		if ok || err != nil {
			return s, err
		}
	}

	for {
		candidate, err := r.deps.Pools.Next(entry.Category, r.deps.Claims, entry.ID)
		if errors.Is(err, pool.ErrExhausted) {
			s.reasons = append(s.reasons, "pool exhausted")
			break
		}
		reference := r.deps.Resolver.Reference(candidate.Name)
		ok, err := r.bind(ctx, task, candidate.Digest, reference, MethodPool, &s)
		if ok && s.applied == nil {
			// The write failed and the claim is released; later entries may still use it.
			r.deps.Pools.Return(entry.Category, candidate)
		}
		if ok || err != nil {
			return s, err
		}
	}

	switch {
	case r.deps.Fetcher == nil:
		s.reasons = append(s.reasons, "fetching disabled")
	case r.dryRun:
		s.reasons = append(s.reasons, "fetch skipped in dry run")
	default:
		s.needsFetch = true
		return s, nil
	}
	r.unresolve(task, &s)
	return s, nil
}

// remote fetches a new asset for the task.
func (r *Reconciler) remote(ctx context.Context, task Task, s *slot) error {
	if halted := r.halted(); halted != nil {
		s.reasons = append(s.reasons, "fetch: "+halted.Error())
		r.unresolve(task, s)
		return nil
	}
	req := fetcher.Request{
		EntryID:  task.Entry.ID,
		Category: task.Entry.Category,
		Queries:  r.deps.Planner.Plan(task.Entry, r.variants),
	}
	asset, err := r.deps.Fetcher.Fetch(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var fe *fetcher.FetchError
		if errors.As(err, &fe) && fe.Terminal() {
			r.halt(fe)
		}
		s.reasons = append(s.reasons, "fetch: "+err.Error())
		r.unresolve(task, s)
		return nil
	}
	// The fetcher already claimed the digest for this entry.
	if _, err := r.bind(ctx, task, asset.Digest, asset.Reference, MethodFetch, s); err != nil {
		return err
	}
	return nil
}

type pinned struct {
	digest    digest.Digest
	reference string
}

// override returns the entry's pinned asset, or a reason it cannot be used.
func (r *Reconciler) override(id string) (*pinned, string) {
	if r.deps.Overrides == nil {
		return nil, ""
	}
	o, ok, err := r.deps.Overrides.Lookup(id)
	if err != nil {
		logging.WarnWithContext(r.logger, "override lookup failed", "override_lookup_failed",
			logging.String(logging.FieldEntryID, id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the overrides file syntax"),
			logging.String(logging.FieldImpact, "overrides ignored for this entry"),
		)
		return nil, "override unreadable"
	}
	if !ok {
		return nil, ""
	}
	path, reason := r.deps.Resolver.Resolve(o.Asset)
	if reason != assets.ReasonNone {
		return nil, fmt.Sprintf("override asset %s", reason)
	}
	sum, err := digest.File(path)
	if err != nil {
		return nil, "override asset unreadable"
	}
	if owner, taken := r.deps.Claims.Owner(sum); taken && owner != id {
		return nil, fmt.Sprintf("override asset already owned by %s", owner)
	}
	return &pinned{digest: sum, reference: r.deps.Resolver.Reference(r.deps.Resolver.Name(path))}, ""
}

// bind claims sum for the task's entry (unless already claimed by it) and
// writes the new reference. It reports false when the asset could not be used
// and the caller should try the next source.
func (r *Reconciler) bind(ctx context.Context, task Task, sum digest.Digest, reference string, method Method, s *slot) (bool, error) {
	entry := task.Entry
	if owner, taken := r.deps.Claims.Owner(sum); !taken {
		if !r.deps.Claims.Claim(sum, entry.ID) {
			return false, nil
		}
	} else if owner != entry.ID {
		return false, nil
	}

	if !r.dryRun {
		if err := r.deps.Catalog.UpdateReference(ctx, entry.ID, reference); err != nil {
			r.deps.Claims.Release(sum, entry.ID)
			if errors.Is(err, catalog.ErrUnavailable) {
				return false, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			logging.WarnWithContext(r.logger, "catalog write failed", "catalog_write_failed",
				logging.String(logging.FieldEntryID, entry.ID),
				logging.String("method", string(method)),
				logging.Error(err),
			)
			s.reasons = append(s.reasons, "write failed: "+err.Error())
			r.unresolve(task, s)
			return true, nil
		}
	}

	s.applied = &Applied{ID: entry.ID, Kind: task.Kind, OldRef: entry.Reference, NewRef: reference, Method: method}
	s.needsFetch = false
	r.logger.Info("reassigned entry",
		logging.String(logging.FieldEntryID, entry.ID),
		logging.String("kind", string(task.Kind)),
		logging.String("method", string(method)),
		logging.String("old_ref", entry.Reference),
		logging.String("new_ref", reference),
		logging.Bool("dry_run", r.dryRun),
	)
	return true, nil
}

func (r *Reconciler) unresolve(task Task, s *slot) {
	reason := strings.Join(s.reasons, "; ")
	s.unresolved = &Unresolved{ID: task.Entry.ID, Kind: task.Kind, Reason: reason}
	s.needsFetch = false
	r.logger.Debug("entry unresolved",
		logging.String(logging.FieldEntryID, task.Entry.ID),
		logging.String("kind", string(task.Kind)),
		logging.String("reason", reason),
	)
}

func (r *Reconciler) halt(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchHalted == nil {
		r.fetchHalted = err
		logging.WarnWithContext(r.logger, "external fetching stopped for this run", "fetch_halted",
			logging.Error(err),
			logging.Alert(string(fetcher.KindOf(err))),
			logging.String(logging.FieldErrorHint, "raise --max-fetches or wait for the hourly quota to recover"),
			logging.String(logging.FieldImpact, "remaining entries stay unresolved until the next run"),
		)
	}
}

func (r *Reconciler) halted() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchHalted
}

func collect(slots []slot) Outcome {
	out := NewOutcome()
	for _, s := range slots {
		switch {
		case s.applied != nil:
			out.Applied = append(out.Applied, *s.applied)
		case s.unresolved != nil:
			out.Unresolved = append(out.Unresolved, *s.unresolved)
		}
	}
	return out
}
