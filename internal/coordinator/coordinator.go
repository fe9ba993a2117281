package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"curator/internal/assets"
	"curator/internal/catalog"
	"curator/internal/checkpoint"
	"curator/internal/config"
	"curator/internal/fetcher"
	"curator/internal/logging"
	"curator/internal/pool"
	"curator/internal/query"
	"curator/internal/reconcile"
	"curator/internal/report"
	"curator/internal/scanner"
	"curator/internal/textutil"
)

// State is the coordinator's position in a run.
type State string

const (
	StateIdle        State = "idle"
	StateScanning    State = "scanning"
	StateReconciling State = "reconciling"
	StateReporting   State = "reporting"
)

var (
	// ErrLocked reports that another writing run holds the lock.
	ErrLocked = errors.New("another reconciliation run is in progress")
	// ErrIssuesRemain marks a finished run that left issues behind. Callers
	// map it to a non-zero exit status without printing it.
	ErrIssuesRemain = errors.New("issues remain")
)

// Options bound a single run.
type Options struct {
	BatchSize      int
	MaxEntries     int
	MaxFetches     int
	DryRun         bool
	CategoryFilter string
}

// OptionsFromConfig returns the configured run bounds.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BatchSize:  cfg.Reconcile.BatchSize,
		MaxEntries: cfg.Reconcile.MaxEntriesPerRun,
		MaxFetches: cfg.Reconcile.MaxFetchesPerRun,
	}
}

// Deps are the collaborators of a Coordinator. Source and Overrides may be
// nil.
type Deps struct {
	Config     *config.Config
	Catalog    catalog.Adapter
	Source     fetcher.Source
	Overrides  reconcile.OverrideSource
	Planner    reconcile.Planner
	Clock      fetcher.Clock
	Checkpoint *checkpoint.Store
	Logger     *slog.Logger
	// OnState observes state transitions.
	OnState func(State)
}

// Coordinator runs reconciliations.
type Coordinator struct {
	deps   Deps
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New builds a coordinator.
func New(deps Deps) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = fetcher.SystemClock{}
	}
	if deps.Planner == nil {
		deps.Planner = query.NewPlanner(nil, nil)
	}
	if deps.Checkpoint == nil {
		deps.Checkpoint = checkpoint.NewStore(deps.Config.CheckpointPath(), deps.Logger)
	}
	return &Coordinator{
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "coordinator"),
		state:  StateIdle,
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) transition(ctx context.Context, next State) context.Context {
	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
	if c.deps.OnState != nil {
		c.deps.OnState(next)
	}
	return logging.WithPhase(ctx, string(next))
}

func (c *Coordinator) resolver() assets.Resolver {
	return assets.NewResolver(c.deps.Config.Paths.AssetDir, c.deps.Config.Paths.PublicPrefix)
}

// Scan performs an audit-only classification.
func (c *Coordinator) Scan(ctx context.Context) (*scanner.Result, error) {
	ctx = c.transition(ctx, StateScanning)
	defer c.transition(ctx, StateIdle)
	return c.scan(ctx)
}

func (c *Coordinator) scan(ctx context.Context) (*scanner.Result, error) {
	entries, err := c.deps.Catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	s := scanner.New(c.resolver(),
		scanner.WithWorkers(c.deps.Config.Reconcile.ScanWorkers),
		scanner.WithLogger(logging.WithContext(ctx, c.deps.Logger)),
	)
	return s.Scan(ctx, entries)
}

// Run performs one bounded reconciliation and returns its report. Errors are
// fatal conditions only; a run that leaves issues behind still succeeds and
// the caller inspects report.Run.Remaining.
func (c *Coordinator) Run(ctx context.Context, opts Options) (report.Run, error) {
	if opts.BatchSize <= 0 {
		return report.Run{}, fmt.Errorf("batch size must be positive (got %d)", opts.BatchSize)
	}
	if opts.MaxEntries <= 0 {
		return report.Run{}, fmt.Errorf("max entries must be positive (got %d)", opts.MaxEntries)
	}
	if opts.MaxFetches < 0 {
		return report.Run{}, fmt.Errorf("max fetches must not be negative (got %d)", opts.MaxFetches)
	}

	if !opts.DryRun {
		lock := flock.New(c.deps.Config.LockPath())
		ok, err := lock.TryLock()
		if err != nil {
			return report.Run{}, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return report.Run{}, ErrLocked
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				c.logger.Warn("failed to release run lock", logging.Error(err))
			}
		}()
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, c.logger)
	defer c.transition(ctx, StateIdle)

	outcome := reconcile.NewOutcome()
	run := report.Run{
		RunID:      runID,
		DryRun:     opts.DryRun,
		StartedAt:  c.deps.Clock.Now(),
		Applied:    outcome.Applied,
		Unresolved: outcome.Unresolved,
	}
	state := c.deps.Checkpoint.Load()

	ctx = c.transition(ctx, StateScanning)
	before, err := c.scan(ctx)
	if err != nil {
		return run, err
	}
	run.Before = before.Counts()

	tasks := filterCategory(reconcile.Tasks(before), opts.CategoryFilter)
	tasks = rotate(tasks, state.Cursor)
	if len(tasks) > opts.MaxEntries {
		run.Deferred = len(tasks) - opts.MaxEntries
		tasks = tasks[:opts.MaxEntries]
	}
	logger.Info("run planned",
		logging.Int("tasks", len(tasks)),
		logging.Int("deferred", run.Deferred),
		logging.String("cursor", state.Cursor),
		logging.Bool("dry_run", opts.DryRun),
	)

	claims := pool.ClaimsFromScan(before)
	scheduler := fetcher.NewScheduler(c.deps.Clock, fetcher.SchedulerConfig{
		MinInterval: c.deps.Config.MinInterval(),
		HourlyQuota: c.deps.Config.Unsplash.HourlyQuota,
		Budget:      opts.MaxFetches,
		History:     state.APICalls,
	})
	rec := reconcile.New(reconcile.Deps{
		Catalog:   c.deps.Catalog,
		Resolver:  c.resolver(),
		Overrides: c.deps.Overrides,
		Pools:     pool.Build(before, nil),
		Claims:    claims,
		Fetcher:   c.fetcher(scheduler, claims, logger),
		Planner:   c.deps.Planner,
	}, reconcile.Options{
		QueryVariants: c.deps.Config.Reconcile.QueryVariants,
		FetchWorkers:  c.deps.Config.Reconcile.FetchWorkers,
		DryRun:        opts.DryRun,
		Logger:        logger,
	})

	for start := 0; start < len(tasks); start += opts.BatchSize {
		batch := tasks[start:min(start+opts.BatchSize, len(tasks))]
		ctx = c.transition(ctx, StateReconciling)
		run.Batches++

		result, err := rec.Reconcile(ctx, batch)
		outcome.Merge(result)
		run.Processed += len(result.Applied) + len(result.Unresolved)
		state.Cursor = batch[len(batch)-1].Entry.ID
		state.APICalls = scheduler.History()
		if !opts.DryRun {
			if saveErr := c.deps.Checkpoint.Save(state); saveErr != nil {
				logging.WarnWithContext(logger, "failed to save checkpoint", "checkpoint_save_failed",
					logging.Error(saveErr),
					logging.String(logging.FieldImpact, "next run may revisit the same entries first"),
				)
			}
		}
		if err != nil {
			run.Applied, run.Unresolved = outcome.Applied, outcome.Unresolved
			run.FetchCalls = scheduler.Used()
			return run, fmt.Errorf("batch %d: %w", run.Batches, err)
		}
		logger.Info("batch complete",
			logging.Int("batch", run.Batches),
			logging.Int("applied", len(result.Applied)),
			logging.Int("unresolved", len(result.Unresolved)),
			logging.Int("fetch_calls", scheduler.Used()),
		)
	}
	run.Applied, run.Unresolved = outcome.Applied, outcome.Unresolved
	run.FetchCalls = scheduler.Used()

	ctx = c.transition(ctx, StateScanning)
	after, err := c.scan(ctx)
	if err != nil {
		return run, err
	}
	run.After = after.Counts()

	c.transition(ctx, StateReporting)
	run.FinishedAt = c.deps.Clock.Now()
	if !opts.DryRun {
		state.LastRun = summarize(run)
		state.UpdatedAt = run.FinishedAt.UTC()
		if err := c.deps.Checkpoint.Save(state); err != nil {
			logging.WarnWithContext(logger, "failed to save checkpoint", "checkpoint_save_failed", logging.Error(err))
		}
	}
	logger.Info("run complete",
		logging.Int("applied", len(run.Applied)),
		logging.Int("unresolved", len(run.Unresolved)),
		logging.Int("remaining", run.Remaining()),
		logging.Duration("duration", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

func (c *Coordinator) fetcher(scheduler *fetcher.Scheduler, claims *pool.Claims, logger *slog.Logger) reconcile.Fetcher {
	if c.deps.Source == nil || !c.deps.Config.FetchEnabled() {
		return nil
	}
	return fetcher.New(c.deps.Source, assets.NewStore(c.resolver()), scheduler, claims, fetcher.Options{
		PagesPerQuery: c.deps.Config.Reconcile.PagesPerQuery,
		MinBytes:      int64(c.deps.Config.Unsplash.MinBytes),
		Logger:        logger,
	})
}

func filterCategory(tasks []reconcile.Task, category string) []reconcile.Task {
	if strings.TrimSpace(category) == "" {
		return tasks
	}
	key := textutil.CategoryKey(category)
	return slices.DeleteFunc(tasks, func(t reconcile.Task) bool {
		return textutil.CategoryKey(t.Entry.Category) != key
	})
}

// rotate moves tasks after cursor to the front, keeping id order within
// each part.
func rotate(tasks []reconcile.Task, cursor string) []reconcile.Task {
	if cursor == "" || len(tasks) == 0 {
		return tasks
	}
	idx := slices.IndexFunc(tasks, func(t reconcile.Task) bool {
		return catalog.CompareIDs(t.Entry.ID, cursor) > 0
	})
	if idx <= 0 {
		return tasks
	}
	return append(slices.Clone(tasks[idx:]), tasks[:idx]...)
}

func summarize(run report.Run) *checkpoint.Summary {
	counts := func(c scanner.Counts) checkpoint.Counts {
		return checkpoint.Counts{Entries: c.Entries, OK: c.OK, Duplicates: c.Duplicates, Missing: c.Missing}
	}
	return &checkpoint.Summary{
		RunID:      run.RunID,
		StartedAt:  run.StartedAt.UTC(),
		FinishedAt: run.FinishedAt.UTC(),
		DryRun:     run.DryRun,
		Before:     counts(run.Before),
		After:      counts(run.After),
		Applied:    len(run.Applied),
		Unresolved: len(run.Unresolved),
		FetchCalls: run.FetchCalls,
	}
}
