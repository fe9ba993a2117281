package reconcile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"curator/internal/assets"
	"curator/internal/catalog"
	"curator/internal/digest"
	"curator/internal/fetcher"
	"curator/internal/overrides"
	"curator/internal/pool"
	"curator/internal/query"
	"curator/internal/reconcile"
	"curator/internal/scanner"
	"curator/internal/testsupport"
)

type env struct {
	root     string
	resolver assets.Resolver
	catalog  *testsupport.MemoryCatalog
}

func newEnv(t *testing.T, files map[string]string, entries ...catalog.Entry) *env {
	t.Helper()
	root := filepath.Join(t.TempDir(), "images")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		testsupport.WriteAsset(t, root, name, content)
	}
	return &env{
		root:     root,
		resolver: assets.NewResolver(root, "/static/images/"),
		catalog:  testsupport.NewMemoryCatalog(entries...),
	}
}

func (e *env) scan(t *testing.T) *scanner.Result {
	t.Helper()
	entries, err := e.catalog.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	result, err := scanner.New(e.resolver).Scan(context.Background(), entries)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return result
}

func (e *env) reconciler(result *scanner.Result, f reconcile.Fetcher, o reconcile.OverrideSource, dryRun bool) *reconcile.Reconciler {
	claims := pool.ClaimsFromScan(result)
	return reconcile.New(reconcile.Deps{
		Catalog:   e.catalog,
		Resolver:  e.resolver,
		Overrides: o,
		Pools:     pool.Build(result, nil),
		Claims:    claims,
		Fetcher:   f,
		Planner:   query.NewPlanner(nil, nil),
	}, reconcile.Options{QueryVariants: 3, FetchWorkers: 2, DryRun: dryRun})
}

func (e *env) run(t *testing.T, f reconcile.Fetcher, o reconcile.OverrideSource, dryRun bool) reconcile.Outcome {
	t.Helper()
	result := e.scan(t)
	outcome, err := e.reconciler(result, f, o, dryRun).Reconcile(context.Background(), reconcile.Tasks(result))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	return outcome
}

// stubFetcher writes a unique file per call, or fails with err.
type stubFetcher struct {
	mu     sync.Mutex
	root     string
	resolver assets.Resolver
	err      error
	calls    int
}

func (s *stubFetcher) Fetch(_ context.Context, req fetcher.Request) (fetcher.Asset, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return fetcher.Asset{}, s.err
	}
	content := "fetched-" + req.EntryID
	sum := digest.Bytes([]byte(content))
	name := fetcher.AssetName(req.Category, req.EntryID, sum, ".jpg")
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fetcher.Asset{}, err
	}
	return fetcher.Asset{Digest: sum, Path: path, Name: name, Reference: s.resolver.Reference(name)}, nil
}

func (s *stubFetcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type overrideMap map[string]string

func (m overrideMap) Lookup(id string) (overrides.Override, bool, error) {
	asset, ok := m[id]
	return overrides.Override{EntryID: id, Asset: asset}, ok, nil
}

func TestTasksSkipHealthyEntries(t *testing.T) {
	e := newEnv(t, map[string]string{"a.jpg": "a", "b.jpg": "shared"},
		catalog.Entry{ID: "1", Reference: "/static/images/a.jpg"},
		catalog.Entry{ID: "2", Reference: "/static/images/b.jpg"},
		catalog.Entry{ID: "3", Reference: "/static/images/b.jpg"},
		catalog.Entry{ID: "11", Reference: ""},
	)
	tasks := reconcile.Tasks(e.scan(t))
	if len(tasks) != 2 || tasks[0].Entry.ID != "3" || tasks[1].Entry.ID != "11" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if tasks[0].Kind != reconcile.TaskDuplicate || tasks[0].Detail != "2" {
		t.Fatalf("expected duplicate of 2, got %+v", tasks[0])
	}
	if tasks[1].Kind != reconcile.TaskMissing || tasks[1].Detail != string(assets.ReasonEmpty) {
		t.Fatalf("expected missing/empty, got %+v", tasks[1])
	}
}

func TestDuplicatePairIsSplitUsingThePool(t *testing.T) {
	e := newEnv(t, map[string]string{"shared.jpg": "shared", "sports_spare.jpg": "spare"},
		catalog.Entry{ID: "A", Category: "Sports", Reference: "/static/images/shared.jpg"},
		catalog.Entry{ID: "B", Category: "Sports", Reference: "/static/images/shared.jpg"},
	)
	outcome := e.run(t, nil, nil, false)

	if len(outcome.Applied) != 1 || outcome.Applied[0].ID != "B" || outcome.Applied[0].Method != reconcile.MethodPool {
		t.Fatalf("expected B rebound from pool, got %+v", outcome)
	}
	if e.catalog.Reference("A") != "/static/images/shared.jpg" {
		t.Fatal("canonical owner must keep its reference")
	}
	if e.catalog.Reference("B") != "/static/images/sports_spare.jpg" {
		t.Fatalf("unexpected reference for B: %s", e.catalog.Reference("B"))
	}
	if issues := e.scan(t).Issues(); issues != 0 {
		t.Fatalf("expected no issues after repair, got %d", issues)
	}

	writes := len(e.catalog.Writes())
	second := e.run(t, nil, nil, false)
	if len(second.Applied)+len(second.Unresolved) != 0 || len(e.catalog.Writes()) != writes {
		t.Fatalf("second run must be a no-op, got %+v", second)
	}
}

func TestMissingEntryStaysUnresolvedWhenFetchFails(t *testing.T) {
	e := newEnv(t, map[string]string{"a.jpg": "a"},
		catalog.Entry{ID: "1", Category: "Sports", Reference: "/static/images/a.jpg"},
		catalog.Entry{ID: "C", Category: "Crime", Title: "Trial verdict", Reference: "/static/images/gone.jpg"},
	)
	f := &stubFetcher{err: &fetcher.FetchError{Kind: fetcher.KindNoResults}}
	outcome := e.run(t, f, nil, false)

	if len(outcome.Unresolved) != 1 || outcome.Unresolved[0].ID != "C" {
		t.Fatalf("expected C unresolved, got %+v", outcome)
	}
	if len(e.catalog.Writes()) != 0 {
		t.Fatalf("expected no writes, got %+v", e.catalog.Writes())
	}
	if e.catalog.Reference("C") != "/static/images/gone.jpg" {
		t.Fatal("unresolved entry must keep its reference")
	}
	if e.scan(t).Issues() != 1 {
		t.Fatal("expected the issue to remain")
	}
}

func TestOverrideTakesPrecedence(t *testing.T) {
	e := newEnv(t, map[string]string{"pinned.jpg": "pinned", "crime_spare.jpg": "spare"},
		catalog.Entry{ID: "3", Category: "Crime", Reference: ""},
	)
	outcome := e.run(t, nil, overrideMap{"3": "/static/images/pinned.jpg?v=2"}, false)
	if len(outcome.Applied) != 1 || outcome.Applied[0].Method != reconcile.MethodOverride {
		t.Fatalf("expected override, got %+v", outcome)
	}
	if e.catalog.Reference("3") != "/static/images/pinned.jpg" {
		t.Fatalf("unexpected reference %q", e.catalog.Reference("3"))
	}
}

func TestOverrideToOwnedAssetFallsBackToPool(t *testing.T) {
	e := newEnv(t, map[string]string{"owned.jpg": "owned", "crime_spare.jpg": "spare"},
		catalog.Entry{ID: "1", Category: "Crime", Reference: "/static/images/owned.jpg"},
		catalog.Entry{ID: "2", Category: "Crime", Reference: "missing.jpg"},
	)
	outcome := e.run(t, nil, overrideMap{"2": "owned.jpg"}, false)
	if len(outcome.Applied) != 1 || outcome.Applied[0].Method != reconcile.MethodPool {
		t.Fatalf("expected pool fallback, got %+v", outcome)
	}
	if e.scan(t).Issues() != 0 {
		t.Fatal("expected no issues")
	}
}

func TestPoolNeverReusesADigestAndFetchCoversTheRest(t *testing.T) {
	files := map[string]string{"news_a.jpg": "n1", "news_b.jpg": "n2"}
	var entries []catalog.Entry
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		entries = append(entries, catalog.Entry{ID: id, Category: "News", Title: "Story " + id})
	}
	e := newEnv(t, files, entries...)
	f := &stubFetcher{root: e.root, resolver: e.resolver}
	outcome := e.run(t, f, nil, false)

	if len(outcome.Applied) != 5 || len(outcome.Unresolved) != 0 {
		t.Fatalf("expected all five applied, got %+v", outcome)
	}
	methods := map[reconcile.Method]int{}
	refs := map[string]bool{}
	for _, a := range outcome.Applied {
		methods[a.Method]++
		if refs[a.NewRef] {
			t.Fatalf("reference %s assigned twice", a.NewRef)
		}
		refs[a.NewRef] = true
	}
	if methods[reconcile.MethodPool] != 2 || methods[reconcile.MethodFetch] != 3 || f.Calls() != 3 {
		t.Fatalf("unexpected methods %v (fetch calls %d)", methods, f.Calls())
	}
	if outcome.Applied[0].ID != "1" || outcome.Applied[0].NewRef != "/static/images/news_a.jpg" {
		t.Fatalf("pool must serve entries in id order, got %+v", outcome.Applied[0])
	}
	if e.scan(t).Issues() != 0 {
		t.Fatal("expected no issues")
	}
}

func TestWriteFailureLeavesEntryUnresolved(t *testing.T) {
	e := newEnv(t, map[string]string{"sports_a.jpg": "a", "sports_b.jpg": "b"},
		catalog.Entry{ID: "1", Category: "Sports"},
		catalog.Entry{ID: "2", Category: "Sports"},
	)
	e.catalog.FailWrites("1", errors.New("disk full"))
	outcome := e.run(t, nil, nil, false)

	if len(outcome.Unresolved) != 1 || outcome.Unresolved[0].ID != "1" {
		t.Fatalf("expected 1 unresolved, got %+v", outcome)
	}
	if len(outcome.Applied) != 1 || outcome.Applied[0].ID != "2" {
		t.Fatalf("expected run to continue with 2, got %+v", outcome)
	}
}

func TestWriteFailureReturnsSpareToPool(t *testing.T) {
	e := newEnv(t, map[string]string{"sports_spare.jpg": "spare"},
		catalog.Entry{ID: "1", Category: "Sports"},
		catalog.Entry{ID: "2", Category: "Sports"},
	)
	e.catalog.FailWrites("1", errors.New("disk full"))
	outcome := e.run(t, nil, nil, false)

	if len(outcome.Unresolved) != 1 || outcome.Unresolved[0].ID != "1" {
		t.Fatalf("expected only 1 unresolved, got %+v", outcome.Unresolved)
	}
	if len(outcome.Applied) != 1 {
		t.Fatalf("expected 2 to receive the released spare, got %+v", outcome)
	}
	got := outcome.Applied[0]
	if got.ID != "2" || got.Method != reconcile.MethodPool || got.NewRef != "/static/images/sports_spare.jpg" {
		t.Fatalf("unexpected assignment %+v", got)
	}
}

func TestEmptyOutcomeListsAreNotNil(t *testing.T) {
	e := newEnv(t, map[string]string{"a.jpg": "a"},
		catalog.Entry{ID: "1", Reference: "/static/images/a.jpg"},
	)
	outcome := e.run(t, nil, nil, false)
	if outcome.Applied == nil || outcome.Unresolved == nil {
		t.Fatalf("expected empty lists, got %+v", outcome)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	e := newEnv(t, map[string]string{"shared.jpg": "s", "sports_a.jpg": "a"},
		catalog.Entry{ID: "1", Category: "Sports", Reference: "shared.jpg"},
		catalog.Entry{ID: "2", Category: "Sports", Reference: "shared.jpg"},
		catalog.Entry{ID: "3", Category: "Sports", Reference: "shared.jpg"},
	)
	f := &stubFetcher{root: e.root, resolver: e.resolver}
	outcome := e.run(t, f, nil, true)

	if len(e.catalog.Writes()) != 0 || f.Calls() != 0 {
		t.Fatalf("dry run wrote %d references and made %d fetches", len(e.catalog.Writes()), f.Calls())
	}
	if len(outcome.Applied) != 1 || len(outcome.Unresolved) != 1 {
		t.Fatalf("expected one planned change and one skipped fetch, got %+v", outcome)
	}
}

func TestTerminalFetchErrorStopsFurtherFetches(t *testing.T) {
	e := newEnv(t, nil,
		catalog.Entry{ID: "1", Category: "Sports"},
		catalog.Entry{ID: "2", Category: "Sports"},
		catalog.Entry{ID: "3", Category: "Sports"},
	)
	f := &stubFetcher{err: &fetcher.FetchError{Kind: fetcher.KindQuota}}
	result := e.scan(t)
	r := reconcile.New(reconcile.Deps{
		Catalog:  e.catalog,
		Resolver: e.resolver,
		Pools:    pool.Build(result, nil),
		Fetcher:  f,
		Planner:  query.NewPlanner(nil, nil),
	}, reconcile.Options{FetchWorkers: 1})

	outcome, err := r.Reconcile(context.Background(), reconcile.Tasks(result))
	if err != nil {
		t.Fatal(err)
	}
	if f.Calls() != 1 || len(outcome.Unresolved) != 3 {
		t.Fatalf("expected a single fetch attempt, got %d calls and %+v", f.Calls(), outcome)
	}
}

type unavailableCatalog struct{ *testsupport.MemoryCatalog }

func (unavailableCatalog) UpdateReference(context.Context, string, string) error {
	return catalog.Unavailable("update", errors.New("connection reset"))
}

func TestUnavailableCatalogAbortsRun(t *testing.T) {
	e := newEnv(t, map[string]string{"sports_a.jpg": "a"}, catalog.Entry{ID: "1", Category: "Sports"})
	result := e.scan(t)
	r := reconcile.New(reconcile.Deps{
		Catalog:  unavailableCatalog{e.catalog},
		Resolver: e.resolver,
		Pools:    pool.Build(result, nil),
		Planner:  query.NewPlanner(nil, nil),
	}, reconcile.Options{})
	if _, err := r.Reconcile(context.Background(), reconcile.Tasks(result)); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
