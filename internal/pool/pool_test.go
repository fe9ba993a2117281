package pool

import (
	"errors"
	"sync"
	"testing"

	"curator/internal/catalog"
	"curator/internal/digest"
	"curator/internal/scanner"
)

func orphan(name, content string) scanner.Orphan {
	return scanner.Orphan{Name: name, Path: "/root/" + name, Digest: digest.Bytes([]byte(content))}
}

func TestCategoryFromName(t *testing.T) {
	tests := map[string]string{
		"sports_12_abcdef.jpg":    "sports",
		"pop-culture_1_ab.png":    "pop-culture",
		"nested/politics_x.webp":  "politics",
		"sunset.jpg":              "",
		"_leading_underscore.jpg": "",
	}
	for name, want := range tests {
		if got := CategoryFromName(name); got != want {
			t.Errorf("CategoryFromName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestNextIsOrderedAndCaseInsensitive(t *testing.T) {
	result := &scanner.Result{Orphans: []scanner.Orphan{
		orphan("sports_b.jpg", "b"),
		orphan("sports_a.jpg", "a"),
		orphan("politics_a.jpg", "p"),
		orphan("untagged.jpg", "u"),
	}}
	pools := Build(result, nil)
	if pools.Size() != 3 {
		t.Fatalf("expected 3 candidates, got %d", pools.Size())
	}

	claims := NewClaims()
	first, err := pools.Next("SPORTS", claims, "1")
	if err != nil || first.Name != "sports_a.jpg" {
		t.Fatalf("expected sports_a first, got %+v err=%v", first, err)
	}
	if first.Category != "Sports" {
		t.Fatalf("expected canonical category, got %q", first.Category)
	}
	second, err := pools.Next("sports", claims, "2")
	if err != nil || second.Name != "sports_b.jpg" {
		t.Fatalf("expected sports_b second, got %+v err=%v", second, err)
	}
	if _, err := pools.Next("Sports", claims, "3"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if _, err := pools.Next("Weather", claims, "3"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted for unknown category, got %v", err)
	}
	if owner, _ := claims.Owner(first.Digest); owner != "1" {
		t.Fatalf("expected digest claimed by 1, got %q", owner)
	}
}

func TestNextSkipsClaimedDigests(t *testing.T) {
	result := &scanner.Result{Orphans: []scanner.Orphan{
		orphan("sports_a.jpg", "taken"),
		orphan("sports_b.jpg", "free"),
	}}
	pools := Build(result, nil)
	claims := NewClaims()
	claims.Seed("ok-entry", digest.Bytes([]byte("taken")))

	got, err := pools.Next("sports", claims, "9")
	if err != nil || got.Name != "sports_b.jpg" {
		t.Fatalf("expected claimed digest skipped, got %+v err=%v", got, err)
	}
}

func TestNextNeverHandsOutADigestTwiceConcurrently(t *testing.T) {
	var orphans []scanner.Orphan
	for i := range 50 {
		orphans = append(orphans, orphan("news_"+string(rune('a'+i%26))+string(rune('a'+i/26))+".jpg", "content-"+string(rune(i))))
	}
	pools := Build(&scanner.Result{Orphans: orphans}, nil)
	claims := NewClaims()

	var (
		mu   sync.Mutex
		seen = map[digest.Digest]bool{}
		wg   sync.WaitGroup
	)
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				c, err := pools.Next("news", claims, string(rune('A'+w)))
				if err != nil {
					return
				}
				mu.Lock()
				if seen[c.Digest] {
					mu.Unlock()
					t.Errorf("digest %s handed out twice", c.Digest.Short())
					return
				}
				seen[c.Digest] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 50 {
		t.Fatalf("expected all 50 candidates handed out once, got %d", len(seen))
	}
	if pools.Remaining("news") != 0 {
		t.Fatalf("expected empty pool, got %d", pools.Remaining("news"))
	}
}

func TestReturnMakesCandidateAvailableAgain(t *testing.T) {
	result := &scanner.Result{Orphans: []scanner.Orphan{
		orphan("sports_a.jpg", "a"),
		orphan("sports_b.jpg", "b"),
	}}
	pools := Build(result, nil)
	claims := NewClaims()

	first, err := pools.Next("sports", claims, "1")
	if err != nil {
		t.Fatal(err)
	}
	claims.Release(first.Digest, "1")
	pools.Return("Sports", first)

	again, err := pools.Next("sports", claims, "2")
	if err != nil || again.Name != "sports_a.jpg" {
		t.Fatalf("expected returned candidate first, got %+v err=%v", again, err)
	}
	if owner, _ := claims.Owner(again.Digest); owner != "2" {
		t.Fatalf("expected digest claimed by 2, got %q", owner)
	}

	// A candidate returned out of order moves ahead of the unvisited ones.
	second, err := pools.Next("sports", claims, "3")
	if err != nil || second.Name != "sports_b.jpg" {
		t.Fatalf("expected sports_b.jpg, got %+v err=%v", second, err)
	}
	claims.Release(again.Digest, "2")
	pools.Return("sports", again)
	if pools.Remaining("sports") != 1 || pools.Size() != 2 {
		t.Fatalf("expected 1 remaining of 2, got %d of %d", pools.Remaining("sports"), pools.Size())
	}
	last, err := pools.Next("sports", claims, "4")
	if err != nil || last.Name != "sports_a.jpg" {
		t.Fatalf("expected sports_a.jpg back, got %+v err=%v", last, err)
	}
}

func TestClaimsRelease(t *testing.T) {
	claims := NewClaims()
	d := digest.Bytes([]byte("x"))
	if !claims.Claim(d, "1") || claims.Claim(d, "2") {
		t.Fatal("expected first claim to win")
	}
	claims.Release(d, "2")
	if !claims.Has(d) {
		t.Fatal("release by non-owner must not drop claim")
	}
	claims.Release(d, "1")
	if claims.Has(d) || claims.Len() != 0 {
		t.Fatal("expected claim released")
	}
}

func TestClaimsFromScanSeedsOwners(t *testing.T) {
	ok := digest.Bytes([]byte("ok"))
	dup := digest.Bytes([]byte("dup"))
	result := &scanner.Result{
		OK:         []scanner.Owned{{Entry: catalog.Entry{ID: "1"}, Digest: ok}},
		Duplicates: []scanner.Group{{Digest: dup, Canonical: catalog.Entry{ID: "2"}, Violations: []catalog.Entry{{ID: "3"}}}},
	}
	claims := ClaimsFromScan(result)
	if owner, _ := claims.Owner(ok); owner != "1" {
		t.Fatalf("expected ok digest owned by 1, got %q", owner)
	}
	if owner, _ := claims.Owner(dup); owner != "2" {
		t.Fatalf("expected duplicate digest owned by canonical 2, got %q", owner)
	}
}
