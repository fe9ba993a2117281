package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"curator/internal/assets"
	"curator/internal/catalog"
	"curator/internal/reconcile"
	"curator/internal/scanner"
)

func TestRenderRunListsChanges(t *testing.T) {
	run := Run{
		RunID:  "r1",
		Before: scanner.Counts{Entries: 3, OK: 1, Duplicates: 1, Missing: 1},
		After:  scanner.Counts{Entries: 3, OK: 2, Missing: 1},
		Applied: []reconcile.Applied{
			{ID: "B", Kind: reconcile.TaskDuplicate, OldRef: "/static/images/shared.jpg", NewRef: "/static/images/sports_spare.jpg", Method: reconcile.MethodPool},
		},
		Unresolved: []reconcile.Unresolved{{ID: "C", Kind: reconcile.TaskMissing, Reason: "pool exhausted; fetch: no_results"}},
	}
	var buf bytes.Buffer
	if err := RenderRun(&buf, run, false); err != nil {
		t.Fatalf("RenderRun: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Reconciliation", "sports_spare.jpg", "pool", "Unresolved", "no_results", "[WARN] 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("expected no ANSI codes without colorize")
	}
}

func TestRenderRunDryRunHeading(t *testing.T) {
	var buf bytes.Buffer
	run := Run{DryRun: true, Applied: []reconcile.Applied{{ID: "1", NewRef: "x"}}}
	if err := RenderRun(&buf, run, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Would reassign") || !strings.Contains(buf.String(), "[OK] 0") {
		t.Fatalf("unexpected dry run output:\n%s", buf.String())
	}
}

func TestNewScanFlattensIssues(t *testing.T) {
	result := &scanner.Result{
		Duplicates: []scanner.Group{{Canonical: catalog.Entry{ID: "1"}, Violations: []catalog.Entry{{ID: "2", Reference: "a.jpg"}}}},
		Missing:    []scanner.Missing{{Entry: catalog.Entry{ID: "3"}, Reason: assets.ReasonEmpty}},
	}
	s := NewScan(result)
	if len(s.Issues) != 2 || s.Issues[0].Canonical != "1" || s.Issues[1].Reason != "empty" {
		t.Fatalf("unexpected issues: %+v", s.Issues)
	}
	var buf bytes.Buffer
	if err := RenderScan(&buf, s, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "shares asset with 1") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestStatusLinePadsLabel(t *testing.T) {
	got := StatusLine("Catalog", KindOK, "reachable", false)
	if got != "  Catalog:             [OK] reachable" {
		t.Fatalf("unexpected status line %q", got)
	}
}

func TestIssueLineGradesByCount(t *testing.T) {
	tests := []struct {
		n    int
		zero string
		want string
	}{
		{0, "none", "  Issues:              [OK] none"},
		{0, "", "  Issues:              [OK] 0"},
		{3, "none", "  Issues:              [WARN] 3"},
	}
	for _, tt := range tests {
		if got := issueLine("Issues", tt.n, tt.zero, false); got != tt.want {
			t.Errorf("issueLine(%d, %q) = %q, want %q", tt.n, tt.zero, got, tt.want)
		}
	}
}

func TestListTablePadsShortRows(t *testing.T) {
	out := ListTable([]string{"ID", "Reason"}, []Row{{Cells: []string{"7"}}, {Cells: []string{"8", "gone", "extra"}}}, false)
	if !strings.Contains(out, "gone") || strings.Contains(out, "extra") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if ListTable(nil, nil, false) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestCountsTablePaintsOpenIssues(t *testing.T) {
	text.EnableColors()
	const yellow = "\x1b[33m"

	dirty := countsTable([]string{"Count"}, []countRow{
		{label: "OK", counts: []int{4}},
		{label: "Missing", counts: []int{2}, issue: true},
	}, true)
	if !strings.Contains(dirty, yellow) {
		t.Fatalf("expected open issues painted:\n%q", dirty)
	}

	clean := countsTable([]string{"Before", "After"}, []countRow{
		{label: "Missing", counts: []int{2, 0}, issue: true},
	}, true)
	if strings.Contains(clean, yellow) {
		t.Fatalf("resolved issues must not be painted as warnings:\n%q", clean)
	}

	plain := countsTable([]string{"Count"}, []countRow{{label: "Missing", counts: []int{2}, issue: true}}, false)
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("expected no ANSI codes without colorize:\n%q", plain)
	}
}
