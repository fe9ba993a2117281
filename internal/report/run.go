package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"curator/internal/reconcile"
	"curator/internal/scanner"
)

// Run summarises one reconciliation run.
type Run struct {
	RunID      string                 `json:"run_id"`
	DryRun     bool                   `json:"dry_run"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Before     scanner.Counts         `json:"before"`
	After      scanner.Counts         `json:"after"`
	Batches    int                    `json:"batches"`
	Processed  int                    `json:"processed"`
	Deferred   int                    `json:"deferred"`
	FetchCalls int                    `json:"fetch_calls"`
	Applied    []reconcile.Applied    `json:"applied"`
	Unresolved []reconcile.Unresolved `json:"unresolved"`
}

// Remaining is the number of issues left after the run.
func (r Run) Remaining() int { return r.After.Issues() }

// RenderRun writes the human-readable run report.
func RenderRun(w io.Writer, r Run, colorize bool) error {
	var b strings.Builder
	title := "Reconciliation"
	if r.DryRun {
		title += " (dry run)"
	}
	for _, line := range SectionHeader(title, colorize) {
		b.WriteString(line + "\n")
	}
	b.WriteString(countsTable([]string{"Before", "After"}, []countRow{
		{label: "Entries", counts: []int{r.Before.Entries, r.After.Entries}},
		{label: "OK", counts: []int{r.Before.OK, r.After.OK}},
		{label: "Duplicate", counts: []int{r.Before.Duplicates, r.After.Duplicates}, issue: true},
		{label: "Missing", counts: []int{r.Before.Missing, r.After.Missing}, issue: true},
	}, colorize))
	b.WriteString("\n")

	b.WriteString(StatusLine("Processed", KindInfo, fmt.Sprintf("%d entries in %d batches, %d deferred", r.Processed, r.Batches, r.Deferred), colorize) + "\n")
	b.WriteString(StatusLine("External calls", KindInfo, strconv.Itoa(r.FetchCalls), colorize) + "\n")
	if !r.FinishedAt.IsZero() && !r.StartedAt.IsZero() {
		b.WriteString(StatusLine("Duration", KindInfo, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(), colorize) + "\n")
	}
	b.WriteString(issueLine("Unresolved", len(r.Unresolved), "", colorize) + "\n")
	b.WriteString(issueLine("Remaining issues", r.Remaining(), "", colorize) + "\n")

	if len(r.Applied) > 0 {
		b.WriteString("\n")
		heading := "Reassigned"
		if r.DryRun {
			heading = "Would reassign"
		}
		for _, line := range SectionHeader(heading, colorize) {
			b.WriteString(line + "\n")
		}
		rows := make([]Row, 0, len(r.Applied))
		for _, a := range r.Applied {
			rows = append(rows, Row{Cells: []string{a.ID, string(a.Kind), string(a.Method), dash(a.OldRef), a.NewRef}})
		}
		b.WriteString(ListTable([]string{"ID", "Issue", "Method", "Old Reference", "New Reference"}, rows, colorize))
		b.WriteString("\n")
	}

	if len(r.Unresolved) > 0 {
		b.WriteString("\n")
		for _, line := range SectionHeader("Unresolved", colorize) {
			b.WriteString(line + "\n")
		}
		rows := make([]Row, 0, len(r.Unresolved))
		for _, u := range r.Unresolved {
			rows = append(rows, Row{Cells: []string{u.ID, string(u.Kind), u.Reason}, Kind: KindWarn})
		}
		b.WriteString(ListTable([]string{"ID", "Issue", "Reason"}, rows, colorize))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
