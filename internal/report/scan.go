package report

import (
	"io"
	"strings"

	"curator/internal/scanner"
)

// Issue is one entry that needs repair.
type Issue struct {
	ID        string         `json:"id"`
	Status    scanner.Status `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	Reference string         `json:"reference"`
	Canonical string         `json:"canonical,omitempty"`
}

// Scan summarises an audit-only scan.
type Scan struct {
	Counts scanner.Counts `json:"counts"`
	Issues []Issue        `json:"issues"`
}

// NewScan flattens a scan result, issues in stable id order per status.
func NewScan(result *scanner.Result) Scan {
	out := Scan{Counts: result.Counts(), Issues: []Issue{}}
	if result == nil {
		return out
	}
	for _, group := range result.Duplicates {
		for _, v := range group.Violations {
			out.Issues = append(out.Issues, Issue{
				ID:        v.ID,
				Status:    scanner.StatusDuplicate,
				Reference: v.Reference,
				Canonical: group.Canonical.ID,
			})
		}
	}
	for _, m := range result.Missing {
		out.Issues = append(out.Issues, Issue{
			ID:        m.Entry.ID,
			Status:    scanner.StatusMissing,
			Reason:    string(m.Reason),
			Reference: m.Entry.Reference,
		})
	}
	return out
}

// RenderScan writes the human-readable scan report.
func RenderScan(w io.Writer, s Scan, colorize bool) error {
	var b strings.Builder
	for _, line := range SectionHeader("Integrity scan", colorize) {
		b.WriteString(line + "\n")
	}
	c := s.Counts
	b.WriteString(countsTable([]string{"Count"}, []countRow{
		{label: "Entries", counts: []int{c.Entries}},
		{label: "OK", counts: []int{c.OK}},
		{label: "Duplicate groups", counts: []int{c.DuplicateGroups}, issue: true},
		{label: "Duplicate", counts: []int{c.Duplicates}, issue: true},
		{label: "Missing", counts: []int{c.Missing}, issue: true},
		{label: "Spare assets", counts: []int{c.Orphans}},
	}, colorize))
	b.WriteString("\n")

	b.WriteString(issueLine("Issues", len(s.Issues), "none", colorize) + "\n")
	if len(s.Issues) > 0 {
		b.WriteString("\n")
		rows := make([]Row, 0, len(s.Issues))
		for _, issue := range s.Issues {
			detail := issue.Reason
			if issue.Canonical != "" {
				detail = "shares asset with " + issue.Canonical
			}
			rows = append(rows, Row{Cells: []string{issue.ID, string(issue.Status), detail, dash(issue.Reference)}})
		}
		b.WriteString(ListTable([]string{"ID", "Status", "Detail", "Reference"}, rows, colorize))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
