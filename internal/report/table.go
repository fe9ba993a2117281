package report

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Row is one line of a list table. Kind paints the whole row when colour is
// on; KindInfo leaves it plain.
type Row struct {
	Cells []string
	Kind  Kind
}

// ListTable renders rows under headers. Short rows are padded with empty
// cells and extra cells are dropped.
func ListTable(headers []string, rows []Row, colorize bool) string {
	if len(headers) == 0 {
		return ""
	}
	tw := newWriter(headers)
	kinds := make(map[int]Kind, len(rows))
	for i, row := range rows {
		cells := make(table.Row, len(headers))
		for c := range cells {
			cells[c] = ""
			if c < len(row.Cells) {
				cells[c] = row.Cells[c]
			}
		}
		tw.AppendRow(cells)
		kinds[i] = row.Kind
	}
	if colorize {
		tw.SetRowPainter(table.RowPainterWithAttributes(func(_ table.Row, attr table.RowAttributes) text.Colors {
			return kindColors(kinds[attr.Number-1])
		}))
	}
	return tw.Render()
}

// countRow is one labelled line of a counts table. Issue rows turn yellow
// while their latest count is above zero.
type countRow struct {
	label  string
	counts []int
	issue  bool
}

// countsTable renders one right-aligned column per snapshot ("Before",
// "After", ...).
func countsTable(snapshots []string, rows []countRow, colorize bool) string {
	tw := newWriter(append([]string{"Status"}, snapshots...))
	configs := []table.ColumnConfig{{Number: 1}}
	for i := range snapshots {
		configs = append(configs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)

	for _, r := range rows {
		cells := table.Row{r.label}
		for _, n := range r.counts {
			cells = append(cells, strconv.Itoa(n))
		}
		tw.AppendRow(cells)
	}
	if colorize {
		tw.SetRowPainter(table.RowPainterWithAttributes(func(_ table.Row, attr table.RowAttributes) text.Colors {
			r := rows[attr.Number-1]
			if !r.issue || len(r.counts) == 0 {
				return nil
			}
			return kindColors(IssueKind(r.counts[len(r.counts)-1]))
		}))
	}
	return tw.Render()
}

func newWriter(headers []string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return tw
}
