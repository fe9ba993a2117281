package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"curator/internal/config"
)

// Columns maps Entry fields onto a table. Identifiers are validated by the
// config package before they reach here.
type Columns struct {
	Table     string
	ID        string
	Title     string
	Category  string
	Reference string
	Created   string
}

// ColumnsFromConfig copies the column mapping out of the catalog config.
func ColumnsFromConfig(cfg config.Catalog) Columns {
	return Columns{
		Table:     cfg.Table,
		ID:        cfg.IDColumn,
		Title:     cfg.TitleColumn,
		Category:  cfg.CategoryColumn,
		Reference: cfg.ReferenceColumn,
		Created:   cfg.CreatedColumn,
	}
}

// SelectList builds the listing query. cast wraps text columns (for example
// "%s::text" on Postgres); pass "%s" for none.
func (c Columns) SelectList(cast string) string {
	fields := []string{
		fmt.Sprintf(cast, c.ID),
		fmt.Sprintf(cast, c.Title),
		fmt.Sprintf(cast, c.Category),
		fmt.Sprintf(cast, c.Reference),
	}
	if c.Created != "" {
		fields = append(fields, c.Created)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(fields, ", "), c.Table)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp converts a driver value into a UTC time. Unknown shapes and
// NULL yield the zero time, which callers treat as "no creation time".
func ParseTimestamp(value any) time.Time {
	switch v := value.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return v.UTC()
	case int64:
		if v <= 0 {
			return time.Time{}
		}
		return time.Unix(v, 0).UTC()
	case []byte:
		return ParseTimestamp(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC()
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
			return time.Unix(secs, 0).UTC()
		}
	}
	return time.Time{}
}
