// Package tabular provides a small in-memory table abstraction shared by
// the workbook readers, the ledger loaders, and the enrichment workflow.
// Worksheets and delimited exports both surface as a Table of string cells.
package tabular

import (
	"fmt"
	"strings"
)

// Table is a rectangular dataset with named columns. Rows are always
// padded or truncated to the header width, so cell access never goes out
// of range even when the source worksheet had ragged rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// New creates an empty table with the given headers.
func New(headers []string) *Table {
	return &Table{
		Headers: append([]string(nil), headers...),
		Rows:    make([][]string, 0),
	}
}

// AppendRow adds a data row, padding or truncating it to the header width.
func (t *Table) AppendRow(cells []string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has no data rows.
func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of the exact header name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// ColumnIndexFold returns the position of the first header matching name
// case-insensitively, or -1.
func (t *Table) ColumnIndexFold(name string) int {
	for i, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// FindColumn returns the position of the first header containing the given
// fragment case-insensitively, or -1. Reference exports routinely decorate
// column names ("Signed Total Amount (GBP)"), so lookups tolerate that.
func (t *Table) FindColumn(fragment string) int {
	needle := strings.ToLower(fragment)
	for i, h := range t.Headers {
		if strings.Contains(strings.ToLower(h), needle) {
			return i
		}
	}
	return -1
}

// ResolveColumns maps each required logical column name onto an actual
// header. An exact match wins; otherwise the first case-insensitive match
// is used. The second return value lists every logical name that could
// not be resolved, so callers can report all missing columns at once.
func (t *Table) ResolveColumns(required []string) (map[string]string, []string) {
	resolved := make(map[string]string, len(required))
	var missing []string
	for _, name := range required {
		if idx := t.ColumnIndex(name); idx >= 0 {
			resolved[name] = t.Headers[idx]
			continue
		}
		if idx := t.ColumnIndexFold(name); idx >= 0 {
			resolved[name] = t.Headers[idx]
			continue
		}
		missing = append(missing, name)
	}
	return resolved, missing
}

// Select returns a new table containing only the named columns, in the
// given order. Header names must exist exactly.
func (t *Table) Select(names []string) (*Table, error) {
	indices := make([]int, len(names))
	for i, name := range names {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("column %q not found", name)
		}
		indices[i] = idx
	}

	out := New(names)
	for _, row := range t.Rows {
		cells := make([]string, len(indices))
		for i, idx := range indices {
			cells[i] = row[idx]
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// Cell returns the value at the given row for the named column. It returns
// an empty string when the row or column does not exist.
func (t *Table) Cell(row int, name string) string {
	idx := t.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][idx]
}

// Column returns every value of the named column, or nil if it is absent.
func (t *Table) Column(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values
}

// InsertColumn inserts a column at the given position. Values are padded
// with empty strings or truncated to the current row count. Positions
// beyond the current width append at the end.
func (t *Table) InsertColumn(pos int, header string, values []string) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(t.Headers) {
		pos = len(t.Headers)
	}

	t.Headers = append(t.Headers, "")
	copy(t.Headers[pos+1:], t.Headers[pos:])
	t.Headers[pos] = header

	for i := range t.Rows {
		var v string
		if i < len(values) {
			v = values[i]
		}
		t.Rows[i] = append(t.Rows[i], "")
		copy(t.Rows[i][pos+1:], t.Rows[i][pos:])
		t.Rows[i][pos] = v
	}
}
