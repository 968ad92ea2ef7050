// Package table holds the raw statement table consumed by the flow builders and
// the adapters that read one from CSV, HTML, Markdown or JSON.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrTooFewColumns    = errors.New("table has fewer than two columns")
	ErrNoRows           = errors.New("table has no rows")
	ErrColumnOutOfRange = errors.New("value column out of range")
	ErrNoTable          = errors.New("no table found in document")
)

// LabelColumn is the conventional header of the label column.
const LabelColumn = "CHỈ TIÊU"

// Row is one statement line. Cells[i] belongs to Columns[i+1].
type Row struct {
	Label string
	Cells []Value
}

// RawTable is a statement as delivered by a provider: column 0 holds line-item
// labels, the remaining columns hold figures (one per period in long format).
type RawTable struct {
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given column headers.
func New(columns ...string) *RawTable {
	return &RawTable{Columns: append([]string(nil), columns...)}
}

// FromRecords builds a table from a header record and string records, the shape
// produced by CSV, HTML and Markdown sources. The result is cleaned.
func FromRecords(header []string, records [][]string) *RawTable {
	t := New(header...)
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		cells := make([]Value, 0, len(rec)-1)
		for _, raw := range rec[1:] {
			cells = append(cells, Text(raw))
		}
		t.Append(rec[0], cells...)
	}
	t.Clean()
	return t
}

// Append adds a row.
func (t *RawTable) Append(label string, cells ...Value) {
	t.Rows = append(t.Rows, Row{Label: label, Cells: cells})
}

// Len returns the number of rows.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns the value of row in column (column 0 is the label column, so
// figures start at 1). ok is false when the cell does not exist.
func (t *RawTable) Cell(row, column int) (v Value, ok bool) {
	if t == nil || row < 0 || row >= len(t.Rows) || column < 1 {
		return Value{}, false
	}
	cells := t.Rows[row].Cells
	if column-1 >= len(cells) {
		return Value{}, false
	}
	return cells[column-1], true
}

// ColumnIndex finds a column by header name.
func (t *RawTable) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Clean trims labels and drops rows in which the label and every cell are blank.
func (t *RawTable) Clean() {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		row.Label = strings.TrimSpace(row.Label)
		if row.Label == "" && allBlank(row.Cells) {
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
}

func allBlank(cells []Value) bool {
	for _, c := range cells {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants every builder relies on.
func (t *RawTable) Validate(column int) error {
	if t == nil || len(t.Columns) < 2 {
		return ErrTooFewColumns
	}
	if len(t.Rows) == 0 {
		return ErrNoRows
	}
	if column < 1 || column >= len(t.Columns) {
		return fmt.Errorf("%w: %d of %d", ErrColumnOutOfRange, column, len(t.Columns))
	}
	return nil
}

// Rescale multiplies every figure of column by factor, turning provider units
// (thousands, millions) into base currency units.
func (t *RawTable) Rescale(column int, factor decimal.Decimal) {
	if column < 1 || factor.Equal(decimal.NewFromInt(1)) {
		return
	}
	for i := range t.Rows {
		cells := t.Rows[i].Cells
		if column-1 < len(cells) {
			cells[column-1] = cells[column-1].Scale(factor)
		}
	}
}

// Project returns a two-column table (label, figure) for column, the shape the
// flow builders expect from retrieval.
func (t *RawTable) Project(column int, header string) *RawTable {
	out := New(LabelColumn, header)
	for i, row := range t.Rows {
		v, _ := t.Cell(i, column)
		out.Append(row.Label, v)
	}
	return out
}
