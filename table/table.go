// Package table holds the in-memory survey table: the REDCap export loaded
// as ordered columns and rows of typed cells.
package table

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// ErrMissingColumn is returned when a transform refers to a column the
// table does not have.
var ErrMissingColumn = errors.New("missing column")

// Row maps column names to cells. Absent keys read as missing.
type Row map[string]Value

// Get returns the cell of column c.
func (r Row) Get(c string) Value { return r[c] }

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered collection of rows sharing a fixed column set.
type Table struct {
	columns []string
	rows    []Row
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{columns: slices.Clone(columns)}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns row i. The returned row must not be modified.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Set replaces the cell of column c on row i.
func (t *Table) Set(i int, c string, v Value) { t.rows[i][c] = v }

// Has reports whether column c exists.
func (t *Table) Has(c string) bool { return slices.Contains(t.columns, c) }

// Append adds a row. Keys outside the column set are ignored on output.
func (t *Table) Append(r Row) { t.rows = append(t.rows, r) }

// AppendValues adds a row given one value per column, in column order.
func (t *Table) AppendValues(vals ...Value) {
	r := make(Row, len(t.columns))
	for i, c := range t.columns {
		if i < len(vals) {
			r[c] = vals[i]
		}
	}
	t.rows = append(t.rows, r)
}

// Require checks that every column exists, naming all the absent ones.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) && !slices.Contains(missing, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Column returns a copy of the values of column c.
func (t *Table) Column(c string) ([]Value, error) {
	if err := t.Require(c); err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[c]
	}
	return out, nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	out := &Table{columns: slices.Clone(t.columns), rows: make([]Row, len(t.rows))}
	for i, r := range t.rows {
		out.rows[i] = r.clone()
	}
	return out
}

// Rename maps a source column to its name in a derived table.
type Rename struct {
	From string
	To   string
}

// Select extracts and renames columns, in the given order.
func (t *Table) Select(renames ...Rename) (*Table, error) {
	src := make([]string, len(renames))
	dst := make([]string, len(renames))
	for i, r := range renames {
		src[i] = r.From
		dst[i] = r.To
		if dst[i] == "" {
			dst[i] = r.From
		}
	}
	if err := t.Require(src...); err != nil {
		return nil, err
	}
	out := New(dst...)
	for _, r := range t.rows {
		nr := make(Row, len(renames))
		for i := range src {
			nr[dst[i]] = r[src[i]]
		}
		out.rows = append(out.rows, nr)
	}
	return out, nil
}

// Drop returns t without the given columns. Absent columns are an error,
// as in the cleanup step of the export.
func (t *Table) Drop(cols ...string) (*Table, error) {
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	var keep []Rename
	for _, c := range t.columns {
		if !slices.Contains(cols, c) {
			keep = append(keep, Rename{From: c})
		}
	}
	return t.Select(keep...)
}

// Filter returns the rows for which keep is true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.columns...)
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r.clone())
		}
	}
	return out
}
