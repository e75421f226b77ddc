package dataset

import (
	"strings"

	"github.com/YuminosukeSato/automl/pkg/errors"
)

// Column is a named sequence of raw cell values. An empty string is a missing value.
type Column struct {
	Name   string
	Values []string
}

// Table is an ordered set of equally long, uniquely named columns.
//
// Tables are immutable. Derived tables share column storage with the table
// they were derived from, so callers must never write into Column.Values.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// NewTable validates the columns and builds a table. A table without columns
// is valid here; the store rejects it on load.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, errors.NewValidationError("column", "column name must not be blank", i)
		}
		if _, dup := t.index[name]; dup {
			return nil, errors.NewValidationError("column", "duplicate column name", name)
		}
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, errors.NewDimensionError("NewTable", t.rows, len(c.Values), 0)
		}
		t.index[name] = len(t.columns)
		t.columns = append(t.columns, Column{Name: name, Values: c.Values})
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on invalid input. Intended for tests and examples.
func MustNewTable(columns ...Column) *Table {
	t, err := NewTable(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return t.rows, len(t.columns) }

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column. The returned values are shared; do not modify them.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Values returns a copy of the named column's values.
func (t *Table) Values(name string) ([]string, bool) {
	c, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]string, len(c.Values))
	copy(out, c.Values)
	return out, true
}

// Row returns the i-th row in column order.
func (t *Table) Row(i int) []string {
	if i < 0 || i >= t.rows {
		return nil
	}
	row := make([]string, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Equal reports whether both tables have the same columns in the same order with the same values.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.rows != other.rows || len(t.columns) != len(other.columns) {
		return false
	}
	for i, c := range t.columns {
		o := other.columns[i]
		if c.Name != o.Name {
			return false
		}
		for r := range c.Values {
			if c.Values[r] != o.Values[r] {
				return false
			}
		}
	}
	return true
}

// Select returns a table with only the named columns, in the order given.
func (t *Table) Select(names ...string) (*Table, error) {
	var missing []string
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		cols = append(cols, c)
	}
	if len(missing) > 0 {
		return nil, errors.NewUnknownColumnError("select", missing...)
	}
	return NewTable(cols...)
}

// without returns a table without the named columns. Names must exist.
func (t *Table) without(drop map[string]struct{}) *Table {
	out := &Table{
		columns: make([]Column, 0, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
		rows:    t.rows,
	}
	for _, c := range t.columns {
		if _, skip := drop[c.Name]; skip {
			continue
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c)
	}
	return out
}

// with returns a table with c appended as the last column.
func (t *Table) with(c Column) *Table {
	out := &Table{
		columns: make([]Column, len(t.columns), len(t.columns)+1),
		index:   make(map[string]int, len(t.columns)+1),
		rows:    t.rows,
	}
	copy(out.columns, t.columns)
	for name, i := range t.index {
		out.index[name] = i
	}
	out.index[c.Name] = len(out.columns)
	out.columns = append(out.columns, c)
	return out
}
