// Package models contains domain types for the EHCP review report service.
package models

import (
	"errors"
	"fmt"
)

// ExtractedTextColumn is the single column holding text pulled from
// unstructured documents (PDF, DOCX).
const ExtractedTextColumn = "Extracted Text"

// ErrColumnNotFound is returned when a table has no column of the requested name.
var ErrColumnNotFound = errors.New("column not found")

// Row maps column names to cell values. A column absent from the map is a
// missing cell.
type Row map[string]string

// Table is the uniform tabular form every ingested file is normalised into.
type Table struct {
	Columns []string `json:"columns" msgpack:"columns"`
	Rows    []Row    `json:"rows" msgpack:"rows"`
}

// Cell is one value of a column. Valid is false for missing cells.
type Cell struct {
	Value string
	Valid bool
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{
		Columns: columns,
		Rows:    make([]Row, 0),
	}
}

// NewTextTable wraps extracted document text as a one-row, one-column table.
func NewTextTable(text string) *Table {
	t := NewTable(ExtractedTextColumn)
	t.Rows = append(t.Rows, Row{ExtractedTextColumn: text})
	return t
}

// AppendRow adds a row. Cells for columns the table does not declare are dropped.
func (t *Table) AppendRow(r Row) {
	row := make(Row, len(r))
	for _, col := range t.Columns {
		if v, ok := r[col]; ok {
			row[col] = v
		}
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0 || len(t.Columns) == 0
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Value returns the cell at row i in the named column. ok is false when the
// column does not exist or the cell is missing.
func (t *Table) Value(i int, column string) (string, bool) {
	if !t.HasColumn(column) || i < 0 || i >= len(t.Rows) {
		return "", false
	}
	v, ok := t.Rows[i][column]
	return v, ok
}

// Column returns every cell of the named column in row order.
func (t *Table) Column(name string) ([]Cell, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	cells := make([]Cell, len(t.Rows))
	for i, row := range t.Rows {
		v, ok := row[name]
		cells[i] = Cell{Value: v, Valid: ok}
	}
	return cells, nil
}
