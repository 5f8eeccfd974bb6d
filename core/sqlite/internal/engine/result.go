package engine

import (
	"strings"

	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/record"
)

// Separator joins projected values in a result line.
const Separator = "|"

// Row is one projected table row.
type Row struct {
	RowID  int64
	Values []record.Value
}

// Strings returns the text form of each value.
func (r Row) Strings() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.String()
	}
	return out
}

// Line joins the row's values with Separator.
func (r Row) Line() string {
	return strings.Join(r.Strings(), Separator)
}

// Result represents the result of a query.
type Result struct {
	Columns []string
	Rows    []Row
}

// RowCount returns the number of rows in the result.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// ColumnCount returns the number of projected columns.
func (r *Result) ColumnCount() int {
	return len(r.Columns)
}

// Lines renders every row as one output line, in scan order.
func (r *Result) Lines() []string {
	lines := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		lines[i] = row.Line()
	}
	return lines
}
