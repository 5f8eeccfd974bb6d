// Package engine executes the supported queries against an open database:
// projections over a single rowid table, plus the informational commands.
package engine

import (
	"context"
	"strings"
	"time"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/utf"
	"github.com/FocuswithJustin/sqlread/internal/logging"
)

// rowIDColumn marks a projected column that reads the row id itself.
const rowIDColumn = -2

// Engine runs queries over one open database.
type Engine struct {
	pager   *pager.Pager
	catalog *schema.Catalog
	enc     utf.Encoding
	cells   int // on page 1
}

// New loads the schema through p and returns an engine over it.
func New(p *pager.Pager) (*Engine, error) {
	enc := p.Header().TextEncoding
	cat, err := schema.Load(p, enc)
	if err != nil {
		return nil, sqlerr.Wrap(err, "load schema")
	}
	first, err := p.Page(1)
	if err != nil {
		return nil, sqlerr.Wrap(err, "load schema")
	}
	return &Engine{
		pager:   p,
		catalog: cat,
		enc:     enc,
		cells:   int(first.Header.NumCells),
	}, nil
}

// Pager returns the engine's page source.
func (e *Engine) Pager() *pager.Pager {
	return e.pager
}

// Catalog returns the loaded schema.
func (e *Engine) Catalog() *schema.Catalog {
	return e.catalog
}

// Names returns the user object names in catalog order.
func (e *Engine) Names() []string {
	return e.catalog.Names()
}

// Query parses sql as a SELECT and runs it.
func (e *Engine) Query(ctx context.Context, sql string) (*Result, error) {
	stmt, err := parser.ParseSelect(sql)
	if err != nil {
		return nil, err
	}
	return e.Select(ctx, stmt)
}

// Select runs stmt and collects every row.
func (e *Engine) Select(ctx context.Context, stmt *parser.Select) (*Result, error) {
	res := &Result{}
	err := e.Scan(ctx, stmt, func(cols []string, row Row) error {
		if res.Columns == nil {
			res.Columns = cols
		}
		res.Rows = append(res.Rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Columns == nil {
		// no rows; resolve the projection for the column names alone
		tbl, err := e.table(stmt.Table)
		if err != nil {
			return nil, err
		}
		res.Columns, _ = project(tbl, stmt.Columns)
	}
	return res, nil
}

// RowFunc receives each projected row in b-tree order along with the
// projected column names. Returning an error stops the scan.
type RowFunc func(columns []string, row Row) error

// Scan walks the table named by stmt and calls fn for each row.
//
// Requested columns are matched by name, exactly first and then ignoring
// case. Names that match no column are dropped from the projection, except
// rowid, oid and _rowid_ which read the row id when no column shadows them.
// A column aliasing the row id reads the row id when its stored value is
// NULL, which is how rows store it.
func (e *Engine) Scan(ctx context.Context, stmt *parser.Select, fn RowFunc) error {
	start := time.Now()

	tbl, err := e.table(stmt.Table)
	if err != nil {
		return err
	}
	cols, idx := project(tbl, stmt.Columns)
	alias := -1
	if tbl.PrimaryKey != "" {
		alias = tbl.ColumnIndex(tbl.PrimaryKey)
	}

	n := 0
	err = btree.Walk(e.pager, tbl.RootPage, func(page *btree.Page, c btree.Cell) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.Kind != btree.KindTableLeaf {
			return sqlerr.NewDecode("table b-tree", -1, "page %d of %s is a %s page", page.Pgno, tbl.Name, c.Kind)
		}
		payload, err := e.pager.ReadPayload(c)
		if err != nil {
			return err
		}
		values, err := record.Decode(payload, e.enc)
		if err != nil {
			return sqlerr.Wrapf(err, "row %d of %s", c.RowID, tbl.Name)
		}

		row := Row{RowID: c.RowID, Values: make([]record.Value, len(idx))}
		for i, col := range idx {
			row.Values[i] = e.column(tbl, values, col, alias, c.RowID)
		}
		n++
		return fn(cols, row)
	})
	if err != nil {
		if sqlerr.Is(err, sqlerr.ErrCorrupt) {
			logging.DecodeFailure(ctx, "engine", err, "table", tbl.Name)
		}
		return err
	}

	logging.QueryExecuted(ctx, tbl.Name, n, time.Since(start), "columns", len(cols))
	return nil
}

// column reads declared column col of a decoded row. Rows written before
// a column was added are shorter than the declaration and read NULL there.
func (e *Engine) column(tbl *schema.Table, values []record.Value, col, alias int, rowid int64) record.Value {
	if col == rowIDColumn {
		return record.NewInteger(rowid)
	}
	var v record.Value
	if col < len(values) {
		v = values[col]
	}
	if col == alias && v.IsNull() {
		return record.NewInteger(rowid)
	}
	return tbl.Columns[col].Affinity.Apply(v)
}

func (e *Engine) table(name string) (*schema.Table, error) {
	tbl, err := e.catalog.Table(name)
	if err != nil {
		return nil, err
	}
	if tbl.WithoutRowID {
		return nil, sqlerr.NewUnsupported("WITHOUT ROWID table", tbl.Name+" is stored as an index b-tree")
	}
	return tbl, nil
}

// project resolves requested names to declared column positions.
func project(tbl *schema.Table, requested []string) ([]string, []int) {
	names := make([]string, 0, len(requested))
	idx := make([]int, 0, len(requested))
	for _, name := range requested {
		i := tbl.ColumnIndex(name)
		switch {
		case i >= 0:
			names = append(names, tbl.Columns[i].Name)
			idx = append(idx, i)
		case isRowIDName(name):
			names = append(names, name)
			idx = append(idx, rowIDColumn)
		default:
			logging.Debug("column_dropped", "table", tbl.Name, "column", name)
		}
	}
	return names, idx
}

func isRowIDName(name string) bool {
	return strings.EqualFold(name, "rowid") || strings.EqualFold(name, "oid") || strings.EqualFold(name, "_rowid_")
}
