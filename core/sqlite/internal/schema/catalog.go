// Package schema reads the schema table on page 1 and resolves table names
// to their definitions.
package schema

import (
	"strings"
	"sync"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/utf"
	"github.com/FocuswithJustin/sqlread/internal/logging"
)

// internalPrefix marks names reserved for the engine's own tables.
const internalPrefix = "sqlite_"

// Catalog holds the schema table of one open database. Entries are read
// once; table definitions are parsed on first use and cached. It is safe
// for concurrent use.
type Catalog struct {
	entries []Entry

	mu     sync.Mutex
	tables map[string]*Table
}

// Table is a table entry with its parsed definition.
type Table struct {
	Name         string
	RootPage     uint32
	SQL          string
	Columns      []Column
	PrimaryKey   string // column aliasing the row id, if any
	WithoutRowID bool

	def *parser.CreateTable
}

// Column is a declared column with its affinity.
type Column struct {
	Name     string
	Type     string
	Affinity Affinity
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	return t.def.Index(name)
}

// Load reads the schema table from src.
func Load(src Source, enc utf.Encoding) (*Catalog, error) {
	entries, err := LoadMaster(src, enc)
	if err != nil {
		return nil, err
	}
	logging.Debug("schema_loaded", "entries", len(entries))
	return NewCatalog(entries), nil
}

// NewCatalog returns a catalog over already loaded entries.
func NewCatalog(entries []Entry) *Catalog {
	return &Catalog{
		entries: entries,
		tables:  make(map[string]*Table),
	}
}

// Entries returns every schema row in row id order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Len returns the number of schema rows.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Names returns the names of the user objects (tables, indexes, views and
// triggers) in catalog order. Internal sqlite_ objects are left out.
func (c *Catalog) Names() []string {
	var names []string
	for _, e := range c.entries {
		if !IsInternal(e.Name) {
			names = append(names, e.Name)
		}
	}
	return names
}

// Lookup finds the entry named name. An exact match wins over a
// case-insensitive one.
func (c *Catalog) Lookup(name string) (Entry, error) {
	for _, e := range c.entries {
		if e.Name == name {
			return e, nil
		}
	}
	for _, e := range c.entries {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Entry{}, sqlerr.NewLookup("table", name)
}

// Table resolves name to a table and parses its definition.
func (c *Catalog) Table(name string) (*Table, error) {
	e, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	if e.Type != TypeTable {
		return nil, sqlerr.NewUnsupported("query on "+string(e.Type), e.Name+" is not a table")
	}
	if isVirtual(e.SQL) {
		return nil, sqlerr.NewUnsupported("virtual table", e.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tables[e.Name]; ok {
		return t, nil
	}

	def, err := parser.ParseCreateTable(e.SQL)
	if err != nil {
		return nil, sqlerr.Wrapf(err, "table %s", e.Name)
	}
	t := &Table{
		Name:         e.Name,
		RootPage:     e.RootPage,
		SQL:          e.SQL,
		PrimaryKey:   def.PrimaryKey,
		WithoutRowID: def.WithoutRowID,
		def:          def,
	}
	for _, col := range def.Columns {
		t.Columns = append(t.Columns, Column{
			Name:     col.Name,
			Type:     col.Type,
			Affinity: DetermineAffinity(col.Type),
		})
	}
	c.tables[e.Name] = t
	return t, nil
}

// IsInternal reports whether name is reserved for the engine's own use.
func IsInternal(name string) bool {
	return len(name) >= len(internalPrefix) && strings.EqualFold(name[:len(internalPrefix)], internalPrefix)
}

func isVirtual(sql string) bool {
	fields := strings.Fields(sql)
	return len(fields) >= 2 && strings.EqualFold(fields[0], "CREATE") && strings.EqualFold(fields[1], "VIRTUAL")
}
