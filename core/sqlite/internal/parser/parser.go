// Package parser recognizes the two SQL statements a reader needs: the
// CREATE TABLE text stored in the schema table, and single-table SELECT
// queries.
//
// Both grammars are deliberately small. CREATE TABLE accepts everything a
// real engine stores for an ordinary table but keeps only column names,
// declared types and the primary key. SELECT accepts a column list and a
// table name and nothing else. Keywords are case-insensitive; identifiers
// may be bare or quoted with "", ``, [] or ''.
package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

// Grammar names used in syntax errors.
const (
	GrammarCreateTable = "CREATE TABLE"
	GrammarSelect      = "SELECT"
)

// CreateTable is a parsed CREATE TABLE statement.
type CreateTable struct {
	Schema  string // qualifier such as "main", if any
	Name    string
	Columns []Column

	// PrimaryKey names the column that aliases the row id, or is empty.
	PrimaryKey string

	Temp         bool
	IfNotExists  bool
	WithoutRowID bool
	Strict       bool
}

// Column is one declared column.
type Column struct {
	Name       string
	Type       string // declared type as written, e.g. "varchar(20)"; may be empty
	PrimaryKey bool   // the column's own definition contains PRIMARY KEY
}

// ColumnNames returns the declared column names in order.
func (t *CreateTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1. Matching follows
// the engine: exact first, then case-insensitive.
func (t *CreateTable) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Select is a parsed SELECT statement.
type Select struct {
	Columns []string
	Table   string
}

//nolint:govet // participle grammar tags are not standard struct tags
type createGrammar struct {
	Temp        bool           `"CREATE" @( "TEMP" | "TEMPORARY" )?`
	IfNotExists bool           `"TABLE" @( "IF" "NOT" "EXISTS" )?`
	Name        *qualifiedName `@@`
	Defs        []*tableDef    `"(" @@ ( "," @@ )* ")"`
	Options     []*tableOption `( @@ ( "," @@ )* )? ";"?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type qualifiedName struct {
	Parts []string `@( Ident | QuotedIdent | String ) ( "." @( Ident | QuotedIdent | String ) )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tableOption struct {
	WithoutRowID bool `  @( "WITHOUT" "ROWID" )`
	Strict       bool `| @"STRICT"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tableDef struct {
	Constraint *tableConstraint `  @@`
	Column     *columnDef       `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tableConstraint struct {
	Name string      `( "CONSTRAINT" @( Ident | QuotedIdent | String ) )?`
	Kind []string    `@( "PRIMARY" "KEY" | "UNIQUE" | "CHECK" | "FOREIGN" "KEY" )`
	Tail []*fragment `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type columnDef struct {
	Name string      `@( Ident | QuotedIdent | String )`
	Tail []*fragment `@@*`
}

// fragment is one token of a definition's tail, or a parenthesised group.
//
//nolint:govet // participle grammar tags are not standard struct tags
type fragment struct {
	Group *group `  @@`
	Token string `| @!( "," | "(" | ")" )`
}

//nolint:govet // participle grammar tags are not standard struct tags
type group struct {
	Items []*groupItem `"(" @@* ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type groupItem struct {
	Group *group `  @@`
	Token string `| @!( "(" | ")" )`
}

//nolint:govet // participle grammar tags are not standard struct tags
type selectGrammar struct {
	Columns []*qualifiedName `"SELECT" @@ ( "," @@ )*`
	Table   *qualifiedName   `"FROM" @@ ";"?`
}

var (
	createParser = participle.MustBuild[createGrammar](options...)
	selectParser = participle.MustBuild[selectGrammar](options...)
)

// ParseCreateTable parses the SQL text of a table's schema entry.
func ParseCreateTable(sql string) (*CreateTable, error) {
	g, err := createParser.ParseString("", sql)
	if err != nil {
		return nil, sqlerr.NewSyntax(GrammarCreateTable, sql, err)
	}

	t := &CreateTable{
		Temp:        g.Temp,
		IfNotExists: g.IfNotExists,
	}
	t.Schema, t.Name = g.Name.split()
	for _, opt := range g.Options {
		t.WithoutRowID = t.WithoutRowID || opt.WithoutRowID
		t.Strict = t.Strict || opt.Strict
	}

	var tablePK [][]*groupItem
	for _, def := range g.Defs {
		if c := def.Constraint; c != nil {
			if len(c.Kind) == 2 && strings.EqualFold(c.Kind[0], "PRIMARY") && len(c.Tail) > 0 && c.Tail[0].Group != nil {
				tablePK = append(tablePK, c.Tail[0].Group.Items)
			}
			continue
		}
		t.Columns = append(t.Columns, def.Column.column())
	}
	if len(t.Columns) == 0 {
		return nil, sqlerr.NewSyntax(GrammarCreateTable, sql, nil)
	}

	for _, c := range t.Columns {
		if c.PrimaryKey {
			t.PrimaryKey = c.Name
			break
		}
	}
	if t.PrimaryKey == "" && len(tablePK) == 1 {
		t.PrimaryKey = t.tableKeyAlias(tablePK[0])
	}
	return t, nil
}

// tableKeyAlias resolves PRIMARY KEY(col) declared as a table constraint.
// Only a single INTEGER column aliases the row id.
func (t *CreateTable) tableKeyAlias(items []*groupItem) string {
	var cols []string
	for _, it := range items {
		if it.Token != "" && it.Token != "," && !isOrderKeyword(it.Token) {
			cols = append(cols, it.Token)
		}
	}
	if len(cols) != 1 {
		return ""
	}
	i := t.Index(cols[0])
	if i < 0 || !strings.EqualFold(t.Columns[i].Type, "integer") {
		return ""
	}
	return t.Columns[i].Name
}

func isOrderKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "ASC", "DESC", "COLLATE", "NOCASE", "BINARY", "RTRIM":
		return true
	}
	return false
}

// columnKeywords end the declared type of a column.
var columnKeywords = map[string]bool{
	"CONSTRAINT": true,
	"PRIMARY":    true,
	"NOT":        true,
	"NULL":       true,
	"UNIQUE":     true,
	"CHECK":      true,
	"DEFAULT":    true,
	"COLLATE":    true,
	"REFERENCES": true,
	"GENERATED":  true,
	"AS":         true,
}

func (d *columnDef) column() Column {
	c := Column{Name: d.Name}

	var typ []string
	inType := true
	var prev string
	for _, f := range d.Tail {
		if f.Group != nil {
			if inType && len(typ) > 0 {
				typ[len(typ)-1] += f.Group.text()
			}
			inType = false
			prev = ""
			continue
		}
		word := strings.ToUpper(f.Token)
		if columnKeywords[word] {
			inType = false
		}
		if inType {
			typ = append(typ, f.Token)
		}
		if prev == "PRIMARY" && word == "KEY" {
			c.PrimaryKey = true
		}
		prev = word
	}
	c.Type = strings.Join(typ, " ")
	return c
}

func (g *group) text() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, it := range g.Items {
		if it.Group != nil {
			sb.WriteString(it.Group.text())
		} else {
			sb.WriteString(it.Token)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func (n *qualifiedName) split() (schema, name string) {
	last := len(n.Parts) - 1
	if last > 0 {
		schema = n.Parts[last-1]
	}
	return schema, n.Parts[last]
}

// ParseSelect parses a query of the form
//
//	SELECT col [, col ...] FROM table
//
// Anything else, including *, WHERE and expressions, is a syntax error.
func ParseSelect(sql string) (*Select, error) {
	g, err := selectParser.ParseString("", sql)
	if err != nil {
		return nil, sqlerr.NewSyntax(GrammarSelect, sql, err)
	}

	s := &Select{Columns: make([]string, len(g.Columns))}
	for i, c := range g.Columns {
		_, s.Columns[i] = c.split()
	}
	_, s.Table = g.Table.split()
	return s, nil
}
