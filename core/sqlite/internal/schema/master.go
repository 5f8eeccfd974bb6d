package schema

import (
	"fmt"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/utf"
)

// The schema table is always rooted at page 1:
//
//	CREATE TABLE sqlite_schema (
//	  type TEXT,      -- "table", "index", "view" or "trigger"
//	  name TEXT,      -- object name
//	  tbl_name TEXT,  -- table the object belongs to
//	  rootpage INT,   -- root b-tree page, 0 for views and triggers
//	  sql TEXT        -- CREATE statement, NULL for automatic indexes
//	);
const MasterRoot = 1

// ObjectType is the type column of a schema row.
type ObjectType string

const (
	TypeTable   ObjectType = "table"
	TypeIndex   ObjectType = "index"
	TypeView    ObjectType = "view"
	TypeTrigger ObjectType = "trigger"
)

// ParseObjectType validates a schema row's type column.
func ParseObjectType(s string) (ObjectType, error) {
	switch t := ObjectType(s); t {
	case TypeTable, TypeIndex, TypeView, TypeTrigger:
		return t, nil
	default:
		return "", fmt.Errorf("unknown object type %q", s)
	}
}

// Entry is one row of the schema table.
type Entry struct {
	Type      ObjectType
	Name      string
	TableName string
	RootPage  uint32 // 0 when the object has no b-tree
	SQL       string // empty when stored as NULL
	RowID     int64
}

// Source supplies pages and assembles spilled payloads.
type Source interface {
	btree.PageSource
	ReadPayload(c btree.Cell) ([]byte, error)
}

// LoadMaster reads every row of the schema table in row id order. Text is
// decoded from enc.
func LoadMaster(src Source, enc utf.Encoding) ([]Entry, error) {
	var entries []Entry
	err := btree.Walk(src, MasterRoot, func(page *btree.Page, c btree.Cell) error {
		if c.Kind != btree.KindTableLeaf {
			return sqlerr.NewDecode("schema table", -1, "page %d is a %s page", page.Pgno, c.Kind)
		}
		payload, err := src.ReadPayload(c)
		if err != nil {
			return err
		}
		values, err := record.Decode(payload, enc)
		if err != nil {
			return sqlerr.Wrapf(err, "schema row %d", c.RowID)
		}
		e, err := entryFromRow(values)
		if err != nil {
			return sqlerr.Wrapf(err, "schema row %d", c.RowID)
		}
		e.RowID = c.RowID
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func entryFromRow(values []record.Value) (Entry, error) {
	if len(values) < 5 {
		return Entry{}, sqlerr.NewDecode("schema row", -1, "%d columns, want 5", len(values))
	}

	text := func(i int, name string) (string, error) {
		if values[i].IsNull() {
			return "", nil
		}
		s, ok := values[i].Text()
		if !ok {
			return "", sqlerr.NewDecode("schema row", -1, "%s is %s, want text", name, values[i].Kind())
		}
		return s, nil
	}

	var (
		e   Entry
		typ string
		err error
	)
	if typ, err = text(0, "type"); err != nil {
		return e, err
	}
	if e.Type, err = ParseObjectType(typ); err != nil {
		return e, sqlerr.NewDecode("schema row", -1, "%v", err)
	}
	if e.Name, err = text(1, "name"); err != nil {
		return e, err
	}
	if e.TableName, err = text(2, "tbl_name"); err != nil {
		return e, err
	}
	if e.SQL, err = text(4, "sql"); err != nil {
		return e, err
	}

	if !values[3].IsNull() {
		root, ok := values[3].Int()
		if !ok || root < 0 || root > 1<<32-1 {
			return e, sqlerr.NewDecode("schema row", -1, "rootpage %s is not a page number", values[3])
		}
		e.RootPage = uint32(root)
	}
	if (e.Type == TypeTable || e.Type == TypeIndex) && e.RootPage == 0 && e.SQL != "" && !isVirtual(e.SQL) {
		return e, sqlerr.NewDecode("schema row", -1, "%s %s has no root page", e.Type, e.Name)
	}
	return e, nil
}
