package sqlitetest

import (
	"testing"

	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/btree"
)

// Object is one schema table entry to build. Tables get a table b-tree
// holding Rows; indexes get an empty index leaf; views and triggers get no
// root page.
type Object struct {
	Type  string // "table" when empty
	Name  string
	Table string // the owning table; Name when empty
	SQL   string

	// Rows are stored with row ids RowIDs[i], or i+1 when RowIDs is nil.
	Rows   [][]any
	RowIDs []int64
}

// Build lays out objects in a fresh image and returns it. Tables whose rows
// overflow a leaf are split under a single interior root.
func Build(tb testing.TB, pageSize int, objects ...Object) *Image {
	tb.Helper()
	im := NewImage(pageSize)
	BuildInto(tb, im, objects...)
	return im
}

// BuildInto lays out objects in im, whose page 1 must still be empty.
func BuildInto(tb testing.TB, im *Image, objects ...Object) {
	tb.Helper()

	var master [][]byte
	for i, obj := range objects {
		typ := obj.Type
		if typ == "" {
			typ = "table"
		}
		tbl := obj.Table
		if tbl == "" {
			tbl = obj.Name
		}

		var root uint32
		switch typ {
		case "table":
			root = im.buildTable(tb, obj)
		case "index":
			root = im.Alloc()
			if err := im.SetBTree(root, btree.KindIndexLeaf, 0); err != nil {
				tb.Fatal(err)
			}
		}

		row, err := im.Record(typ, obj.Name, tbl, int64(root), obj.SQL)
		if err != nil {
			tb.Fatalf("encode schema row %q: %v", obj.Name, err)
		}
		master = append(master, im.Cell(btree.KindTableLeaf, int64(i+1), 0, row))
	}

	if !im.Fits(1, btree.KindTableLeaf, master) {
		tb.Fatalf("%d schema rows do not fit on page 1", len(master))
	}
	if err := im.SetBTree(1, btree.KindTableLeaf, 0, master...); err != nil {
		tb.Fatal(err)
	}
}

func (im *Image) buildTable(tb testing.TB, obj Object) uint32 {
	tb.Helper()
	root := im.Alloc()

	type leaf struct {
		cells [][]byte
		last  int64
	}
	var leaves []leaf
	cur := leaf{}
	for i, values := range obj.Rows {
		rowid := int64(i + 1)
		if obj.RowIDs != nil {
			rowid = obj.RowIDs[i]
		}
		payload, err := im.Record(values...)
		if err != nil {
			tb.Fatalf("encode row %d of %s: %v", rowid, obj.Name, err)
		}
		cell := im.Cell(btree.KindTableLeaf, rowid, 0, payload)
		if len(cur.cells) > 0 && !im.Fits(2, btree.KindTableLeaf, append(cur.cells, cell)) {
			leaves = append(leaves, cur)
			cur = leaf{}
		}
		cur.cells = append(cur.cells, cell)
		cur.last = rowid
	}
	leaves = append(leaves, cur)

	if len(leaves) == 1 {
		if err := im.SetBTree(root, btree.KindTableLeaf, 0, leaves[0].cells...); err != nil {
			tb.Fatal(err)
		}
		return root
	}

	pgnos := make([]uint32, len(leaves))
	for i, l := range leaves {
		pgnos[i] = im.Alloc()
		if err := im.SetBTree(pgnos[i], btree.KindTableLeaf, 0, l.cells...); err != nil {
			tb.Fatal(err)
		}
	}
	var dividers [][]byte
	for i := 0; i < len(leaves)-1; i++ {
		dividers = append(dividers, btree.EncodeTableInteriorCell(pgnos[i], leaves[i].last))
	}
	if err := im.SetBTree(root, btree.KindTableInterior, pgnos[len(pgnos)-1], dividers...); err != nil {
		tb.Fatalf("table %s needs more than two levels: %v", obj.Name, err)
	}
	return root
}

// FruitTable is the schema of the basic single-table fixture.
const FruitTable = "CREATE TABLE t(id integer primary key, name text)"

// Fruit returns the basic fixture: one table t with rows (1,a), (2,b), (3,c)
// on a single leaf page. The id column aliases the row id and is stored as
// NULL, as a real engine stores it.
func Fruit(tb testing.TB) []byte {
	tb.Helper()
	return Build(tb, 4096, Object{
		Name: "t",
		SQL:  FruitTable,
		Rows: [][]any{{nil, "a"}, {nil, "b"}, {nil, "c"}},
	}).Bytes()
}
