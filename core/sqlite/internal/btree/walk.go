package btree

import (
	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

// MaxDepth bounds the height of a b-tree. Real trees are far shallower, so
// anything deeper is treated as corrupt.
const MaxDepth = 64

// PageSource supplies parsed pages to Walk.
type PageSource interface {
	Page(pgno uint32) (*Page, error)
	PageCount() uint32
	UsableSize() int
}

// Visitor is called for each entry found by Walk. The page and the cell's
// payload view are valid only for the duration of the call.
type Visitor func(page *Page, cell Cell) error

// Walk visits every entry of the b-tree rooted at root in key order.
//
// For table trees only leaf cells are entries: each interior cell's left
// child is descended in pointer order, then the header's right-most child.
// For index trees interior cells are entries too and are visited between
// their left subtree and the next one.
func Walk(src PageSource, root uint32, visit Visitor) error {
	w := &walker{
		src:   src,
		visit: visit,
		seen:  make(map[uint32]struct{}),
	}
	page, err := w.load(root, 0)
	if err != nil {
		return err
	}
	return w.walk(page, page.Header.Kind.IsTable(), 0)
}

type walker struct {
	src   PageSource
	visit Visitor
	seen  map[uint32]struct{}
}

func (w *walker) load(pgno uint32, depth int) (*Page, error) {
	if depth >= MaxDepth {
		return nil, sqlerr.NewDecode("b-tree", -1, "page %d is more than %d levels deep", pgno, MaxDepth)
	}
	if pgno == 0 {
		return nil, sqlerr.NewDecode("b-tree", -1, "child pointer to page 0")
	}
	if n := w.src.PageCount(); pgno > n {
		return nil, sqlerr.NewDecode("b-tree", -1, "pointer to page %d beyond the last page %d", pgno, n)
	}
	if _, ok := w.seen[pgno]; ok {
		return nil, sqlerr.NewDecode("b-tree", -1, "page %d referenced twice", pgno)
	}
	w.seen[pgno] = struct{}{}
	return w.src.Page(pgno)
}

func (w *walker) walk(page *Page, table bool, depth int) error {
	if page.Header.Kind.IsTable() != table {
		return sqlerr.NewDecode("b-tree", -1, "page %d is a %s page inside a %s tree",
			page.Pgno, page.Header.Kind, treeName(table))
	}

	cells, err := page.Cells(w.src.UsableSize())
	if err != nil {
		return err
	}

	if page.Header.Kind.IsLeaf() {
		for _, c := range cells {
			if err := w.visit(page, c); err != nil {
				return err
			}
		}
		return nil
	}

	for _, c := range cells {
		if err := w.descend(c.LeftChild, table, depth); err != nil {
			return err
		}
		if !table {
			if err := w.visit(page, c); err != nil {
				return err
			}
		}
	}
	return w.descend(page.Header.RightMost, table, depth)
}

func (w *walker) descend(pgno uint32, table bool, depth int) error {
	child, err := w.load(pgno, depth+1)
	if err != nil {
		return err
	}
	return w.walk(child, table, depth+1)
}

func treeName(table bool) string {
	if table {
		return "table"
	}
	return "index"
}
