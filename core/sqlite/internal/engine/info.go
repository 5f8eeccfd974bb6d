package engine

import (
	"github.com/FocuswithJustin/sqlread/core/cas"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/utf"
)

// Info summarises the open database.
type Info struct {
	PageSize      int
	UsableSize    int
	PageCount     uint32
	SchemaEntries int // rows of the schema table
	SchemaCells   int // cells on page 1, the schema table root
	Encoding      utf.Encoding
	Header        *format.Header
}

// Info describes the database file and its schema table.
func (e *Engine) Info() Info {
	h := e.pager.Header()
	return Info{
		PageSize:      e.pager.PageSize(),
		UsableSize:    e.pager.UsableSize(),
		PageCount:     e.pager.PageCount(),
		SchemaEntries: e.catalog.Len(),
		SchemaCells:   e.cells,
		Encoding:      e.enc,
		Header:        h,
	}
}

// PageInfo is the b-tree header of one page and the digest of its bytes.
type PageInfo struct {
	Pgno   uint32
	Header *btree.PageHeader
	Digest string // BLAKE3, hex
}

// PageInfo parses page pgno as a b-tree page. Overflow and freelist pages
// have no b-tree header and fail to decode.
func (e *Engine) PageInfo(pgno uint32) (*PageInfo, error) {
	page, err := e.pager.Page(pgno)
	if err != nil {
		return nil, err
	}
	return &PageInfo{
		Pgno:   pgno,
		Header: page.Header,
		Digest: cas.Blake3Hash(page.Data),
	}, nil
}

// Checksum digests the whole database image.
func (e *Engine) Checksum() (*cas.HashResult, error) {
	return cas.SumReader(e.pager.Image())
}
