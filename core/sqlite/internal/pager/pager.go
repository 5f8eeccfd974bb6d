// Package pager reads fixed-size pages out of a database image.
//
// A Pager is read-only. It validates the file header once at open, pins
// page 1 and serves every other page through an LRU page cache. Pages are
// numbered from 1; page N starts at byte (N-1)*pageSize.
package pager

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/FocuswithJustin/sqlread/core/cache"
	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlread/internal/logging"
)

// DefaultCachePages is the number of pages kept in memory by default.
const DefaultCachePages = 64

// Config controls how a Pager buffers pages.
type Config struct {
	// CachePages is the LRU capacity in pages. Zero or less disables the
	// cache; page 1 is always kept.
	CachePages int

	// Name identifies the image in errors, usually its path.
	Name string
}

// DefaultConfig returns the default pager configuration.
func DefaultConfig() Config {
	return Config{CachePages: DefaultCachePages}
}

// Pager serves pages of a single database image.
type Pager struct {
	r      io.ReaderAt
	size   int64
	name   string
	header *format.Header

	pageSize  int
	pageCount uint32

	first []byte // page 1, pinned
	cache *cache.PageCache

	mu    sync.Mutex
	reads int64
}

// Open validates the file header of the image behind r and returns a pager
// over it. size is the length of the image in bytes.
func Open(r io.ReaderAt, size int64, cfg Config) (*Pager, error) {
	buf := make([]byte, format.HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, sqlerr.NewIO("read header of", cfg.Name, err)
	}

	h, err := format.Parse(buf)
	if err != nil {
		return nil, err
	}

	p := &Pager{
		r:        r,
		size:     size,
		name:     cfg.Name,
		header:   h,
		pageSize: h.PageSize,
		cache:    cache.NewPageCache(cfg.CachePages),
	}

	if n, ok := h.PageCount(); ok {
		p.pageCount = n
	} else {
		p.pageCount = uint32(size / int64(h.PageSize))
	}
	if p.pageCount == 0 {
		return nil, sqlerr.NewDecode("file header", format.OffsetDatabaseSize, "image of %d bytes holds no complete page", size)
	}

	first, err := p.read(1)
	if err != nil {
		return nil, err
	}
	p.first = first
	return p, nil
}

// Header returns the parsed file header.
func (p *Pager) Header() *format.Header {
	return p.header
}

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// UsableSize returns the page size minus the reserved bytes per page.
func (p *Pager) UsableSize() int {
	return p.header.UsableSize()
}

// PageCount returns the number of pages in the image.
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// Image returns a reader over the whole database image.
func (p *Pager) Image() *io.SectionReader {
	return io.NewSectionReader(p.r, 0, p.size)
}

// Raw returns the bytes of page pgno. The returned slice is shared with the
// cache and must not be modified.
func (p *Pager) Raw(pgno uint32) ([]byte, error) {
	data, _, err := p.get(pgno)
	return data, err
}

// Page returns page pgno with its b-tree header parsed.
func (p *Pager) Page(pgno uint32) (*btree.Page, error) {
	data, cached, err := p.get(pgno)
	if err != nil {
		return nil, err
	}
	page, err := btree.NewPage(pgno, data)
	if err != nil {
		return nil, err
	}
	if !cached {
		logging.PageRead(pgno, page.Header.Kind.String(), int(page.Header.NumCells))
	}
	return page, nil
}

func (p *Pager) get(pgno uint32) ([]byte, bool, error) {
	if pgno == 0 {
		return nil, false, sqlerr.NewValidation("pgno", "0", "pages are numbered from 1")
	}
	if pgno == 1 {
		return p.first, true, nil
	}
	if data, ok := p.cache.Get(pgno); ok {
		return data, true, nil
	}
	data, err := p.read(pgno)
	if err != nil {
		return nil, false, err
	}
	p.cache.Put(pgno, data)
	return data, false, nil
}

func (p *Pager) read(pgno uint32) ([]byte, error) {
	if pgno > p.pageCount {
		return nil, sqlerr.NewIO("read page of", p.name,
			sqlerr.NewValidation("pgno", strconv.FormatUint(uint64(pgno), 10), fmt.Sprintf("beyond the last page %d", p.pageCount)))
	}

	data := make([]byte, p.pageSize)
	off := int64(pgno-1) * int64(p.pageSize)
	n, err := p.r.ReadAt(data, off)
	if n < len(data) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, sqlerr.NewIO("read page of", p.name, sqlerr.Wrapf(err, "page %d", pgno))
	}

	p.mu.Lock()
	p.reads++
	p.mu.Unlock()
	return data, nil
}

// ReadPayload assembles the full record of a cell, following its overflow chain
// when the record spills out of the page.
func (p *Pager) ReadPayload(c btree.Cell) ([]byte, error) {
	pl := c.Payload
	if !pl.HasOverflow() {
		return pl.Local, nil
	}
	if pl.Size > uint64(p.pageCount)*uint64(p.pageSize) {
		return nil, sqlerr.NewDecode("overflow chain", -1, "payload of %d bytes exceeds the file", pl.Size)
	}

	out := make([]byte, 0, pl.Size)
	out = append(out, pl.Local...)
	chunk := p.UsableSize() - 4
	seen := make(map[uint32]struct{})

	for next := pl.Overflow; uint64(len(out)) < pl.Size; {
		if next == 0 {
			return nil, sqlerr.NewDecode("overflow chain", -1, "chain ends with %d of %d bytes read", len(out), pl.Size)
		}
		if next > p.pageCount {
			return nil, sqlerr.NewDecode("overflow chain", -1, "link to page %d beyond the last page %d", next, p.pageCount)
		}
		if _, ok := seen[next]; ok {
			return nil, sqlerr.NewDecode("overflow chain", -1, "page %d linked twice", next)
		}
		seen[next] = struct{}{}

		data, err := p.Raw(next)
		if err != nil {
			return nil, err
		}
		n := min(uint64(chunk), pl.Size-uint64(len(out)))
		out = append(out, data[4:4+n]...)
		next = binary.BigEndian.Uint32(data)
	}
	return out, nil
}

// Stats reports page cache activity. Reads counts physical page reads.
type Stats struct {
	Cache cache.Stats
	Reads int64
}

// Stats returns cache and read statistics.
func (p *Pager) Stats() Stats {
	p.mu.Lock()
	reads := p.reads
	p.mu.Unlock()
	return Stats{Cache: p.cache.Stats(), Reads: reads}
}
