// Package sqlitetest builds database images for tests.
//
// Image assembles a file page by page from the btree and record encoders,
// so tests can produce exact layouts (pointer order, spilled payloads,
// corrupt pages) that a real engine would never write. CreateDB produces
// files with a real SQLite engine instead.
package sqlitetest

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/utf"
)

// Image is a database file under construction. Page 1 always exists.
type Image struct {
	PageSize int
	Reserved int
	Encoding utf.Encoding

	pages [][]byte
}

// NewImage returns an image with an empty page 1.
func NewImage(pageSize int) *Image {
	im := &Image{PageSize: pageSize, Encoding: utf.UTF8}
	im.Alloc()
	return im
}

// Usable is the page size minus the reserved bytes per page.
func (im *Image) Usable() int {
	return im.PageSize - im.Reserved
}

// Alloc appends a zeroed page and returns its number.
func (im *Image) Alloc() uint32 {
	im.pages = append(im.pages, make([]byte, im.PageSize))
	return uint32(len(im.pages))
}

// Pages returns the number of pages allocated so far.
func (im *Image) Pages() int {
	return len(im.pages)
}

// Raw returns the buffer of page pgno for direct edits.
func (im *Image) Raw(pgno uint32) []byte {
	return im.pages[pgno-1]
}

// SetBTree writes a b-tree page holding cells, with pointers in the given
// order and content packed from the end of the usable area.
func (im *Image) SetBTree(pgno uint32, kind btree.PageKind, rightMost uint32, cells ...[]byte) error {
	data := im.pages[pgno-1]
	clear(data)

	off := btree.HeaderOffset(pgno)
	data[off] = byte(kind)
	binary.BigEndian.PutUint16(data[off+3:], uint16(len(cells)))
	if !kind.IsLeaf() {
		binary.BigEndian.PutUint32(data[off+8:], rightMost)
	}

	ptr := off + kind.HeaderSize()
	content := im.Usable()
	for _, c := range cells {
		content -= len(c)
		if content < ptr+2 {
			return fmt.Errorf("page %d: %d cells do not fit", pgno, len(cells))
		}
		copy(data[content:], c)
		binary.BigEndian.PutUint16(data[ptr:], uint16(content))
		ptr += 2
	}
	binary.BigEndian.PutUint16(data[off+5:], uint16(content))
	return nil
}

// Fits reports whether cells fit on one page of the given kind.
func (im *Image) Fits(pgno uint32, kind btree.PageKind, cells [][]byte) bool {
	used := btree.HeaderOffset(pgno) + kind.HeaderSize()
	for _, c := range cells {
		used += len(c) + 2
	}
	return used <= im.Usable()
}

// Cell encodes a leaf or index cell. Payloads larger than the page allows
// are split, with the remainder written to newly allocated overflow pages.
func (im *Image) Cell(kind btree.PageKind, rowid int64, leftChild uint32, payload []byte) []byte {
	if kind == btree.KindTableInterior {
		return btree.EncodeTableInteriorCell(leftChild, rowid)
	}

	var buf []byte
	if !kind.IsLeaf() {
		buf = binary.BigEndian.AppendUint32(buf, leftChild)
	}
	buf = btree.AppendVarint(buf, uint64(len(payload)))
	if kind == btree.KindTableLeaf {
		buf = btree.AppendVarint(buf, uint64(rowid))
	}

	local := btree.LocalPayloadSize(kind, uint64(len(payload)), im.Usable())
	buf = append(buf, payload[:local]...)
	if local < len(payload) {
		buf = binary.BigEndian.AppendUint32(buf, im.spill(payload[local:]))
	}
	return buf
}

// spill writes rest across a chain of overflow pages and returns the first.
func (im *Image) spill(rest []byte) uint32 {
	chunk := im.Usable() - 4
	var first, prev uint32
	for len(rest) > 0 {
		pgno := im.Alloc()
		if prev != 0 {
			binary.BigEndian.PutUint32(im.Raw(prev), pgno)
		} else {
			first = pgno
		}
		n := min(chunk, len(rest))
		copy(im.Raw(pgno)[4:], rest[:n])
		rest = rest[n:]
		prev = pgno
	}
	return first
}

// Bytes writes the file header into page 1 and returns the whole image.
func (im *Image) Bytes() []byte {
	h := format.NewHeader(im.PageSize, uint32(len(im.pages)))
	h.ReservedSpace = uint8(im.Reserved)
	h.TextEncoding = im.Encoding
	copy(im.pages[0], h.Bytes())

	out := make([]byte, 0, len(im.pages)*im.PageSize)
	for _, p := range im.pages {
		out = append(out, p...)
	}
	return out
}

// Record encodes values in the image's text encoding.
func (im *Image) Record(values ...any) ([]byte, error) {
	return record.Encode(im.Encoding, values...)
}

// WriteFile writes data into a fresh temp directory and returns its path.
func WriteFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
