package btree

import (
	"encoding/binary"
	"fmt"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

// PageKind is the b-tree page type stored in the first header byte.
type PageKind uint8

// The four b-tree page kinds. Any other header byte is corrupt.
const (
	KindIndexInterior PageKind = 0x02
	KindTableInterior PageKind = 0x05
	KindIndexLeaf     PageKind = 0x0a
	KindTableLeaf     PageKind = 0x0d
)

// Page header offsets, relative to the start of the b-tree header
const (
	offsetKind       = 0 // Page kind (1 byte)
	offsetFreeblock  = 1 // First freeblock offset (2 bytes)
	offsetNumCells   = 3 // Number of cells (2 bytes)
	offsetCellStart  = 5 // Start of cell content area (2 bytes)
	offsetFragmented = 7 // Fragmented free bytes (1 byte)
	offsetRightMost  = 8 // Right-most child pointer (4 bytes, interior only)
)

// Header sizes
const (
	HeaderSizeLeaf     = 8   // Leaf pages
	HeaderSizeInterior = 12  // Interior pages, including the right-most pointer
	FileHeaderSize     = 100 // Database file header preceding page 1's b-tree header
)

// ParsePageKind validates a page kind byte.
func ParsePageKind(b byte) (PageKind, error) {
	switch k := PageKind(b); k {
	case KindIndexInterior, KindTableInterior, KindIndexLeaf, KindTableLeaf:
		return k, nil
	default:
		return 0, sqlerr.NewDecode("page header", offsetKind, "invalid page kind 0x%02x", b)
	}
}

// IsLeaf reports whether pages of this kind hold no child pointers.
func (k PageKind) IsLeaf() bool {
	return k == KindTableLeaf || k == KindIndexLeaf
}

// IsTable reports whether pages of this kind belong to a rowid table b-tree.
func (k PageKind) IsTable() bool {
	return k == KindTableLeaf || k == KindTableInterior
}

// HeaderSize returns the b-tree header length for pages of this kind.
func (k PageKind) HeaderSize() int {
	if k.IsLeaf() {
		return HeaderSizeLeaf
	}
	return HeaderSizeInterior
}

func (k PageKind) String() string {
	switch k {
	case KindIndexInterior:
		return "index interior"
	case KindTableInterior:
		return "table interior"
	case KindIndexLeaf:
		return "index leaf"
	case KindTableLeaf:
		return "table leaf"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(k))
	}
}

// PageHeader is the parsed b-tree header of one page.
type PageHeader struct {
	Kind             PageKind
	FirstFreeblock   uint16 // 0 if none
	NumCells         uint16
	CellContentStart int // a stored 0 means 65536
	FragmentedBytes  uint8
	RightMost        uint32 // interior pages only

	Offset int // where the header starts: 100 on page 1, 0 elsewhere
}

// HeaderOffset returns the position of the b-tree header within page pgno.
func HeaderOffset(pgno uint32) int {
	if pgno == 1 {
		return FileHeaderSize
	}
	return 0
}

// ParsePageHeader parses the b-tree header of page pgno from the page's raw
// bytes. Page 1's header follows the 100-byte file header.
func ParsePageHeader(data []byte, pgno uint32) (*PageHeader, error) {
	off := HeaderOffset(pgno)
	if len(data) < off+HeaderSizeLeaf {
		return nil, sqlerr.NewDecode("page header", off, "page %d holds only %d bytes", pgno, len(data))
	}
	hdr := data[off:]

	kind, err := ParsePageKind(hdr[offsetKind])
	if err != nil {
		return nil, sqlerr.Wrapf(err, "page %d", pgno)
	}

	h := &PageHeader{
		Kind:             kind,
		FirstFreeblock:   binary.BigEndian.Uint16(hdr[offsetFreeblock:]),
		NumCells:         binary.BigEndian.Uint16(hdr[offsetNumCells:]),
		CellContentStart: int(binary.BigEndian.Uint16(hdr[offsetCellStart:])),
		FragmentedBytes:  hdr[offsetFragmented],
		Offset:           off,
	}
	if h.CellContentStart == 0 {
		h.CellContentStart = 65536
	}

	if !kind.IsLeaf() {
		if len(hdr) < HeaderSizeInterior {
			return nil, sqlerr.NewDecode("page header", off, "interior page %d truncated", pgno)
		}
		h.RightMost = binary.BigEndian.Uint32(hdr[offsetRightMost:])
	}

	return h, nil
}

// Size returns the number of header bytes: 8 for leaves, 12 for interiors.
func (h *PageHeader) Size() int {
	return h.Kind.HeaderSize()
}

// RightMostPointer returns the right-most child page and whether the page
// kind carries one.
func (h *PageHeader) RightMostPointer() (uint32, bool) {
	if h.Kind.IsLeaf() {
		return 0, false
	}
	return h.RightMost, true
}

// CellPointerOffset returns where the cell pointer array starts within the
// page, counting the file header prefix on page 1.
func (h *PageHeader) CellPointerOffset() int {
	return h.Offset + h.Size()
}

// CellPointers reads the cell pointer array of the page in stored order.
// Each pointer is an offset from the start of the page and must land after
// the pointer array and inside the page.
func (h *PageHeader) CellPointers(data []byte) ([]int, error) {
	start := h.CellPointerOffset()
	end := start + 2*int(h.NumCells)
	if end > len(data) {
		return nil, sqlerr.NewDecode("cell pointer array", start, "%d pointers overrun a %d-byte page", h.NumCells, len(data))
	}

	ptrs := make([]int, h.NumCells)
	for i := range ptrs {
		p := int(binary.BigEndian.Uint16(data[start+2*i:]))
		if p < end || p >= len(data) {
			return nil, sqlerr.NewDecode("cell pointer array", start+2*i, "cell %d points outside the content area (%d)", i, p)
		}
		ptrs[i] = p
	}
	return ptrs, nil
}

// String returns a string representation of the page header
func (h *PageHeader) String() string {
	s := fmt.Sprintf("%s: cells=%d content=%d freeblock=%d fragmented=%d",
		h.Kind, h.NumCells, h.CellContentStart, h.FirstFreeblock, h.FragmentedBytes)
	if rm, ok := h.RightMostPointer(); ok {
		s += fmt.Sprintf(" right-most=%d", rm)
	}
	return s
}

// Page is one database page. It owns its buffer; cells decoded from it are
// views into Data and stay valid only while the page is held.
type Page struct {
	Pgno   uint32
	Data   []byte
	Header *PageHeader
}

// NewPage parses the b-tree header of a raw page.
func NewPage(pgno uint32, data []byte) (*Page, error) {
	h, err := ParsePageHeader(data, pgno)
	if err != nil {
		return nil, err
	}
	return &Page{Pgno: pgno, Data: data, Header: h}, nil
}

// Cells decodes every cell of the page in cell pointer order. usable is the
// page size minus the reserved bytes per page.
func (p *Page) Cells(usable int) ([]Cell, error) {
	ptrs, err := p.Header.CellPointers(p.Data)
	if err != nil {
		return nil, sqlerr.Wrapf(err, "page %d", p.Pgno)
	}

	cells := make([]Cell, 0, len(ptrs))
	for i, ptr := range ptrs {
		c, err := DecodeCell(p.Header.Kind, p.Data[ptr:], usable)
		if err != nil {
			return nil, sqlerr.Wrapf(err, "page %d cell %d", p.Pgno, i)
		}
		cells = append(cells, c)
	}
	return cells, nil
}
