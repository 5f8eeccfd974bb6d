package btree

import (
	"encoding/binary"
	"fmt"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

// Payload is the record bytes referenced by a cell. Local is a view into the
// page buffer. When the record spills, Local holds only the in-page prefix
// and Overflow names the first page of the overflow chain.
type Payload struct {
	Size     uint64 // declared size of the whole record
	Local    []byte
	Overflow uint32 // 0 if the record fits on the page
}

// HasOverflow reports whether part of the record lives on overflow pages.
func (p Payload) HasOverflow() bool {
	return p.Overflow != 0
}

// Cell is one decoded b-tree entry. Which fields are meaningful depends on
// Kind:
//
//	KindTableLeaf      RowID, Payload
//	KindTableInterior  LeftChild, RowID
//	KindIndexLeaf      Payload
//	KindIndexInterior  LeftChild, Payload
type Cell struct {
	Kind      PageKind
	RowID     int64
	LeftChild uint32
	Payload   Payload
}

// DecodeCell decodes the single cell at the start of data, a slice of the
// page beginning at the cell's pointer. usable is the usable page size, used
// to split spilled payloads.
func DecodeCell(kind PageKind, data []byte, usable int) (Cell, error) {
	c := Cell{Kind: kind}
	off := 0

	if !kind.IsLeaf() {
		if len(data) < 4 {
			return c, sqlerr.NewDecode("cell", 0, "child pointer truncated")
		}
		c.LeftChild = binary.BigEndian.Uint32(data)
		off = 4
	}

	if kind == KindTableInterior {
		rowid, _, err := ReadVarint(data[off:])
		if err != nil {
			return c, sqlerr.Wrap(err, "rowid")
		}
		c.RowID = int64(rowid)
		return c, nil
	}

	size, n, err := ReadVarint(data[off:])
	if err != nil {
		return c, sqlerr.Wrap(err, "payload size")
	}
	off += n

	if kind == KindTableLeaf {
		rowid, n, err := ReadVarint(data[off:])
		if err != nil {
			return c, sqlerr.Wrap(err, "rowid")
		}
		c.RowID = int64(rowid)
		off += n
	}

	local := LocalPayloadSize(kind, size, usable)
	if off+local > len(data) {
		return c, sqlerr.NewDecode("cell", off, "payload of %d bytes exceeds page bounds", local)
	}
	c.Payload = Payload{
		Size:  size,
		Local: data[off : off+local : off+local],
	}

	if uint64(local) < size {
		off += local
		if off+4 > len(data) {
			return c, sqlerr.NewDecode("cell", off, "overflow pointer truncated")
		}
		c.Payload.Overflow = binary.BigEndian.Uint32(data[off:])
		if c.Payload.Overflow == 0 {
			return c, sqlerr.NewDecode("cell", off, "payload of %d bytes spills to page 0", size)
		}
	}
	return c, nil
}

// LocalPayloadSize returns how many bytes of a size-byte payload are stored
// on the page itself for a cell of the given kind.
func LocalPayloadSize(kind PageKind, size uint64, usable int) int {
	u := uint64(usable)
	maxLocal := maxLocalPayload(kind, usable)
	if size <= maxLocal {
		return int(size)
	}
	minLocal := (u-12)*32/255 - 23
	k := minLocal + (size-minLocal)%(u-4)
	if k <= maxLocal {
		return int(k)
	}
	return int(minLocal)
}

func maxLocalPayload(kind PageKind, usable int) uint64 {
	u := uint64(usable)
	if kind == KindTableLeaf {
		return u - 35
	}
	return (u-12)*64/255 - 23
}

func (c Cell) String() string {
	switch c.Kind {
	case KindTableLeaf:
		return fmt.Sprintf("table leaf cell{rowid=%d, payload=%d/%d, overflow=%d}",
			c.RowID, len(c.Payload.Local), c.Payload.Size, c.Payload.Overflow)
	case KindTableInterior:
		return fmt.Sprintf("table interior cell{child=%d, rowid=%d}", c.LeftChild, c.RowID)
	case KindIndexLeaf:
		return fmt.Sprintf("index leaf cell{payload=%d/%d, overflow=%d}",
			len(c.Payload.Local), c.Payload.Size, c.Payload.Overflow)
	default:
		return fmt.Sprintf("index interior cell{child=%d, payload=%d/%d, overflow=%d}",
			c.LeftChild, len(c.Payload.Local), c.Payload.Size, c.Payload.Overflow)
	}
}

// EncodeTableLeafCell encodes a table leaf cell whose payload fits on the page.
// Format: varint(payload_size), varint(rowid), payload
func EncodeTableLeafCell(rowid int64, payload []byte) []byte {
	buf := AppendVarint(nil, uint64(len(payload)))
	buf = AppendVarint(buf, uint64(rowid))
	return append(buf, payload...)
}

// EncodeTableInteriorCell encodes a table interior cell.
// Format: 4-byte child page number, varint(rowid)
func EncodeTableInteriorCell(child uint32, rowid int64) []byte {
	buf := binary.BigEndian.AppendUint32(nil, child)
	return AppendVarint(buf, uint64(rowid))
}

// EncodeIndexLeafCell encodes an index leaf cell whose payload fits on the page.
func EncodeIndexLeafCell(payload []byte) []byte {
	buf := AppendVarint(nil, uint64(len(payload)))
	return append(buf, payload...)
}

// EncodeIndexInteriorCell encodes an index interior cell whose payload fits
// on the page.
func EncodeIndexInteriorCell(child uint32, payload []byte) []byte {
	buf := binary.BigEndian.AppendUint32(nil, child)
	buf = AppendVarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}
