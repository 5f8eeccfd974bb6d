// Package format parses the 100-byte database file header.
//
// The header occupies the start of page 1. All multi-byte fields are
// big-endian. Only the fields a reader needs are validated strictly: the
// magic string, the page size, the payload fractions and the text encoding.
package format

import (
	"encoding/binary"
	"fmt"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/utf"
)

const (
	// HeaderSize is the length of the file header at the start of page 1.
	HeaderSize = 100

	// MagicString opens every database file, NUL terminator included.
	MagicString = "SQLite format 3\000"

	MinPageSize = 512
	MaxPageSize = 65536
)

// Header field offsets
const (
	OffsetMagic             = 0
	OffsetPageSize          = 16 // 2 bytes; 1 means 65536
	OffsetWriteVersion      = 18
	OffsetReadVersion       = 19
	OffsetReservedSpace     = 20
	OffsetMaxPayloadFrac    = 21 // must be 64
	OffsetMinPayloadFrac    = 22 // must be 32
	OffsetLeafPayloadFrac   = 23 // must be 32
	OffsetFileChangeCounter = 24
	OffsetDatabaseSize      = 28 // in pages
	OffsetFirstFreelist     = 32
	OffsetFreelistCount     = 36
	OffsetSchemaCookie      = 40
	OffsetSchemaFormat      = 44
	OffsetDefaultCacheSize  = 48
	OffsetLargestRootPage   = 52
	OffsetTextEncoding      = 56
	OffsetUserVersion       = 60
	OffsetIncrVacuum        = 64
	OffsetAppID             = 68
	OffsetVersionValidFor   = 92
	OffsetSQLiteVersion     = 96
)

// Header is the parsed database file header.
type Header struct {
	PageSize        int // in bytes, with the 1→65536 rule applied
	WriteVersion    uint8
	ReadVersion     uint8
	ReservedSpace   uint8 // unused bytes at the end of every page
	MaxPayloadFrac  uint8
	MinPayloadFrac  uint8
	LeafPayloadFrac uint8

	FileChangeCounter uint32
	DatabaseSize      uint32 // page count, trusted only when VersionValidFor matches FileChangeCounter
	FirstFreelist     uint32
	FreelistCount     uint32
	SchemaCookie      uint32
	SchemaFormat      uint32
	DefaultCacheSize  uint32
	LargestRootPage   uint32
	TextEncoding      utf.Encoding
	UserVersion       uint32
	IncrVacuum        uint32
	AppID             uint32
	VersionValidFor   uint32
	SQLiteVersion     uint32
}

// Parse decodes and validates the file header from the first bytes of page 1.
func Parse(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, sqlerr.NewDecode("file header", 0, "got %d bytes, want %d", len(data), HeaderSize)
	}
	if string(data[OffsetMagic:OffsetMagic+len(MagicString)]) != MagicString {
		return nil, sqlerr.NewDecode("file header", OffsetMagic, "not a database file (magic %q)", data[:len(MagicString)])
	}

	u32 := func(off int) uint32 { return binary.BigEndian.Uint32(data[off:]) }

	h := &Header{
		PageSize:          DecodePageSize(binary.BigEndian.Uint16(data[OffsetPageSize:])),
		WriteVersion:      data[OffsetWriteVersion],
		ReadVersion:       data[OffsetReadVersion],
		ReservedSpace:     data[OffsetReservedSpace],
		MaxPayloadFrac:    data[OffsetMaxPayloadFrac],
		MinPayloadFrac:    data[OffsetMinPayloadFrac],
		LeafPayloadFrac:   data[OffsetLeafPayloadFrac],
		FileChangeCounter: u32(OffsetFileChangeCounter),
		DatabaseSize:      u32(OffsetDatabaseSize),
		FirstFreelist:     u32(OffsetFirstFreelist),
		FreelistCount:     u32(OffsetFreelistCount),
		SchemaCookie:      u32(OffsetSchemaCookie),
		SchemaFormat:      u32(OffsetSchemaFormat),
		DefaultCacheSize:  u32(OffsetDefaultCacheSize),
		LargestRootPage:   u32(OffsetLargestRootPage),
		UserVersion:       u32(OffsetUserVersion),
		IncrVacuum:        u32(OffsetIncrVacuum),
		AppID:             u32(OffsetAppID),
		VersionValidFor:   u32(OffsetVersionValidFor),
		SQLiteVersion:     u32(OffsetSQLiteVersion),
	}

	enc, err := utf.ParseEncoding(u32(OffsetTextEncoding))
	if err != nil {
		return nil, sqlerr.NewDecode("file header", OffsetTextEncoding, "%v", err)
	}
	h.TextEncoding = enc

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the fields a reader depends on.
func (h *Header) Validate() error {
	if !IsValidPageSize(h.PageSize) {
		return sqlerr.NewDecode("file header", OffsetPageSize, "invalid page size %d", h.PageSize)
	}
	if h.UsableSize() < 480 {
		return sqlerr.NewDecode("file header", OffsetReservedSpace, "%d reserved bytes leave a usable size of %d", h.ReservedSpace, h.UsableSize())
	}
	if h.MaxPayloadFrac != 64 || h.MinPayloadFrac != 32 || h.LeafPayloadFrac != 32 {
		return sqlerr.NewDecode("file header", OffsetMaxPayloadFrac, "payload fractions %d/%d/%d, want 64/32/32",
			h.MaxPayloadFrac, h.MinPayloadFrac, h.LeafPayloadFrac)
	}
	if h.ReadVersion > 2 {
		return sqlerr.NewUnsupported("file format", fmt.Sprintf("read version %d", h.ReadVersion))
	}
	return nil
}

// UsableSize is the page size minus the reserved bytes at the end of each
// page. Payload spill arithmetic is based on it.
func (h *Header) UsableSize() int {
	return h.PageSize - int(h.ReservedSpace)
}

// PageCount returns the in-header database size and whether it can be
// trusted. Files written by old versions may leave it stale.
func (h *Header) PageCount() (uint32, bool) {
	return h.DatabaseSize, h.DatabaseSize > 0 && h.VersionValidFor == h.FileChangeCounter
}

// Bytes serializes the header back to its 100-byte form.
func (h *Header) Bytes() []byte {
	data := make([]byte, HeaderSize)
	copy(data, MagicString)
	binary.BigEndian.PutUint16(data[OffsetPageSize:], EncodePageSize(h.PageSize))
	data[OffsetWriteVersion] = h.WriteVersion
	data[OffsetReadVersion] = h.ReadVersion
	data[OffsetReservedSpace] = h.ReservedSpace
	data[OffsetMaxPayloadFrac] = h.MaxPayloadFrac
	data[OffsetMinPayloadFrac] = h.MinPayloadFrac
	data[OffsetLeafPayloadFrac] = h.LeafPayloadFrac

	put := func(off int, v uint32) { binary.BigEndian.PutUint32(data[off:], v) }
	put(OffsetFileChangeCounter, h.FileChangeCounter)
	put(OffsetDatabaseSize, h.DatabaseSize)
	put(OffsetFirstFreelist, h.FirstFreelist)
	put(OffsetFreelistCount, h.FreelistCount)
	put(OffsetSchemaCookie, h.SchemaCookie)
	put(OffsetSchemaFormat, h.SchemaFormat)
	put(OffsetDefaultCacheSize, h.DefaultCacheSize)
	put(OffsetLargestRootPage, h.LargestRootPage)
	put(OffsetTextEncoding, uint32(h.TextEncoding))
	put(OffsetUserVersion, h.UserVersion)
	put(OffsetIncrVacuum, h.IncrVacuum)
	put(OffsetAppID, h.AppID)
	put(OffsetVersionValidFor, h.VersionValidFor)
	put(OffsetSQLiteVersion, h.SQLiteVersion)
	return data
}

// NewHeader returns a header for an empty database of the given page size
// and page count.
func NewHeader(pageSize int, pages uint32) *Header {
	return &Header{
		PageSize:          pageSize,
		WriteVersion:      1,
		ReadVersion:       1,
		MaxPayloadFrac:    64,
		MinPayloadFrac:    32,
		LeafPayloadFrac:   32,
		FileChangeCounter: 1,
		DatabaseSize:      pages,
		SchemaFormat:      4,
		TextEncoding:      utf.UTF8,
		VersionValidFor:   1,
		SQLiteVersion:     3045000,
	}
}

// DecodePageSize applies the rule that a stored 1 means 65536.
func DecodePageSize(raw uint16) int {
	if raw == 1 {
		return MaxPageSize
	}
	return int(raw)
}

// EncodePageSize is the inverse of DecodePageSize.
func EncodePageSize(size int) uint16 {
	if size == MaxPageSize {
		return 1
	}
	return uint16(size)
}

// IsValidPageSize reports whether size is a power of two in [512, 65536].
func IsValidPageSize(size int) bool {
	if size < MinPageSize || size > MaxPageSize {
		return false
	}
	return size&(size-1) == 0
}
