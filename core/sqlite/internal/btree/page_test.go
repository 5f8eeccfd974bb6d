package btree

import (
	"encoding/binary"
	"errors"
	"testing"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

// buildPage lays out cells from the end of a pageSize-byte page toward its
// start and writes their pointers in the given order.
func buildPage(t *testing.T, pgno uint32, pageSize int, kind PageKind, rightMost uint32, cells [][]byte) []byte {
	t.Helper()
	data := make([]byte, pageSize)
	off := HeaderOffset(pgno)
	data[off] = byte(kind)
	binary.BigEndian.PutUint16(data[off+offsetNumCells:], uint16(len(cells)))
	if !kind.IsLeaf() {
		binary.BigEndian.PutUint32(data[off+offsetRightMost:], rightMost)
	}

	ptr := off + kind.HeaderSize()
	content := pageSize
	for _, c := range cells {
		content -= len(c)
		if content < ptr+2 {
			t.Fatalf("buildPage: %d cells do not fit in %d bytes", len(cells), pageSize)
		}
		copy(data[content:], c)
		binary.BigEndian.PutUint16(data[ptr:], uint16(content))
		ptr += 2
	}
	binary.BigEndian.PutUint16(data[off+offsetCellStart:], uint16(content))
	return data
}

func TestParsePageKind(t *testing.T) {
	valid := map[byte]PageKind{
		0x02: KindIndexInterior,
		0x05: KindTableInterior,
		0x0a: KindIndexLeaf,
		0x0d: KindTableLeaf,
	}

	for b := 0; b < 256; b++ {
		got, err := ParsePageKind(byte(b))
		want, ok := valid[byte(b)]
		if ok {
			if err != nil || got != want {
				t.Errorf("ParsePageKind(0x%02x) = (%v, %v), want %v", b, got, err, want)
			}
			continue
		}
		if !errors.Is(err, sqlerr.ErrCorrupt) {
			t.Errorf("ParsePageKind(0x%02x) error = %v, want ErrCorrupt", b, err)
		}
	}
}

func TestParsePageHeader(t *testing.T) {
	tests := []struct {
		name      string
		pgno      uint32
		data      []byte
		wantKind  PageKind
		wantCells uint16
		wantRight uint32
		wantRM    bool
		wantSize  int
		wantPtrs  int
		wantErr   bool
	}{
		{
			name:      "leaf table page",
			pgno:      2,
			data:      []byte{0x0d, 0, 0, 0, 1, 0, 100, 0},
			wantKind:  KindTableLeaf,
			wantCells: 1,
			wantSize:  8,
			wantPtrs:  8,
		},
		{
			name:      "interior table page",
			pgno:      2,
			data:      []byte{0x05, 0, 0, 0, 2, 0, 200, 0, 0, 0, 0, 5},
			wantKind:  KindTableInterior,
			wantCells: 2,
			wantRight: 5,
			wantRM:    true,
			wantSize:  12,
			wantPtrs:  12,
		},
		{
			name:      "leaf index page",
			pgno:      3,
			data:      []byte{0x0a, 0, 0, 0, 3, 0, 150, 0},
			wantKind:  KindIndexLeaf,
			wantCells: 3,
			wantSize:  8,
			wantPtrs:  8,
		},
		{
			name:      "interior index page",
			pgno:      3,
			data:      []byte{0x02, 0, 0, 0, 1, 0, 150, 0, 0, 0, 1, 0},
			wantKind:  KindIndexInterior,
			wantCells: 1,
			wantRight: 256,
			wantRM:    true,
			wantSize:  12,
			wantPtrs:  12,
		},
		{
			name:      "page one skips file header",
			pgno:      1,
			data:      append(make([]byte, FileHeaderSize), 0x0d, 0, 0, 0, 4, 0x0f, 0, 0),
			wantKind:  KindTableLeaf,
			wantCells: 4,
			wantSize:  8,
			wantPtrs:  108,
		},
		{
			name:    "invalid page kind",
			pgno:    2,
			data:    []byte{0xff, 0, 0, 0, 0, 0, 0, 0},
			wantErr: true,
		},
		{
			name:    "zero page kind",
			pgno:    2,
			data:    []byte{0x00, 0, 0, 0, 0, 0, 0, 0},
			wantErr: true,
		},
		{
			name:    "interior header truncated",
			pgno:    2,
			data:    []byte{0x05, 0, 0, 0, 0, 0, 0, 0, 0},
			wantErr: true,
		},
		{
			name:    "short page",
			pgno:    2,
			data:    []byte{0x0d, 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParsePageHeader(tt.data, tt.pgno)
			if tt.wantErr {
				if !errors.Is(err, sqlerr.ErrCorrupt) {
					t.Errorf("ParsePageHeader() error = %v, want ErrCorrupt", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePageHeader() error = %v", err)
			}
			if h.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", h.Kind, tt.wantKind)
			}
			if h.NumCells != tt.wantCells {
				t.Errorf("NumCells = %d, want %d", h.NumCells, tt.wantCells)
			}
			rm, ok := h.RightMostPointer()
			if ok != tt.wantRM || rm != tt.wantRight {
				t.Errorf("RightMostPointer() = (%d, %v), want (%d, %v)", rm, ok, tt.wantRight, tt.wantRM)
			}
			if h.Size() != tt.wantSize {
				t.Errorf("Size() = %d, want %d", h.Size(), tt.wantSize)
			}
			if h.CellPointerOffset() != tt.wantPtrs {
				t.Errorf("CellPointerOffset() = %d, want %d", h.CellPointerOffset(), tt.wantPtrs)
			}
		})
	}
}

func TestHeaderSizeDiffersByRightMostPointer(t *testing.T) {
	leaf, err := ParsePageHeader([]byte{0x0d, 0, 0, 0, 0, 0, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	interior, err := ParsePageHeader([]byte{0x05, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 9}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if d := interior.Size() - leaf.Size(); d != 4 {
		t.Errorf("interior - leaf header size = %d, want 4", d)
	}
}

func TestCellContentStartZeroMeans65536(t *testing.T) {
	h, err := ParsePageHeader([]byte{0x0d, 0, 0, 0, 0, 0, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if h.CellContentStart != 65536 {
		t.Errorf("CellContentStart = %d, want 65536", h.CellContentStart)
	}
}

func TestCellPointersPreserveOrder(t *testing.T) {
	cells := [][]byte{
		EncodeTableLeafCell(3, []byte{0x02, 0x01, 0x03}),
		EncodeTableLeafCell(1, []byte{0x02, 0x01, 0x01}),
		EncodeTableLeafCell(2, []byte{0x02, 0x01, 0x02}),
	}
	data := buildPage(t, 2, 512, KindTableLeaf, 0, cells)

	page, err := NewPage(2, data)
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	got, err := page.Cells(512)
	if err != nil {
		t.Fatalf("Cells() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(Cells()) = %d, want 3", len(got))
	}

	wantRowIDs := []int64{3, 1, 2}
	for i, c := range got {
		if c.RowID != wantRowIDs[i] {
			t.Errorf("cell %d RowID = %d, want %d", i, c.RowID, wantRowIDs[i])
		}
		want := []byte{0x02, 0x01, byte(wantRowIDs[i])}
		if string(c.Payload.Local) != string(want) {
			t.Errorf("cell %d payload = %x, want %x", i, c.Payload.Local, want)
		}
	}
}

func TestCellPointersPageOne(t *testing.T) {
	cells := [][]byte{EncodeTableLeafCell(1, []byte{0x02, 0x01, 0x05})}
	data := buildPage(t, 1, 1024, KindTableLeaf, 0, cells)

	page, err := NewPage(1, data)
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	got, err := page.Cells(1024)
	if err != nil {
		t.Fatalf("Cells() error = %v", err)
	}
	if len(got) != 1 || got[0].RowID != 1 {
		t.Errorf("Cells() = %v, want one cell with rowid 1", got)
	}
}

func TestCellPointersOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		ptr  uint16
	}{
		{"inside pointer array", 9},
		{"past page end", 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, 512)
			data[0] = byte(KindTableLeaf)
			binary.BigEndian.PutUint16(data[offsetNumCells:], 1)
			binary.BigEndian.PutUint16(data[HeaderSizeLeaf:], tt.ptr)

			h, err := ParsePageHeader(data, 2)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := h.CellPointers(data); !errors.Is(err, sqlerr.ErrCorrupt) {
				t.Errorf("CellPointers() error = %v, want ErrCorrupt", err)
			}
		})
	}

	t.Run("array overruns page", func(t *testing.T) {
		data := make([]byte, 512)
		data[0] = byte(KindTableLeaf)
		binary.BigEndian.PutUint16(data[offsetNumCells:], 300)
		h, err := ParsePageHeader(data, 2)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := h.CellPointers(data); !errors.Is(err, sqlerr.ErrCorrupt) {
			t.Errorf("CellPointers() error = %v, want ErrCorrupt", err)
		}
	})
}

func TestPageKindString(t *testing.T) {
	if got := PageKind(0x42).String(); got != "unknown(0x42)" {
		t.Errorf("String() = %q", got)
	}
	if got := KindIndexInterior.String(); got != "index interior" {
		t.Errorf("String() = %q", got)
	}
}
