// Package record decodes the serialized rows stored in b-tree payloads.
//
// A record is a header followed by a body:
//
//	varint header_size, varint serial_type...   (header, header_size bytes)
//	value...                                    (body, in serial type order)
//
// Serial type codes:
//
//	0       NULL
//	1-4     big-endian signed integer of 1, 2, 3 or 4 bytes
//	5       48-bit big-endian signed integer
//	6       64-bit big-endian signed integer
//	7       IEEE 754 float64, big-endian
//	8, 9    the integer constants 0 and 1, no body bytes
//	10, 11  reserved, never valid in a database file
//	N>=12   even: BLOB of (N-12)/2 bytes; odd: TEXT of (N-13)/2 bytes
package record

import (
	"encoding/binary"
	"fmt"
	"math"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/utf"
)

// SerialType is a record header type code.
type SerialType uint64

const (
	SerialNull    SerialType = 0
	SerialInt8    SerialType = 1
	SerialInt16   SerialType = 2
	SerialInt24   SerialType = 3
	SerialInt32   SerialType = 4
	SerialInt48   SerialType = 5
	SerialInt64   SerialType = 6
	SerialFloat64 SerialType = 7
	SerialZero    SerialType = 8
	SerialOne     SerialType = 9
)

var fixedWidths = [...]int{0, 1, 2, 3, 4, 6, 8, 8, 0, 0}

// Len returns the number of body bytes used by a value of this type.
func (st SerialType) Len() (int, error) {
	switch {
	case st < 10:
		return fixedWidths[st], nil
	case st < 12:
		return 0, fmt.Errorf("reserved serial type %d", st)
	default:
		return int((st - 12) / 2), nil
	}
}

// Decode splits a record payload into its column values. Text is converted
// from enc to UTF-8. A truncated header or body or a reserved serial type
// fails the whole record.
func Decode(payload []byte, enc utf.Encoding) ([]Value, error) {
	hdrLen, n, err := btree.ReadVarint(payload)
	if err != nil {
		return nil, sqlerr.Wrap(err, "record header size")
	}
	if hdrLen < uint64(n) || hdrLen > uint64(len(payload)) {
		return nil, sqlerr.NewDecode("record", 0, "header size %d outside a %d-byte payload", hdrLen, len(payload))
	}

	header := payload[:hdrLen]
	var types []SerialType
	for off := n; off < len(header); {
		st, m, err := btree.ReadVarint(header[off:])
		if err != nil {
			return nil, sqlerr.Wrapf(err, "serial type %d", len(types))
		}
		types = append(types, SerialType(st))
		off += m
	}

	values := make([]Value, len(types))
	off := len(header)
	for i, st := range types {
		v, m, err := decodeValue(payload[off:], st, enc)
		if err != nil {
			return nil, sqlerr.NewDecode("record", off, "column %d: %v", i, err)
		}
		values[i] = v
		off += m
	}
	return values, nil
}

func decodeValue(body []byte, st SerialType, enc utf.Encoding) (Value, int, error) {
	width, err := st.Len()
	if err != nil {
		return Value{}, 0, err
	}
	if width > len(body) {
		return Value{}, 0, fmt.Errorf("serial type %d needs %d bytes, %d remain", st, width, len(body))
	}
	b := body[:width]

	switch st {
	case SerialNull:
		return Value{kind: KindNull}, 0, nil
	case SerialZero:
		return NewInteger(0), 0, nil
	case SerialOne:
		return NewInteger(1), 0, nil
	case SerialInt8, SerialInt16, SerialInt24, SerialInt32, SerialInt48, SerialInt64:
		return NewInteger(bigEndianInt(b)), width, nil
	case SerialFloat64:
		f := math.Float64frombits(binary.BigEndian.Uint64(b))
		return NewFloat(f), width, nil
	}

	if st%2 == 0 {
		return NewBlob(b), width, nil
	}
	return NewText(utf.Decode(b, enc)), width, nil
}

// bigEndianInt sign-extends a 1 to 8 byte big-endian two's complement integer.
func bigEndianInt(b []byte) int64 {
	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	shift := 64 - 8*uint(len(b))
	return int64(u<<shift) >> shift
}

// Encode serializes values into a record. Accepted Go types are nil, int,
// int64, float64, bool, string and []byte. Text is stored in enc.
func Encode(enc utf.Encoding, values ...any) ([]byte, error) {
	types := make([]SerialType, len(values))
	bodies := make([][]byte, len(values))
	for i, v := range values {
		st, body, err := encodeValue(v, enc)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		types[i], bodies[i] = st, body
	}

	typesLen := 0
	for _, st := range types {
		typesLen += btree.VarintLen(uint64(st))
	}
	hdrLen := typesLen + 1
	for btree.VarintLen(uint64(hdrLen))+typesLen != hdrLen {
		hdrLen = btree.VarintLen(uint64(hdrLen)) + typesLen
	}

	buf := btree.AppendVarint(nil, uint64(hdrLen))
	for _, st := range types {
		buf = btree.AppendVarint(buf, uint64(st))
	}
	for _, body := range bodies {
		buf = append(buf, body...)
	}
	return buf, nil
}

func encodeValue(v any, enc utf.Encoding) (SerialType, []byte, error) {
	switch x := v.(type) {
	case nil:
		return SerialNull, nil, nil
	case bool:
		if x {
			return SerialOne, nil, nil
		}
		return SerialZero, nil, nil
	case int:
		return encodeInt(int64(x))
	case int64:
		return encodeInt(x)
	case float64:
		return SerialFloat64, binary.BigEndian.AppendUint64(nil, math.Float64bits(x)), nil
	case string:
		b, err := utf.Encode(x, enc)
		if err != nil {
			return 0, nil, err
		}
		return SerialType(13 + 2*len(b)), b, nil
	case []byte:
		return SerialType(12 + 2*len(x)), x, nil
	default:
		return 0, nil, fmt.Errorf("cannot encode %T", v)
	}
}

func encodeInt(i int64) (SerialType, []byte, error) {
	switch {
	case i == 0:
		return SerialZero, nil, nil
	case i == 1:
		return SerialOne, nil, nil
	}

	var st SerialType
	switch {
	case i >= math.MinInt8 && i <= math.MaxInt8:
		st = SerialInt8
	case i >= math.MinInt16 && i <= math.MaxInt16:
		st = SerialInt16
	case i >= -1<<23 && i < 1<<23:
		st = SerialInt24
	case i >= math.MinInt32 && i <= math.MaxInt32:
		st = SerialInt32
	case i >= -1<<47 && i < 1<<47:
		st = SerialInt48
	default:
		st = SerialInt64
	}
	width := fixedWidths[st]
	full := binary.BigEndian.AppendUint64(nil, uint64(i))
	return st, full[8-width:], nil
}
