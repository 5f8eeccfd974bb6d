package btree

import (
	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

// MaxVarintLen is the longest encoding of a 64-bit varint.
const MaxVarintLen = 9

// ReadVarint decodes one varint from the start of p and returns the value
// and the number of bytes consumed.
//
// The first eight bytes each carry seven bits, most significant group
// first, with the high bit flagging continuation. A ninth byte, when
// reached, contributes all eight bits. Over-long encodings are accepted.
func ReadVarint(p []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(p) {
			return 0, 0, sqlerr.NewDecode("varint", i, "truncated after %d of at most %d bytes", i, MaxVarintLen)
		}
		b := p[i]
		if i == MaxVarintLen-1 {
			return v<<8 | uint64(b), MaxVarintLen, nil
		}
		v = v<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	// unreachable: the loop returns on the ninth byte
	return v, MaxVarintLen, nil
}

// ReadVarint32 decodes a varint that must fit in 32 bits, such as a
// payload size or a serial type code.
func ReadVarint32(p []byte) (uint32, int, error) {
	v, n, err := ReadVarint(p)
	if err != nil {
		return 0, 0, err
	}
	if v > 0xffffffff {
		return 0, 0, sqlerr.NewDecode("varint", 0, "value %d exceeds 32 bits", v)
	}
	return uint32(v), n, nil
}

// PutVarint writes the canonical encoding of v into p and returns the number
// of bytes written. p must have room for VarintLen(v) bytes.
func PutVarint(p []byte, v uint64) int {
	if v > 0x00ffffffffffffff {
		// nine bytes: the last carries the low eight bits
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return MaxVarintLen
	}

	n := VarintLen(v)
	for i := n - 1; i >= 0; i-- {
		b := byte(v & 0x7f)
		if i != n-1 {
			b |= 0x80
		}
		p[i] = b
		v >>= 7
	}
	return n
}

// AppendVarint appends the canonical encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	var buf [MaxVarintLen]byte
	n := PutVarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// VarintLen returns the number of bytes required to encode v as a varint
func VarintLen(v uint64) int {
	if v > 0x00ffffffffffffff {
		return MaxVarintLen
	}
	n := 1
	for v > 0x7f {
		v >>= 7
		n++
	}
	return n
}
