// Package utf converts stored TEXT values to Go strings according to the
// database text encoding.
package utf

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the database text encoding stored at header offset 56.
type Encoding uint32

const (
	UTF8    Encoding = 1
	UTF16LE Encoding = 2
	UTF16BE Encoding = 3
)

// ParseEncoding validates a stored text encoding. Zero is accepted as UTF-8,
// which is how an empty database reports it.
func ParseEncoding(v uint32) (Encoding, error) {
	switch e := Encoding(v); e {
	case 0:
		return UTF8, nil
	case UTF8, UTF16LE, UTF16BE:
		return e, nil
	default:
		return 0, fmt.Errorf("unknown text encoding %d", v)
	}
}

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf8"
	case UTF16LE:
		return "utf16le"
	case UTF16BE:
		return "utf16be"
	default:
		return fmt.Sprintf("encoding(%d)", uint32(e))
	}
}

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	default:
		return nil
	}
}

// Decode converts stored text bytes to a UTF-8 string. Invalid sequences
// become U+FFFD instead of failing.
func Decode(data []byte, enc Encoding) string {
	codec := enc.codec()
	if codec == nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	out, err := codec.NewDecoder().Bytes(data)
	if err != nil {
		// the UTF-16 decoders replace rather than fail; keep the bytes if one ever does
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(out)
}

// Encode converts a UTF-8 string to the stored form for enc.
func Encode(s string, enc Encoding) ([]byte, error) {
	codec := enc.codec()
	if codec == nil {
		return []byte(s), nil
	}
	return codec.NewEncoder().Bytes([]byte(s))
}
