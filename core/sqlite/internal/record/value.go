package record

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the storage class of a decoded value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "real"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Value is one column of a decoded record. Values own their bytes and stay
// valid after the page they were decoded from is released. The zero Value
// is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
}

// NewInteger returns an integer value.
func NewInteger(n int64) Value { return Value{kind: KindInteger, i: n} }

// NewFloat returns a real value.
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }

// NewText returns a text value.
func NewText(s string) Value { return Value{kind: KindText, s: s} }

// NewBlob returns a blob value holding a copy of b.
func NewBlob(b []byte) Value { return Value{kind: KindBlob, b: append([]byte{}, b...)} }

// Kind returns the storage class.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the integer value; ok is false for other kinds.
func (v Value) Int() (n int64, ok bool) { return v.i, v.kind == KindInteger }

// Float returns the floating point value; ok is false for other kinds.
func (v Value) Float() (f float64, ok bool) { return v.f, v.kind == KindFloat }

// Text returns the text value; ok is false for other kinds.
func (v Value) Text() (s string, ok bool) { return v.s, v.kind == KindText }

// Blob returns the blob value; ok is false for other kinds.
func (v Value) Blob() (b []byte, ok bool) { return v.b, v.kind == KindBlob }

// Any returns the value as nil, int64, float64, string or []byte.
func (v Value) Any() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBlob:
		return v.b
	default:
		return nil
	}
}

// String renders the value the way the sqlite3 shell prints it in list
// mode: NULL is empty, reals keep a fractional part, blobs are raw bytes.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return FormatFloat(v.f)
	case KindText:
		return v.s
	case KindBlob:
		return string(v.b)
	default:
		return ""
	}
}

// FormatFloat formats f with 15 significant digits and always shows it as a
// real: 1 prints as "1.0" and 1e20 as "1.0e+20".
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}

	s := strconv.FormatFloat(f, 'g', 15, 64)
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		if !strings.Contains(s[:i], ".") {
			s = s[:i] + ".0" + s[i:]
		}
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
