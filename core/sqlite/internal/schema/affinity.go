package schema

import (
	"strings"

	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/record"
)

// Affinity is the type affinity a column derives from its declared type.
type Affinity uint8

const (
	AffinityBlob Affinity = iota
	AffinityText
	AffinityNumeric
	AffinityInteger
	AffinityReal
)

// DetermineAffinity determines the type affinity from a column type name.
//
// SQLite type affinity rules (from https://sqlite.org/datatype3.html):
// 1. If the type contains "INT" -> INTEGER affinity
// 2. If the type contains "CHAR", "CLOB", or "TEXT" -> TEXT affinity
// 3. If the type contains "BLOB" or no type specified -> BLOB affinity
// 4. If the type contains "REAL", "FLOA", or "DOUB" -> REAL affinity
// 5. Otherwise -> NUMERIC affinity
func DetermineAffinity(typeName string) Affinity {
	if typeName == "" {
		return AffinityBlob
	}

	upper := strings.ToUpper(typeName)

	if strings.Contains(upper, "INT") {
		return AffinityInteger
	}
	if strings.Contains(upper, "CHAR") ||
		strings.Contains(upper, "CLOB") ||
		strings.Contains(upper, "TEXT") {
		return AffinityText
	}
	if strings.Contains(upper, "BLOB") {
		return AffinityBlob
	}
	if strings.Contains(upper, "REAL") ||
		strings.Contains(upper, "FLOA") ||
		strings.Contains(upper, "DOUB") {
		return AffinityReal
	}
	return AffinityNumeric
}

// IsNumeric reports whether the affinity is NUMERIC, INTEGER or REAL.
func (a Affinity) IsNumeric() bool {
	return a == AffinityNumeric || a == AffinityInteger || a == AffinityReal
}

func (a Affinity) String() string {
	switch a {
	case AffinityBlob:
		return "BLOB"
	case AffinityText:
		return "TEXT"
	case AffinityNumeric:
		return "NUMERIC"
	case AffinityInteger:
		return "INTEGER"
	case AffinityReal:
		return "REAL"
	default:
		return "UNKNOWN"
	}
}

// Apply converts a stored value the way a column read does. Integral reals
// may be stored as integers; a REAL column reads them back as reals. Other
// affinities return stored values unchanged.
func (a Affinity) Apply(v record.Value) record.Value {
	if a != AffinityReal {
		return v
	}
	if n, ok := v.Int(); ok {
		return record.NewFloat(float64(n))
	}
	return v
}
