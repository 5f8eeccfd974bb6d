package archive

import (
	"bytes"
	"strings"
)

// Format is the container a database file is stored in.
type Format string

const (
	FormatPlain Format = "plain"
	FormatGzip  Format = "gzip"
	FormatXZ    Format = "xz"
	FormatTar   Format = "tar"
	FormatTarGz Format = "tar.gz"
	FormatTarXZ Format = "tar.xz"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// dbMagic opens every database file.
const dbMagic = "SQLite format 3\x00"

// DetectFormat detects the container format from the file extension.
// Anything without a known extension is FormatPlain.
func DetectFormat(path string) Format {
	switch {
	case strings.HasSuffix(path, ".tar.xz"), strings.HasSuffix(path, ".txz"):
		return FormatTarXZ
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(path, ".tar"):
		return FormatTar
	case strings.HasSuffix(path, ".xz"):
		return FormatXZ
	case strings.HasSuffix(path, ".gz"):
		return FormatGzip
	default:
		return FormatPlain
	}
}

// Sniff identifies a compressed stream from its first bytes. Streams that
// are neither gzip nor xz are reported as FormatPlain.
func Sniff(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, xzMagic):
		return FormatXZ
	case bytes.HasPrefix(head, gzipMagic):
		return FormatGzip
	default:
		return FormatPlain
	}
}

// IsCompressed reports whether the format needs decompressing into memory.
func (f Format) IsCompressed() bool {
	return f != FormatPlain
}

// TrimExt strips a known container extension from name.
func TrimExt(name string) string {
	for _, ext := range []string{".tar.xz", ".tar.gz", ".txz", ".tgz", ".tar", ".xz", ".gz"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// IsDatabaseName reports whether an archive member name looks like a
// database file.
func IsDatabaseName(name string) bool {
	for _, ext := range []string{".db", ".sqlite", ".sqlite3", ".db3"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return true
		}
	}
	return false
}
