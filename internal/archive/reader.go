// Package archive opens database files that may be stored compressed.
// Plain files are read in place; gzip and xz streams, and tar archives
// holding a database, are decompressed into memory.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/internal/validation"
	"github.com/ulikunitz/xz"
)

// MaxInflatedSize bounds how much a compressed source may expand to.
const MaxInflatedSize int64 = 1 << 32

// Database is an opened database image.
type Database struct {
	Path   string
	Member string // archive member holding the database, tar formats only
	Format Format
	Size   int64

	r    io.ReaderAt
	file *os.File // nil once the image is in memory
}

// ReadAt reads from the uncompressed image.
func (d *Database) ReadAt(p []byte, off int64) (int, error) {
	return d.r.ReadAt(p, off)
}

// Close releases the underlying file, if still open.
func (d *Database) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Open opens the database at path. The container is chosen by extension;
// files with no known extension are sniffed for gzip and xz headers.
func Open(path string) (*Database, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, sqlerr.NewIO("open", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, sqlerr.NewIO("stat", path, err)
	}

	format := DetectFormat(path)
	if format == FormatPlain {
		head := make([]byte, len(xzMagic))
		n, err := f.ReadAt(head, 0)
		if err != nil && !errors.Is(err, io.EOF) {
			f.Close()
			return nil, sqlerr.NewIO("read", path, err)
		}
		format = Sniff(head[:n])
	}

	if !format.IsCompressed() {
		return &Database{Path: path, Format: format, Size: st.Size(), r: f, file: f}, nil
	}
	defer f.Close()

	db := &Database{Path: path, Format: format}
	var data []byte
	switch format {
	case FormatTar, FormatTarGz, FormatTarXZ:
		data, db.Member, err = readMember(f, path, format)
	default:
		var r io.Reader
		if r, _, err = decompress(f, format); err != nil {
			return nil, sqlerr.NewIO("decompress", path, err)
		}
		data, err = inflate(r, path)
	}
	if err != nil {
		return nil, err
	}
	db.Size = int64(len(data))
	db.r = bytes.NewReader(data)
	return db, nil
}

// decompress wraps f in the decompressor for format. The returned closer
// may be nil.
func decompress(f io.Reader, format Format) (io.Reader, io.Closer, error) {
	switch format {
	case FormatXZ, FormatTarXZ:
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("xz reader: %w", err)
		}
		return xzr, nil, nil
	case FormatGzip, FormatTarGz:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzr, gzr, nil
	default:
		return f, nil, nil
	}
}

func inflate(r io.Reader, path string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInflatedSize+1))
	if err != nil {
		return nil, sqlerr.NewIO("decompress", path, err)
	}
	if int64(len(data)) > MaxInflatedSize {
		return nil, sqlerr.NewValidation("path", path, fmt.Sprintf("expands past %d bytes", MaxInflatedSize))
	}
	return data, nil
}

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	decompressor io.Closer
}

// NewReader reads a tar archive of the given format from r.
func NewReader(r io.Reader, format Format) (*Reader, error) {
	inner, closer, err := decompress(r, format)
	if err != nil {
		return nil, err
	}
	return &Reader{Reader: tar.NewReader(inner), decompressor: closer}, nil
}

// Close closes any underlying decompressor.
func (r *Reader) Close() error {
	if r.decompressor != nil {
		return r.decompressor.Close()
	}
	return nil
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// readMember returns the first regular member of a tar archive that starts
// with the database magic string. Members with a database extension are
// preferred over the rest.
func readMember(f io.Reader, path string, format Format) ([]byte, string, error) {
	tr, err := NewReader(f, format)
	if err != nil {
		return nil, "", sqlerr.NewIO("decompress", path, err)
	}
	defer tr.Close()

	var (
		data     []byte
		name     string
		fallback []byte
		fallName string
	)
	err = tr.Iterate(func(h *tar.Header, r io.Reader) (bool, error) {
		if h.Typeflag != tar.TypeReg {
			return false, nil
		}
		head := make([]byte, len(dbMagic))
		if _, err := io.ReadFull(r, head); err != nil || string(head) != dbMagic {
			return false, nil
		}
		if !IsDatabaseName(h.Name) && fallback != nil {
			return false, nil
		}
		rest, err := inflate(r, path)
		if err != nil {
			return true, err
		}
		content := append(head, rest...)
		if IsDatabaseName(h.Name) {
			data, name = content, h.Name
			return true, nil
		}
		fallback, fallName = content, h.Name
		return false, nil
	})
	if err != nil {
		if sqlerr.Is(err, sqlerr.ErrInvalidInput) || sqlerr.Is(err, sqlerr.ErrIO) {
			return nil, "", err
		}
		return nil, "", sqlerr.NewIO("read archive", path, err)
	}
	if data == nil {
		data, name = fallback, fallName
	}
	if data == nil {
		return nil, "", sqlerr.NewLookup("database in archive", path)
	}
	return data, name, nil
}
