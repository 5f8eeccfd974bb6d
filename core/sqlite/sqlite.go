// Package sqlite reads SQLite database files without a SQLite engine.
//
// A DB decodes the file format directly: the header, the b-tree pages, the
// records they hold and the schema table on page 1. It answers the shell's
// informational dot-commands and single-table projections of the form
//
//	SELECT col[, col...] FROM table
//
// Databases may be stored gzip or xz compressed, or inside a tar archive;
// those are decompressed into memory on open.
package sqlite

import (
	"context"
	"io"
	"time"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/engine"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlread/internal/archive"
	"github.com/FocuswithJustin/sqlread/internal/logging"
	"github.com/FocuswithJustin/sqlread/internal/validation"
)

// Options configures an open database.
type Options struct {
	// CachePages is how many pages the page cache holds. Zero or less
	// disables the cache.
	CachePages int
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{CachePages: pager.DefaultCachePages}
}

// DB is an open database file. It is read-only and safe for concurrent use.
type DB struct {
	path   string
	src    io.Closer
	pager  *pager.Pager
	engine *engine.Engine
}

// Open opens the database at path.
func Open(path string, opts Options) (*DB, error) {
	src, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	db, err := open(src, src.Size, path, opts)
	if err != nil {
		src.Close()
		return nil, err
	}
	db.src = src
	logging.Debug("database_opened", "path", path, "format", string(src.Format), "size", src.Size)
	return db, nil
}

// OpenReader opens a database image held by r. name is used in errors.
func OpenReader(r io.ReaderAt, size int64, name string, opts Options) (*DB, error) {
	return open(r, size, name, opts)
}

func open(r io.ReaderAt, size int64, name string, opts Options) (*DB, error) {
	p, err := pager.Open(r, size, pager.Config{CachePages: opts.CachePages, Name: name})
	if err != nil {
		return nil, err
	}
	e, err := engine.New(p)
	if err != nil {
		return nil, err
	}
	return &DB{path: name, pager: p, engine: e}, nil
}

// Close releases the underlying file.
func (db *DB) Close() error {
	if db.src == nil {
		return nil
	}
	if err := db.src.Close(); err != nil {
		return sqlerr.NewIO("close", db.path, err)
	}
	return nil
}

// Path returns the path or name the database was opened with.
func (db *DB) Path() string {
	return db.path
}

// Names returns the names of the user tables, indexes, views and triggers
// in schema order, as listed by .tables.
func (db *DB) Names() []string {
	return db.engine.Names()
}

// Query runs a SELECT and returns its rows with values rendered as text.
func (db *DB) Query(ctx context.Context, sql string) (columns []string, rows [][]string, err error) {
	res, err := db.engine.Query(ctx, sql)
	if err != nil {
		return nil, nil, err
	}
	rows = make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = r.Strings()
	}
	return res.Columns, rows, nil
}

// Exec runs one command and returns its output lines. Commands starting
// with a dot are shell commands (.dbinfo, .tables, .schema, .pageinfo N,
// .checksum); any other text is run as a SELECT, one line per row with
// values joined by "|".
func (db *DB) Exec(ctx context.Context, command string) ([]string, error) {
	start := time.Now()
	lines, err := db.exec(ctx, command)
	if err != nil {
		return nil, err
	}
	logging.CommandRun(ctx, command, len(lines), time.Since(start))
	return lines, nil
}

func (db *DB) exec(ctx context.Context, command string) ([]string, error) {
	if err := validation.ValidateCommand(command); err != nil {
		return nil, err
	}
	if name, args, ok := parseDotCommand(command); ok {
		if cmd, found := dotCommands[name]; found {
			return cmd(ctx, db, args)
		}
	}
	res, err := db.engine.Query(ctx, command)
	if err != nil {
		return nil, err
	}
	return res.Lines(), nil
}
