package sqlite

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/sqlread/core/cas"
	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite/internal/sqlitetest"
)

func openFile(t *testing.T, path string) *DB {
	t.Helper()
	db, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open(%s) error = %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func openFruit(t *testing.T) *DB {
	t.Helper()
	return openFile(t, sqlitetest.WriteFile(t, "fruit.db", sqlitetest.Fruit(t)))
}

func exec(t *testing.T, db *DB, command string) []string {
	t.Helper()
	lines, err := db.Exec(context.Background(), command)
	if err != nil {
		t.Fatalf("Exec(%q) error = %v", command, err)
	}
	return lines
}

func TestExec_Fruit(t *testing.T) {
	db := openFruit(t)

	tests := []struct {
		command string
		want    []string
	}{
		{".tables", []string{"t"}},
		{"select name from t", []string{"a", "b", "c"}},
		{"select id, name from t", []string{"1|a", "2|b", "3|c"}},
		{"  SELECT name FROM t  ", []string{"a", "b", "c"}},
		{".schema", []string{sqlitetest.FruitTable + ";"}},
		{".schema T", []string{sqlitetest.FruitTable + ";"}},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			if got := exec(t, db, tt.command); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Exec() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExec_DBInfo(t *testing.T) {
	db := openFruit(t)

	got := exec(t, db, ".dbinfo")
	want := []string{
		"database page size: 4096",
		"number of tables: 1",
		"database page count: 2",
		"text encoding: 1 (utf8)",
	}
	if len(got) < len(want) || !reflect.DeepEqual(got[:len(want)], want) {
		t.Errorf(".dbinfo = %q, want prefix %q", got, want)
	}

	verbose := exec(t, db, ".dbinfo -v")
	if len(verbose) != len(got)+4 || !strings.HasPrefix(verbose[len(got)], "page reads: ") {
		t.Errorf(".dbinfo -v = %q", verbose)
	}
}

func TestExec_PageInfo(t *testing.T) {
	data := sqlitetest.Fruit(t)
	db := openFile(t, sqlitetest.WriteFile(t, "fruit.db", data))

	got := exec(t, db, ".pageinfo 2")
	want := []string{
		"page: 2",
		"kind: table leaf",
		"header offset: 0",
		"cells: 3",
	}
	if !reflect.DeepEqual(got[:len(want)], want) {
		t.Errorf(".pageinfo 2 = %q, want prefix %q", got, want)
	}
	if last := got[len(got)-1]; last != "blake3: "+cas.Blake3Hash(data[4096:]) {
		t.Errorf("digest line = %q", last)
	}
}

func TestExec_Checksum(t *testing.T) {
	data := sqlitetest.Fruit(t)
	db := openFile(t, sqlitetest.WriteFile(t, "fruit.db", data))

	sum := cas.Sum(data)
	want := []string{"blake3: " + sum.BLAKE3, "sha256: " + sum.SHA256, "size: 8192"}
	if got := exec(t, db, ".checksum"); !reflect.DeepEqual(got, want) {
		t.Errorf(".checksum = %q, want %q", got, want)
	}
}

func TestExec_Errors(t *testing.T) {
	db := openFruit(t)

	tests := []struct {
		command string
		want    error
	}{
		{"select name from missing", sqlerr.ErrNotFound},
		{"select * from t", sqlerr.ErrSyntax},
		{"", sqlerr.ErrSyntax},
		{".bogus", sqlerr.ErrSyntax},
		{".tables extra", sqlerr.ErrInvalidInput},
		{".dbinfo --all", sqlerr.ErrInvalidInput},
		{".pageinfo", sqlerr.ErrInvalidInput},
		{".pageinfo two", sqlerr.ErrInvalidInput},
		{".pageinfo 0", sqlerr.ErrInvalidInput},
		{".pageinfo 99", sqlerr.ErrIO},
		{".schema a b", sqlerr.ErrInvalidInput},
		{".schema missing", sqlerr.ErrNotFound},
		{"select name\x00 from t", sqlerr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			lines, err := db.Exec(context.Background(), tt.command)
			if !errors.Is(err, tt.want) {
				t.Errorf("Exec() error = %v, want %v", err, tt.want)
			}
			if lines != nil {
				t.Errorf("Exec() returned %q alongside an error", lines)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	fruit := sqlitetest.Fruit(t)

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", t.TempDir() + "/missing.db", sqlerr.ErrIO},
		{"not a database", sqlitetest.WriteFile(t, "notes.db", []byte(strings.Repeat("hello ", 40))), sqlerr.ErrCorrupt},
		{"truncated header", sqlitetest.WriteFile(t, "short.db", fruit[:50]), sqlerr.ErrIO},
		{"truncated first page", sqlitetest.WriteFile(t, "cut.db", fruit[:1000]), sqlerr.ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Open(tt.path, DefaultOptions())
			if !errors.Is(err, tt.want) {
				t.Errorf("Open() error = %v, want %v", err, tt.want)
			}
			if db != nil {
				t.Errorf("Open() returned a DB alongside an error")
			}
		})
	}
}

func TestOpen_Compressed(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(sqlitetest.Fruit(t)); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}

	db := openFile(t, sqlitetest.WriteFile(t, "fruit.db.gz", buf.Bytes()))
	if got := exec(t, db, "select id, name from t"); !reflect.DeepEqual(got, []string{"1|a", "2|b", "3|c"}) {
		t.Errorf("Exec() = %q", got)
	}
}

func TestOpenReader(t *testing.T) {
	data := sqlitetest.Fruit(t)
	db, err := OpenReader(bytes.NewReader(data), int64(len(data)), "memory", Options{})
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer db.Close()

	if db.Path() != "memory" || !reflect.DeepEqual(db.Names(), []string{"t"}) {
		t.Errorf("OpenReader() path %q names %q", db.Path(), db.Names())
	}
	cols, rows, err := db.Query(context.Background(), "select name, id from t")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !reflect.DeepEqual(cols, []string{"name", "id"}) || !reflect.DeepEqual(rows, [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}) {
		t.Errorf("Query() = %q %q", cols, rows)
	}
}

func TestCommands(t *testing.T) {
	cmds := Commands()
	if len(cmds) != len(dotCommands) {
		t.Fatalf("Commands() = %q, registered %d", cmds, len(dotCommands))
	}
	for _, c := range cmds {
		if _, ok := dotCommands[c]; !ok {
			t.Errorf("Commands() lists %q, which is not registered", c)
		}
	}
}

func TestClose(t *testing.T) {
	db, err := Open(sqlitetest.WriteFile(t, "fruit.db", sqlitetest.Fruit(t)), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := os.Stat(db.Path()); err != nil {
		t.Errorf("database file gone after Close: %v", err)
	}
}
