package sqlitetest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
)

// Driver reports which engine CreateDB uses: "purego" or "cgo".
func Driver() string {
	return driverType
}

// CreateDB runs stmts against a new database file in a temp directory using
// a real SQLite engine and returns the file's path. pageSize of 0 keeps the
// engine default.
func CreateDB(tb testing.TB, pageSize int, stmts ...string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "fixture.db")

	db, err := sql.Open(driverName, path)
	if err != nil {
		tb.Fatalf("open %s fixture: %v", driverType, err)
	}
	defer db.Close()
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	if pageSize > 0 {
		stmts = append([]string{fmt.Sprintf("PRAGMA page_size = %d", pageSize)}, stmts...)
	}
	// rollback journal so that every page lands in the main file
	stmts = append([]string{"PRAGMA journal_mode = DELETE"}, stmts...)

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			tb.Fatalf("fixture statement %q: %v", stmt, err)
		}
	}
	return path
}

// Query runs query against the file at path with the real engine and
// returns each row's columns as text joined by "|".
func Query(tb testing.TB, path, query string) []string {
	tb.Helper()

	db, err := sql.Open(driverName, path)
	if err != nil {
		tb.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		tb.Fatalf("query %q: %v", query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		tb.Fatal(err)
	}

	var out []string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			tb.Fatalf("scan %q: %v", query, err)
		}
		line := ""
		for i, v := range vals {
			if i > 0 {
				line += "|"
			}
			line += v.String
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		tb.Fatal(err)
	}
	return out
}
