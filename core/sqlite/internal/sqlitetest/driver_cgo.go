//go:build cgo_sqlite

// Fixtures are written by the C engine when the cgo_sqlite tag is set.
//
// Build with: go test -tags cgo_sqlite
// Requires: CGO_ENABLED=1
package sqlitetest

import (
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
)

const (
	driverName = "sqlite3"
	driverType = "cgo"
)
