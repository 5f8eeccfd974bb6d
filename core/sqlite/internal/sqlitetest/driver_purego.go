//go:build !cgo_sqlite

package sqlitetest

import (
	_ "modernc.org/sqlite" // registers "sqlite"
)

const (
	driverName = "sqlite"
	driverType = "purego"
)
