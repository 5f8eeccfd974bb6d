package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

type dotCommand func(ctx context.Context, db *DB, args []string) ([]string, error)

var dotCommands = map[string]dotCommand{
	".dbinfo":   dbInfo,
	".tables":   tables,
	".schema":   schemaText,
	".pageinfo": pageInfo,
	".checksum": checksum,
}

// Commands returns the supported dot-command names.
func Commands() []string {
	return []string{".dbinfo", ".tables", ".schema", ".pageinfo", ".checksum"}
}

func parseDotCommand(command string) (string, []string, bool) {
	fields := strings.Fields(command)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], ".") {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func noArgs(name string, args []string) error {
	if len(args) > 0 {
		return sqlerr.NewValidation("args", strings.Join(args, " "), name+" takes no arguments")
	}
	return nil
}

// dbInfo prints the header summary. The first two lines are the page size
// and the cell count of page 1; -v adds cache statistics.
func dbInfo(_ context.Context, db *DB, args []string) ([]string, error) {
	verbose := len(args) == 1 && args[0] == "-v"
	if !verbose {
		if err := noArgs(".dbinfo", args); err != nil {
			return nil, err
		}
	}

	info := db.engine.Info()
	h := info.Header
	lines := []string{
		fmt.Sprintf("database page size: %d", info.PageSize),
		fmt.Sprintf("number of tables: %d", info.SchemaCells),
		fmt.Sprintf("database page count: %d", info.PageCount),
		fmt.Sprintf("text encoding: %d (%s)", uint32(info.Encoding), info.Encoding),
		fmt.Sprintf("schema entries: %d", info.SchemaEntries),
		fmt.Sprintf("write format: %d", h.WriteVersion),
		fmt.Sprintf("read format: %d", h.ReadVersion),
		fmt.Sprintf("reserved bytes: %d", h.ReservedSpace),
		fmt.Sprintf("file change counter: %d", h.FileChangeCounter),
		fmt.Sprintf("freelist page count: %d", h.FreelistCount),
		fmt.Sprintf("schema cookie: %d", h.SchemaCookie),
		fmt.Sprintf("schema format: %d", h.SchemaFormat),
		fmt.Sprintf("default cache size: %d", h.DefaultCacheSize),
		fmt.Sprintf("autovacuum top root: %d", h.LargestRootPage),
		fmt.Sprintf("incremental vacuum: %d", h.IncrVacuum),
		fmt.Sprintf("user version: %d", h.UserVersion),
		fmt.Sprintf("application id: %d", h.AppID),
		fmt.Sprintf("software version: %d", h.SQLiteVersion),
	}
	if verbose {
		st := db.pager.Stats()
		lines = append(lines,
			fmt.Sprintf("page reads: %d", st.Reads),
			fmt.Sprintf("cache hits: %d", st.Cache.Hits),
			fmt.Sprintf("cache misses: %d", st.Cache.Misses),
			fmt.Sprintf("cache pages: %d/%d", st.Cache.Size, st.Cache.MaxSize),
		)
	}
	return lines, nil
}

func tables(_ context.Context, db *DB, args []string) ([]string, error) {
	if err := noArgs(".tables", args); err != nil {
		return nil, err
	}
	return db.Names(), nil
}

// schemaText prints the CREATE statement of every schema object, or of the
// objects belonging to one table.
func schemaText(_ context.Context, db *DB, args []string) ([]string, error) {
	if len(args) > 1 {
		return nil, sqlerr.NewValidation("args", strings.Join(args, " "), ".schema takes at most one table name")
	}
	var lines []string
	for _, e := range db.engine.Catalog().Entries() {
		if e.SQL == "" {
			continue
		}
		if len(args) == 1 && !strings.EqualFold(e.TableName, args[0]) {
			continue
		}
		lines = append(lines, e.SQL+";")
	}
	if len(args) == 1 && lines == nil {
		return nil, sqlerr.NewLookup("table", args[0])
	}
	return lines, nil
}

func pageInfo(_ context.Context, db *DB, args []string) ([]string, error) {
	if len(args) != 1 {
		return nil, sqlerr.NewValidation("args", strings.Join(args, " "), ".pageinfo takes one page number")
	}
	pgno, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return nil, sqlerr.NewValidation("page", args[0], "not a page number")
	}

	pi, err := db.engine.PageInfo(uint32(pgno))
	if err != nil {
		return nil, err
	}
	h := pi.Header
	lines := []string{
		fmt.Sprintf("page: %d", pi.Pgno),
		fmt.Sprintf("kind: %s", h.Kind),
		fmt.Sprintf("header offset: %d", h.Offset),
		fmt.Sprintf("cells: %d", h.NumCells),
		fmt.Sprintf("cell content start: %d", h.CellContentStart),
		fmt.Sprintf("first freeblock: %d", h.FirstFreeblock),
		fmt.Sprintf("fragmented bytes: %d", h.FragmentedBytes),
	}
	if rm, ok := h.RightMostPointer(); ok {
		lines = append(lines, fmt.Sprintf("right-most pointer: %d", rm))
	}
	return append(lines, "blake3: "+pi.Digest), nil
}

func checksum(_ context.Context, db *DB, args []string) ([]string, error) {
	if err := noArgs(".checksum", args); err != nil {
		return nil, err
	}
	sum, err := db.engine.Checksum()
	if err != nil {
		return nil, sqlerr.NewIO("read", db.path, err)
	}
	return []string{
		"blake3: " + sum.BLAKE3,
		"sha256: " + sum.SHA256,
		fmt.Sprintf("size: %d", sum.Size),
	}, nil
}
