// Command sqlread reads SQLite database files without a SQLite engine.
//
//	sqlread [flags] <database> <command>
//
// The command is a dot-command (.dbinfo, .tables, .schema, .pageinfo N,
// .checksum) or a query of the form "SELECT col, ... FROM table". Output
// lines go to stdout; logs and errors go to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
	"github.com/FocuswithJustin/sqlread/core/sqlite"
	"github.com/FocuswithJustin/sqlread/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for sqlread.
type CLI struct {
	LogLevel   string `name:"log-level" env:"SQLREAD_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	LogFormat  string `name:"log-format" env:"SQLREAD_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format (${enum})"`
	CachePages int    `name:"cache-pages" env:"SQLREAD_CACHE_PAGES" default:"64" help:"Pages kept in the page cache, 0 to disable"`

	Version kong.VersionFlag `help:"Print version information"`

	Database string   `arg:"" help:"Database file, optionally .gz, .xz or inside a tar archive" type:"path"`
	Command  []string `arg:"" passthrough:"" help:"Dot-command or SELECT query; extra words are joined with spaces"`
}

type exitCode int

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) (code int) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("sqlread"),
		kong.Description("Read SQLite database files without a SQLite engine."),
		kong.Vars{"version": version},
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	if err := cli.configureLogging(stderr); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	ctx := logging.WithSessionID(context.Background(), logging.NewSessionID())
	if err := cli.Run(ctx, stdout); err != nil {
		logging.ErrorContext(ctx, "command_failed", "database", cli.Database, "error", err.Error())
		fmt.Fprintf(stderr, "error: %v\n", err)
		return sqlerr.ExitCode(err)
	}
	return 0
}

func (c *CLI) configureLogging(w io.Writer) error {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLoggerTo(w, level, format)
	return nil
}

// Run opens the database, executes the command and prints its lines.
func (c *CLI) Run(ctx context.Context, out io.Writer) error {
	start := time.Now()
	db, err := sqlite.Open(c.Database, sqlite.Options{CachePages: c.CachePages})
	if err != nil {
		return err
	}
	defer db.Close()

	lines, err := db.Exec(ctx, strings.Join(c.Command, " "))
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return sqlerr.NewIO("write", "stdout", err)
		}
	}
	logging.InfoContext(ctx, "done", "database", c.Database, "lines", len(lines), "duration_ms", time.Since(start).Milliseconds())
	return nil
}
