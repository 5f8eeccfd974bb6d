// Package validation checks user-supplied paths and commands before they
// reach the file system or the query parser.
package validation

import (
	"strings"
	"unicode"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

// Limits on user input.
const (
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// MaxCommandLength is the maximum allowed command length.
	MaxCommandLength = 1 << 20
)

// ValidatePath rejects empty paths, paths longer than MaxPathLength and
// paths holding NUL or other control characters.
func ValidatePath(path string) error {
	if path == "" {
		return sqlerr.NewValidation("path", path, "path cannot be empty")
	}
	if len(path) > MaxPathLength {
		return sqlerr.NewValidation("path", truncate(path), "path too long")
	}
	if strings.IndexFunc(path, unicode.IsControl) >= 0 {
		return sqlerr.NewValidation("path", truncate(path), "invalid character in path")
	}
	return nil
}

// ValidateCommand rejects commands longer than MaxCommandLength or holding
// a NUL byte. Empty commands pass and are reported by the parser.
func ValidateCommand(command string) error {
	if len(command) > MaxCommandLength {
		return sqlerr.NewValidation("command", truncate(command), "command too long")
	}
	if strings.IndexByte(command, 0) >= 0 {
		return sqlerr.NewValidation("command", truncate(command), "NUL byte in command")
	}
	return nil
}

func truncate(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
