// Package errors provides the error taxonomy shared by the database reader.
//
// Each failure family (I/O, structural decode, SQL syntax, schema lookup)
// has a sentinel that callers test with errors.Is and a struct type carrying
// context. Validation and unsupported-feature errors complete the set.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure family
var (
	// ErrIO indicates the underlying file could not be opened or read
	ErrIO = errors.New("i/o error")
	// ErrCorrupt indicates the on-disk bytes do not follow the file format
	ErrCorrupt = errors.New("database disk image is malformed")
	// ErrSyntax indicates SQL text outside the supported grammar
	ErrSyntax = errors.New("syntax error")
	// ErrNotFound indicates a table or other schema object does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates an invalid argument to an operation
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates a valid construct this reader does not handle
	ErrUnsupported = errors.New("unsupported")
)

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "open", "read page 3")
	Path      string // File path involved, if known
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

// Is reports ErrIO so that every IOError matches the family sentinel.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// DecodeError represents a structural decode failure
type DecodeError struct {
	Component string // Decoder that failed (e.g., "varint", "page header", "record")
	Offset    int    // Byte offset of the failure within the decoded region, -1 if unknown
	Message   string // Human-readable description
	Err       error  // Underlying error, if any
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed %s at offset %d: %s", e.Component, e.Offset, e.Message)
	}
	return fmt.Sprintf("malformed %s: %s", e.Component, e.Message)
}

func (e *DecodeError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCorrupt
}

// Is reports ErrCorrupt even when an underlying error is attached.
func (e *DecodeError) Is(target error) bool {
	return target == ErrCorrupt
}

// SyntaxError represents SQL text that does not match the supported grammar
type SyntaxError struct {
	Grammar string // Grammar being parsed ("CREATE TABLE" or "SELECT")
	Input   string // Offending input
	Message string // Parser message
	Err     error  // Underlying parser error, if any
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s: %q", e.Grammar, e.Message, e.Input)
}

func (e *SyntaxError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSyntax
}

// Is reports ErrSyntax even when an underlying parser error is attached.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// LookupError represents a schema object that is absent from the catalog
type LookupError struct {
	Kind string // Kind of object (e.g., "table")
	Name string // Requested name
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no such %s: %s", e.Kind, e.Name)
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewDecode creates a DecodeError at the given offset
func NewDecode(component string, offset int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Component: component,
		Offset:    offset,
		Message:   fmt.Sprintf(format, args...),
	}
}

// NewSyntax creates a SyntaxError
func NewSyntax(grammar, input string, err error) *SyntaxError {
	msg := "unrecognized statement"
	if err != nil {
		msg = err.Error()
	}
	return &SyntaxError{
		Grammar: grammar,
		Input:   input,
		Message: msg,
		Err:     err,
	}
}

// NewLookup creates a LookupError
func NewLookup(kind, name string) *LookupError {
	return &LookupError{
		Kind: kind,
		Name: name,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Exit codes returned by ExitCode. They follow the BSD sysexits conventions
// where one exists.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitSyntax      = 2
	ExitNotFound    = 3
	ExitInvalidData = 65
	ExitIO          = 74
)

// ExitCode maps an error to the process exit code for its family.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrSyntax):
		return ExitSyntax
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrCorrupt):
		return ExitInvalidData
	case errors.Is(err, ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
