package validation

import (
	"errors"
	"strings"
	"testing"

	sqlerr "github.com/FocuswithJustin/sqlread/core/errors"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", "fruit.db", false},
		{"absolute", "/var/lib/app/fruit.db.gz", false},
		{"spaces and unicode", "my files/données.sqlite", false},
		{"empty", "", true},
		{"null byte", "fruit\x00.db", true},
		{"newline", "fruit\n.db", true},
		{"escape", "fruit\x1b.db", true},
		{"too long", strings.Repeat("a", MaxPathLength+1), true},
		{"at the limit", strings.Repeat("a", MaxPathLength), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, sqlerr.ErrInvalidInput) {
				t.Errorf("ValidatePath() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		wantErr bool
	}{
		{"empty", "", false},
		{"select", "select name from t", false},
		{"dot command", ".pageinfo 2", false},
		{"tab and newline", "select\tname\nfrom t", false},
		{"null byte", "select name\x00 from t", true},
		{"too long", strings.Repeat("x", MaxCommandLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.command)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, sqlerr.ErrInvalidInput) {
				t.Errorf("ValidateCommand() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestValidationErrorTruncatesValue(t *testing.T) {
	err := ValidatePath(strings.Repeat("a", MaxPathLength+1))
	var ve *sqlerr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("ValidatePath() error = %T, want *ValidationError", err)
	}
	if len(ve.Value) > 70 || !strings.HasSuffix(ve.Value, "...") {
		t.Errorf("Value = %q, want a truncated copy", ve.Value)
	}
}
