package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer
	oldLogger := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	f()

	defaultLogger = oldLogger
	return buf.String()
}

// decodeLine parses the single JSON log record in output.
func decodeLine(t *testing.T, output string) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &rec); err != nil {
		t.Fatalf("log output is not one JSON record: %v\n%s", err, output)
	}
	return rec
}

func TestInitLoggerTo(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		format   Format
		logDebug bool
		logWarn  bool
		wantJSON bool
	}{
		{"debug json", LevelDebug, FormatJSON, true, true, true},
		{"info text", LevelInfo, FormatText, false, true, false},
		{"warn text", LevelWarn, FormatText, false, true, false},
		{"error json", LevelError, FormatJSON, false, false, true},
		{"unknown level falls back to warn", Level(999), FormatText, false, true, false},
	}

	defer InitLogger(LevelWarn, FormatText)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerTo(&buf, tt.level, tt.format)

			Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.logDebug)
			}
			buf.Reset()

			Warn("warn message", "k", "v")
			out := buf.String()
			if got := strings.Contains(out, "warn message"); got != tt.logWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.logWarn)
			}
			if tt.logWarn && tt.wantJSON != strings.HasPrefix(out, "{") {
				t.Errorf("output format mismatch: %q", out)
			}
		})
	}
}

func TestTimestampIsRFC3339(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelInfo, FormatJSON)
	defer InitLogger(LevelWarn, FormatText)

	Info("timestamp test")
	rec := decodeLine(t, buf.String())
	ts, ok := rec["time"].(string)
	if !ok {
		t.Fatalf("time attribute missing: %v", rec)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", LevelWarn, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"", FormatText, false},
		{"JSON", FormatJSON, false},
		{"xml", FormatText, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestSessionID(t *testing.T) {
	id := NewSessionID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("NewSessionID() = %q is not a UUID: %v", id, err)
	}
	if NewSessionID() == id {
		t.Error("NewSessionID() returned the same id twice")
	}

	ctx := WithSessionID(context.Background(), id)
	if got := GetSessionID(ctx); got != id {
		t.Errorf("GetSessionID() = %q, want %q", got, id)
	}
	if got := GetSessionID(context.Background()); got != "" {
		t.Errorf("GetSessionID(empty) = %q, want empty", got)
	}
	wrongType := context.WithValue(context.Background(), SessionIDKey, 12345)
	if got := GetSessionID(wrongType); got != "" {
		t.Errorf("GetSessionID(wrong type) = %q, want empty", got)
	}
}

func TestContextLoggingFunctions(t *testing.T) {
	ctx := WithSessionID(context.Background(), "session-1")

	tests := []struct {
		name string
		fn   func()
	}{
		{"DebugContext", func() { DebugContext(ctx, "debug message") }},
		{"InfoContext", func() { InfoContext(ctx, "info message") }},
		{"WarnContext", func() { WarnContext(ctx, "warning message") }},
		{"ErrorContext", func() { ErrorContext(ctx, "error message") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := decodeLine(t, captureLogOutput(tt.fn))
			if rec["session_id"] != "session-1" {
				t.Errorf("session_id = %v, want session-1", rec["session_id"])
			}
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	tests := []struct {
		name  string
		fn    func()
		level string
	}{
		{"Debug", func() { Debug("m") }, "DEBUG"},
		{"Info", func() { Info("m") }, "INFO"},
		{"Warn", func() { Warn("m") }, "WARN"},
		{"Error", func() { Error("m") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := decodeLine(t, captureLogOutput(tt.fn))
			if rec["level"] != tt.level {
				t.Errorf("level = %v, want %s", rec["level"], tt.level)
			}
		})
	}
}

func TestPageRead(t *testing.T) {
	rec := decodeLine(t, captureLogOutput(func() {
		PageRead(3, "table leaf", 12, "cached", false)
	}))
	if rec["msg"] != "page_read" || rec["pgno"] != float64(3) || rec["kind"] != "table leaf" ||
		rec["cells"] != float64(12) || rec["cached"] != false {
		t.Errorf("PageRead record = %v", rec)
	}
}

func TestQueryExecuted(t *testing.T) {
	ctx := WithSessionID(context.Background(), "s")
	rec := decodeLine(t, captureLogOutput(func() {
		QueryExecuted(ctx, "apples", 4, 1500*time.Millisecond)
	}))
	if rec["msg"] != "query_executed" || rec["table"] != "apples" || rec["rows"] != float64(4) ||
		rec["duration_ms"] != float64(1500) || rec["session_id"] != "s" {
		t.Errorf("QueryExecuted record = %v", rec)
	}
}

func TestCommandRun(t *testing.T) {
	rec := decodeLine(t, captureLogOutput(func() {
		CommandRun(context.Background(), ".tables", 2, time.Millisecond)
	}))
	if rec["msg"] != "command_run" || rec["command"] != ".tables" || rec["lines"] != float64(2) {
		t.Errorf("CommandRun record = %v", rec)
	}
}

func TestDecodeFailure(t *testing.T) {
	rec := decodeLine(t, captureLogOutput(func() {
		DecodeFailure(context.Background(), "record", errors.New("reserved serial type 10"), "pgno", 2)
	}))
	if rec["msg"] != "decode_failure" || rec["component"] != "record" ||
		rec["error"] != "reserved serial type 10" || rec["pgno"] != float64(2) {
		t.Errorf("DecodeFailure record = %v", rec)
	}
}

func TestInit(t *testing.T) {
	if defaultLogger == nil || GetLogger() == nil {
		t.Error("Expected defaultLogger to be initialized by init()")
	}
}
