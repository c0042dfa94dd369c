package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func parseEntry(t *testing.T, out string) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, out)
	}
	return entry
}

// TestLogger_IncludesCheckFields verifies check fields are present in log output.
func TestLogger_IncludesCheckFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.WithCheck(CheckMeta{Runner: "default", Name: "db"}).Info(context.Background(), "test message")

	entry := parseEntry(t, buf.String())
	if v, ok := entry["check.id"].(string); !ok || v != "default.db" {
		t.Errorf("expected check.id='default.db', got %v", entry["check.id"])
	}
	if v, ok := entry["check.name"].(string); !ok || v != "db" {
		t.Errorf("expected check.name='db', got %v", entry["check.name"])
	}
	if v, ok := entry["runner.name"].(string); !ok || v != "default" {
		t.Errorf("expected runner.name='default', got %v", entry["runner.name"])
	}
	if entry["message"] != "test message" {
		t.Errorf("expected message='test message', got %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected level='info', got %v", entry["level"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected time field")
	}
}

// TestLogger_OmitsEmptyRunner verifies runner.name is only set when known.
func TestLogger_OmitsEmptyRunner(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", &buf).WithCheck(CheckMeta{Name: "db"}).Info(context.Background(), "x")

	if _, ok := parseEntry(t, buf.String())["runner.name"]; ok {
		t.Error("runner.name should be omitted for standalone checks")
	}
}

// TestLogger_IncludesDuration verifies duration_ms field is present.
func TestLogger_IncludesDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "test message", Field{Key: "duration_ms", Value: 50.5})

	if v, ok := parseEntry(t, buf.String())["duration_ms"].(float64); !ok || v != 50.5 {
		t.Errorf("expected duration_ms=50.5, got %v", v)
	}
}

// TestLogger_Levels verifies each level method and filtering.
func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		configured string
		emit       func(Logger)
		wantLevel  string
		wantOutput bool
	}{
		{"info", func(l Logger) { l.Error(context.Background(), "m") }, "error", true},
		{"info", func(l Logger) { l.Warn(context.Background(), "m") }, "warn", true},
		{"info", func(l Logger) { l.Info(context.Background(), "m") }, "info", true},
		{"info", func(l Logger) { l.Debug(context.Background(), "m") }, "", false},
		{"debug", func(l Logger) { l.Debug(context.Background(), "m") }, "debug", true},
		{"error", func(l Logger) { l.Warn(context.Background(), "m") }, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.configured+"/"+tc.wantLevel, func(t *testing.T) {
			var buf bytes.Buffer
			tc.emit(NewLoggerWithWriter(tc.configured, &buf))

			if !tc.wantOutput {
				if buf.Len() != 0 {
					t.Errorf("expected no output, got %s", buf.String())
				}
				return
			}
			if got := parseEntry(t, buf.String())["level"]; got != tc.wantLevel {
				t.Errorf("expected level %q, got %v", tc.wantLevel, got)
			}
		})
	}
}

// TestLogger_RedactsSensitiveFields verifies sensitive keys never reach output.
func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "connecting",
		Field{Key: "dsn", Value: "postgres://user:hunter2@db/app"},
		Field{Key: "password", Value: "hunter2"},
		Field{Key: "address", Value: "db:5432"},
	)

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("sensitive value leaked: %s", out)
	}
	entry := parseEntry(t, out)
	if entry["dsn"] != "[REDACTED]" || entry["password"] != "[REDACTED]" {
		t.Errorf("expected redaction, got %v", entry)
	}
	if entry["address"] != "db:5432" {
		t.Errorf("expected address to pass through, got %v", entry["address"])
	}
}

// TestParseLogLevel verifies level parsing.
func TestParseLogLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		if got := ParseLogLevel(lvl).String(); got != lvl {
			t.Errorf("ParseLogLevel(%q) = %q", lvl, got)
		}
	}
	if got := ParseLogLevel("verbose").String(); got != "info" {
		t.Errorf("unknown level should map to info, got %q", got)
	}
}

// TestLogger_Pretty verifies console output is human readable.
func TestLogger_Pretty(t *testing.T) {
	var buf bytes.Buffer
	logger := newZerologLogger(LoggingConfig{Enabled: true, Level: "info", Pretty: true, Writer: &buf})

	logger.Info(context.Background(), "server listening", Field{Key: "address", Value: ":8080"})

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("expected console output, got JSON: %s", out)
	}
	if !strings.Contains(out, "server listening") {
		t.Errorf("expected message in output, got %s", out)
	}
}
