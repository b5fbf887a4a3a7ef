package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"identity/internal/observability/logging"
)

func TestNewLoggerTagsEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{
		ServiceName: "identity",
		Environment: "test",
		Output:      &buf,
	})

	logger.Info("listening", "addr", ":8080")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["service"] != "identity" || rec["env"] != "test" {
		t.Fatalf("record missing service tags: %v", rec)
	}
	if rec["msg"] != "listening" || rec["addr"] != ":8080" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewLoggerSuppressesBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: "warn", Output: &buf})

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info must be suppressed at warn: %s", buf.String())
	}

	logger.Warn("loud")
	if buf.Len() == 0 {
		t.Fatalf("warn must be emitted at warn")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := logging.ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
