package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"padded", "  debug ", slog.LevelDebug},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtTrace bool
		logAtDebug bool
	}{
		{"info filters debug", "info", false, false},
		{"debug passes debug", "debug", false, true},
		{"trace passes everything", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, "text", &buf)

			logger.Log(context.Background(), LevelTrace, "trace message")
			logger.Debug("debug message")

			if got := strings.Contains(buf.String(), "trace message"); got != tt.logAtTrace {
				t.Errorf("trace logged = %v, want %v", got, tt.logAtTrace)
			}
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logAtDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.logAtDebug)
			}
		})
	}
}

func TestNewLoggerTraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", "text", &buf)
	logger.Log(context.Background(), LevelTrace, "tick complete")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "json", &buf)
	logger.Info("session started", "seed", 42)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "session started" {
		t.Errorf("msg = %v, want session started", entry["msg"])
	}
	if entry["seed"] != float64(42) {
		t.Errorf("seed = %v, want 42", entry["seed"])
	}
}
