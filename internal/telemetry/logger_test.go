package telemetry

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

func TestLoggerWritesJSONLinesWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, clog.InfoLevel)
	l.Info("progress.loaded", map[string]any{"coins": 20, "name": "Ruth"})
	l.Debug("progress.hidden", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if entry["msg"] != "progress.loaded" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["name"] != "Ruth" {
		t.Fatalf("expected name field, got %#v", entry)
	}
	if entry["level"] != "info" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
}

func TestParseLevelDefaultsToWarn(t *testing.T) {
	lvl, err := ParseLevel("")
	if err != nil {
		t.Fatalf("parse empty level: %v", err)
	}
	if lvl != clog.WarnLevel {
		t.Fatalf("expected warn, got %v", lvl)
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewLoggerAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	l, err := NewLogger(path, "info")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Error("kv.write_failed", map[string]any{"key": "totalCoins"})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	var nilLogger *Logger
	nilLogger.Info("ignored", nil)
}
