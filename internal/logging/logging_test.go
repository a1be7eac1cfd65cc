package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewEmptyPathIsNop(t *testing.T) {
	l := New("", true)
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger for empty path")
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weighplot.log")
	l := New(path, false)
	l.Info("connected", zap.String("port", "/dev/ttyUSB0"), zap.Int("baud", 115200))
	l.Debug("hidden at info level")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %s", len(lines), data)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "connected" || entry["port"] != "/dev/ttyUSB0" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(zapcore.AddSync(&buf), true)
	l.Debug("pending overflow", zap.Int("overflows", 1))
	if !strings.Contains(buf.String(), "pending overflow") {
		t.Errorf("debug entry missing: %q", buf.String())
	}
}

func TestDefaultFileWriterConfig(t *testing.T) {
	cfg := DefaultFileWriterConfig()
	if cfg.MaxSizeMB != DefaultMaxSizeMB || cfg.MaxBackups != DefaultMaxBackups ||
		cfg.MaxAgeDays != DefaultMaxAgeDays || !cfg.Compress {
		t.Errorf("DefaultFileWriterConfig() = %+v", cfg)
	}
}
