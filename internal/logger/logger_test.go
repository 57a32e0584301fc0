package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stereovision/internal/config"
)

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Info("capture started for %s", "first")
	l.Warning("stop exceeded %dms", 33)
	l.Error("boom")

	out := buf.String()
	for _, want := range []string{"INFO", "capture started for first", "WARNING", "stop exceeded 33ms", "ERROR", "boom", "logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestNewLogger_CreatesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Info("hello")
	l.Warning("careful")
	l.Error("failed")

	for _, name := range []string{"info.log", "warning.log", "error.log"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s should not be empty", name)
		}
	}

	if err := l.CleanLogs("warning.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "warning.log"))
	if len(data) != 0 {
		t.Errorf("warning.log should be empty after CleanLogs, got %q", data)
	}
}

func TestWriterLogger_CleanLogsIsNoop(t *testing.T) {
	if err := Discard().CleanLogs("info.log"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
