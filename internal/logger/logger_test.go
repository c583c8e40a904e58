package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "mdltool.log")

	// 1MB is the smallest size lumberjack rotates at.
	l, err := New(Options{
		Level: "debug",
		File:  FileConfig{Path: logFile, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	long := strings.Repeat("x", 200)
	sugar := l.Sugar()
	for i := 0; i < 15000; i++ {
		sugar.Infof("parsed node %d: %s", i, long)
	}
	_ = l.Sync()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading log dir: %v", err)
	}
	rotated := 0
	for _, f := range files {
		if f.Name() != "mdltool.log" && strings.HasPrefix(f.Name(), "mdltool-20") {
			rotated++
		}
	}
	if rotated == 0 {
		t.Errorf("no rotated files among %d entries", len(files))
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			logFile := filepath.Join(t.TempDir(), "level.log")
			l, err := New(Options{Level: tt.level, File: FileConfig{Path: logFile, MaxSizeMB: 10}})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			l.Debug("debug message")
			l.Info("info message")
			l.Warn("warn message")
			l.Error("error message")
			_ = l.Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("reading log: %v", err)
			}
			for _, exp := range tt.expected {
				if !strings.Contains(string(content), exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(string(content), exc) {
					t.Errorf("unexpected %s in log output", exc)
				}
			}
		})
	}
}

func TestNew_BadOptions(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	path := filepath.Join(t.TempDir(), "x.log")
	if _, err := New(Options{Format: "xml", File: FileConfig{Path: path}}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNew_JSONFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "json.log")
	l, err := New(Options{Format: "json", File: FileConfig{Path: logFile, MaxSizeMB: 1}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Named("batch").Warn("uv layer missing")
	_ = l.Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, content)
	}
	if entry["msg"] != "uv layer missing" || entry["logger"] != "batch" || entry["level"] != "WARN" {
		t.Errorf("entry = %v", entry)
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Level: "info", Console: &buf}); err != nil {
		t.Fatal(err)
	}
	defer Init(Options{})

	ForFile("c_orc.mdl").Info("converted")
	Sync()

	out := buf.String()
	if !strings.Contains(out, "converted") || !strings.Contains(out, "c_orc.mdl") {
		t.Errorf("console output = %q", out)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/mdltool.log")
	if cfg.Path != "/tmp/mdltool.log" || cfg.MaxSizeMB != 20 || cfg.MaxBackups != 3 || cfg.MaxAgeDays != 14 || !cfg.Compress {
		t.Errorf("DefaultFileConfig() = %+v", cfg)
	}
}
