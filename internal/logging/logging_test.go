package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupWritesCombinedAndErrorFiles(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	l, err := Setup(Options{Level: "debug", Format: "text", Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	l.Info("step passed", "step", "go")
	l.Error("step failed", "step", "click-it")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !strings.Contains(console.String(), "step passed") {
		t.Error("console should contain info record")
	}

	combined, err := os.ReadFile(filepath.Join(dir, "combined.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(combined), "step passed") || !strings.Contains(string(combined), "step failed") {
		t.Errorf("combined.log missing records: %s", combined)
	}

	errLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(errLog), "step passed") {
		t.Error("error.log should not contain info records")
	}
	if !strings.Contains(string(errLog), "step failed") {
		t.Error("error.log should contain error records")
	}
}

func TestSetupRespectsLevel(t *testing.T) {
	var console bytes.Buffer
	l, err := Setup(Options{Level: "warn", Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.Info("hidden")
	l.With("scenario", "Login").Warn("shown")

	out := console.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "scenario=Login") {
		t.Errorf("expected attrs from With, got %q", out)
	}
}
