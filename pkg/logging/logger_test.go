package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo || cfg.Pretty || cfg.File != "" {
		t.Errorf("DefaultConfig() = %+v, want info level JSON on stderr", cfg)
	}
}

func TestSetup_WritesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelDebug, Output: buf})

	logger.Debug().Int("page", 3).Int("seq", 7).Msg("Page requested")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not a JSON line: %v (%q)", err, buf.String())
	}
	if line["message"] != "Page requested" || line["page"] != float64(3) || line["seq"] != float64(7) {
		t.Errorf("unexpected log line %v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Error("log line carries no timestamp")
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Pretty: true, Output: buf})

	logger.Info().Msg("Bulk limit applied")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("pretty output should not be JSON, got %q", out)
	}
	if !strings.Contains(out, "Bulk limit applied") {
		t.Errorf("pretty output missing message: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if level != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, level, tt.want)
			}
		})
	}
}

func TestSetup_GlobalLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			Setup(Config{Level: tt.level, Output: &bytes.Buffer{}})
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("global level = %v, want %v", got, tt.want)
			}
		})
	}
	Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}})
}

func TestNewLogger_ComponentFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})
	defer Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}})

	logger := NewLogger("session")
	logger.Info().Msg("toggled row")
	logger.Warn().Str("input", "abc").Msg("Rejected bulk input")

	out := buf.String()
	if strings.Contains(out, "toggled row") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, `"component":"session"`) || !strings.Contains(out, "Rejected bulk input") {
		t.Errorf("warn line missing component or message: %q", out)
	}
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artsel.log")

	// Pretty is ignored for files so the log stays machine readable.
	logger, closer, err := SetupFile(Config{Level: LevelInfo, Pretty: true, File: path})
	if err != nil {
		t.Fatalf("SetupFile: %v", err)
	}
	logger.Info().Int("page", 2).Msg("file message")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"message":"file message"`) {
		t.Errorf("log file = %q, want JSON line with message", data)
	}
}

func TestSetupFile_NoFile(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, closer, err := SetupFile(Config{Level: LevelInfo, Output: buf})
	if err != nil {
		t.Fatalf("SetupFile: %v", err)
	}
	defer closer.Close()

	logger.Info().Msg("to output")
	if !strings.Contains(buf.String(), "to output") {
		t.Errorf("Expected output to contain message, got %q", buf.String())
	}
}

func TestSetupFile_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "artsel.log")
	if _, _, err := SetupFile(Config{File: path}); err == nil {
		t.Error("expected error for a log file in a missing directory")
	}
}
