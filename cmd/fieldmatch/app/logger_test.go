package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDetermineLogLevel tests the log level precedence logic.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name:     "default level when no flags set",
			config:   &Config{},
			expected: "info",
		},
		{
			name:     "verbose flag sets debug",
			config:   &Config{Verbose: true},
			expected: "debug",
		},
		{
			name:     "quiet flag sets warn",
			config:   &Config{Quiet: true},
			expected: "warn",
		},
		{
			name:     "quiet wins over verbose",
			config:   &Config{Verbose: true, Quiet: true},
			expected: "warn",
		},
		{
			name:     "explicit log-level overrides both flags",
			config:   &Config{LogLevel: "error", Verbose: true, Quiet: true},
			expected: "error",
		},
		{
			name:     "invalid log-level falls back to info",
			config:   &Config{LogLevel: "loud"},
			expected: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := determineLogLevel(tt.config); got != tt.expected {
				t.Errorf("determineLogLevel() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestNewLogger_Level verifies the logger honours the chosen level.
func TestNewLogger_Level(t *testing.T) {
	logger := NewLogger(&Config{LogLevel: "warn", LogOutput: "discard"})
	if got := logger.GetLevel().String(); got != "warn" {
		t.Errorf("logger level = %s, want warn", got)
	}
}

// TestNewLogger_File verifies --log-file keeps debug output the console drops.
func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.log")
	logger := NewLogger(&Config{LogOutput: "discard", LogFile: path, LogFileLevel: "debug"})
	logger.Debug().Msg("pair resolved")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "pair resolved") {
		t.Errorf("log file = %q, want the debug line", content)
	}
}
