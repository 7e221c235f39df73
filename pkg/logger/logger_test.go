package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNewLogger(t *testing.T) {
	l := NewLogger("")
	if l == nil {
		t.Fatal("Expected logger to be created, got nil")
	}

	l.Info("Test info message", "TEST")
	l.Warn("Test warning message", "TEST")
	l.Debug("Test debug message", "TEST")
	l.System("Test system message", "TEST")
	l.Success("Test success message", "TEST")

	l.Close()
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelCritical, "CRITICAL"},
		{LevelError, "ERROR"},
		{LevelWarn, "WARN"},
		{LevelSuccess, "SUCCESS"},
		{LevelInfo, "INFO"},
		{LevelDebug, "DEBUG"},
		{LevelSystem, "SYSTEM"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "", false)

	l.Warn("Cola de mensajes llena", "Purge")

	line := buf.String()
	if !strings.Contains(line, "[WARN] [Purge]: Cola de mensajes llena") {
		t.Errorf("console line = %q, want level, prefix and message", line)
	}
	if strings.Contains(line, "\033[") {
		t.Errorf("console line = %q, want no color codes", line)
	}
}

func TestLogFileCreation(t *testing.T) {
	logsDir := filepath.Join(t.TempDir(), "logs")

	var console bytes.Buffer
	l := newLogger(&console, logsDir, false)

	l.Info("solo combinado", "TEST")
	l.Critical("va a ambos", "TEST")
	l.Close()

	combined, err := os.ReadFile(filepath.Join(logsDir, "combined.log"))
	if err != nil {
		t.Fatalf("Expected combined.log to be created: %v", err)
	}
	errorsLog, err := os.ReadFile(filepath.Join(logsDir, "error.log"))
	if err != nil {
		t.Fatalf("Expected error.log to be created: %v", err)
	}

	if !strings.Contains(string(combined), "solo combinado") || !strings.Contains(string(combined), "va a ambos") {
		t.Errorf("combined.log = %q, want both messages", combined)
	}
	if strings.Contains(string(errorsLog), "solo combinado") {
		t.Errorf("error.log should not contain info messages, got %q", errorsLog)
	}
	if !strings.Contains(string(errorsLog), "[CRITICAL] [TEST]: va a ambos") {
		t.Errorf("error.log = %q, want the critical message", errorsLog)
	}
}

func TestGlobalLoggerInit(t *testing.T) {
	logger = nil
	once = sync.Once{}

	l := Init("")
	if l == nil {
		t.Fatal("Expected Init to return a logger")
	}

	l2 := Init(t.TempDir())
	if l != l2 {
		t.Error("Expected Init to return the same logger on subsequent calls")
	}

	if l3 := Get(); l != l3 {
		t.Error("Expected Get to return the same logger")
	}

	l.Close()
}
