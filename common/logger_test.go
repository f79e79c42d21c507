package common

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLogger_SetLevel(t *testing.T) {
	logger := &Logger{level: LevelInfo}

	logger.SetLevel(LevelDebug)
	if logger.level != LevelDebug {
		t.Errorf("SetLevel did not update level, got %v, want %v", logger.level, LevelDebug)
	}
}

func TestLogger_LogFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := &Logger{
		level:  LevelWarn,
		output: &buf,
		logger: log.New(&buf, "", 0),
	}

	logger.Debug("debug message")
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Error("Debug/Info messages should be filtered when level is Warn")
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "WARN") {
		t.Error("Warn message should be logged")
	}

	buf.Reset()
	logger.Error("error message")
	if !strings.Contains(buf.String(), "ERROR") {
		t.Error("Error message should be logged")
	}
}

func TestLogger_LogFormatting(t *testing.T) {
	var buf bytes.Buffer

	logger := &Logger{
		level:  LevelDebug,
		output: &buf,
		logger: log.New(&buf, "", 0),
	}

	logger.Info("Test message with %s", "formatting")

	output := buf.String()

	if !strings.Contains(output, time.Now().Format("2006/01/02")) {
		t.Error("Log should contain date in YYYY/MM/DD format")
	}
	if !strings.Contains(output, "[INFO]") {
		t.Error("Log should contain level indicator")
	}
	if !strings.Contains(output, "Test message with formatting") {
		t.Error("Log should contain formatted message")
	}
}

func TestLogRotation(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	largeContent := strings.Repeat("x", 1024*1024)
	if err := os.WriteFile(logFile, []byte(largeContent), 0600); err != nil {
		t.Fatal(err)
	}

	logger := &Logger{
		level:       LevelInfo,
		maxFileSize: 512 * 1024,
		maxBackups:  2,
	}

	logger.rotateIfNeeded(logFile)

	info, err := os.Stat(logFile)
	if err == nil && info.Size() > 0 {
		t.Error("Original log file should be removed or empty after rotation")
	}

	matches, _ := filepath.Glob(filepath.Join(tempDir, "test.log.*"))
	if len(matches) == 0 {
		t.Error("Backup file should be created after rotation")
	}
}

func TestWrapError(t *testing.T) {
	wrapped := WrapError(ErrStartFailed, "additional context")

	if wrapped == nil {
		t.Fatal("WrapError should return non-nil error")
	}
	if !strings.Contains(wrapped.Error(), "additional context") {
		t.Error("WrapError should include additional context")
	}
	if !strings.Contains(wrapped.Error(), ErrStartFailed.Error()) {
		t.Error("WrapError should include original error message")
	}

	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestFileExists(t *testing.T) {
	tempFile, err := os.CreateTemp(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	tempFile.Close()

	if !FileExists(tempFile.Name()) {
		t.Error("FileExists() should return true for existing file")
	}
	if FileExists("/nonexistent/path/to/file") {
		t.Error("FileExists() should return false for non-existing file")
	}
}
