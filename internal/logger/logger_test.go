package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Warn("Test warning message", "op", "test")
	Error("Test error message")

	if _, err := os.Stat(filepath.Join(logDir, "drivewise.log")); err != nil {
		t.Errorf("log file was not written: %v", err)
	}
}

func TestInitDebugMode(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{Debug: true, ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Debug("Test debug message in debug mode")
	Info("Test info message in debug mode")
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestPathAndClose(t *testing.T) {
	if err := Close(); err != nil {
		t.Fatalf("Close() before Init = %v", err)
	}
	if Path() != "" {
		t.Errorf("Path() before Init = %q, want empty", Path())
	}

	configDir := t.TempDir()
	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	want := filepath.Join(configDir, "logs", "drivewise.log")
	if Path() != want {
		t.Errorf("Path() = %q, want %q", Path(), want)
	}

	// a second Init replaces the first file
	other := t.TempDir()
	if err := Init(Config{ConfigDir: other, Stderr: true}); err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	if Path() != filepath.Join(other, "logs", "drivewise.log") {
		t.Errorf("Path() after re-init = %q", Path())
	}

	if err := Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if Logger != nil || Path() != "" {
		t.Error("Close() left the logger in place")
	}
	Warn("dropped after close")
}
