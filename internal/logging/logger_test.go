package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, level LogLevel) *Logger {
	return NewLogger(&Config{
		Level:   level,
		Format:  "text",
		Output:  buf,
		Sync:    true,
		NoColor: true,
	})
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "default config",
			config: nil,
		},
		{
			name: "json format",
			config: &Config{
				Level:  LevelInfo,
				Format: "json",
				Output: &bytes.Buffer{},
			},
		},
		{
			name: "text format",
			config: &Config{
				Level:  LevelDebug,
				Format: "text",
				Output: &bytes.Buffer{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Error("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LevelDebug)

	runLogger := logger.WithRun("/data/data0")
	runLogger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "target=/data/data0") {
		t.Errorf("Expected target=/data/data0 in output, got: %s", output)
	}

	buf.Reset()
	opLogger := runLogger.WithOp(1024, "SYNC")
	opLogger.Warn("op message")

	output = buf.String()
	if !strings.Contains(output, "target=/data/data0") {
		t.Errorf("Expected target in op logger output, got: %s", output)
	}
	if !strings.Contains(output, "token=1024") {
		t.Errorf("Expected token=1024 in output, got: %s", output)
	}
	if !strings.Contains(output, "op=SYNC") {
		t.Errorf("Expected op=SYNC in output, got: %s", output)
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LevelDebug)

	testErr := errors.New("test error")
	logger.WithError(testErr).Error("operation failed")

	output := buf.String()
	if !strings.Contains(output, "test error") {
		t.Errorf("Expected 'test error' in output, got: %s", output)
	}
}

func TestErrorArgument(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LevelDebug)

	logger.Warn("write failed", "error", errors.New("input/output error"), "offset", 4096)

	output := buf.String()
	if !strings.Contains(output, "input/output error") {
		t.Errorf("Expected error text, got: %s", output)
	}
	if !strings.Contains(output, "offset=4096") {
		t.Errorf("Expected offset=4096, got: %s", output)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LevelWarn)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered, got: %s", buf.String())
	}
	if logger.Enabled(LevelDebug) {
		t.Error("debug should not be enabled at warn level")
	}
	if !logger.Enabled(LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestNopLogger(t *testing.T) {
	logger := Nop()
	logger.Error("dropped", "key", "value")
	if logger.Enabled(LevelError) {
		t.Error("nop logger should not enable any level")
	}
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(newTestLogger(&buf, LevelDebug))
	defer SetDefault(prev)

	Debug("debug message", "key", "value")
	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Errorf("Expected debug message, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("Expected key=value, got: %s", output)
	}

	buf.Reset()
	Info("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("Expected info message, got: %s", buf.String())
	}

	buf.Reset()
	Warn("warning message")
	if !strings.Contains(buf.String(), "warning message") {
		t.Errorf("Expected warning message, got: %s", buf.String())
	}

	buf.Reset()
	Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("Expected error message, got: %s", buf.String())
	}
}

func TestAsyncWriterClose(t *testing.T) {
	var buf bytes.Buffer
	aw := newAsyncWriter(&buf, 4)

	if _, err := aw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if buf.String() != "hello" {
		t.Errorf("Expected flushed output, got %q", buf.String())
	}
	if _, err := aw.Write([]byte("late")); err == nil {
		t.Error("Expected write after close to fail")
	}
}
