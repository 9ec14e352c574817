package logging

import (
	"bytes"
	"strings"
	"testing"
)

func newBufferedLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LoggerConfig{
		Level:  level,
		Output: buf,
		Prefix: "test",
	})
	return logger, buf
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{"error", LogLevelError},
		{"ERROR", LogLevelError},
		{"garbage", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoggerLevelThreshold(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelInfo)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("expected debug message to be suppressed at info level")
	}
	for _, want := range []string{"info message", "warn message", "error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if !strings.Contains(out, "[INFO]") || !strings.Contains(out, "[ERROR]") {
		t.Errorf("expected level markers in output, got %q", out)
	}
}

func TestLoggerSetLevel(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelInfo)

	logger.SetLevel(LogLevelError)
	logger.Warn("should be dropped")
	logger.Error("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Error("expected warn message to be suppressed at error level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("expected error message to pass the raised threshold")
	}
}

func TestLoggerFormatting(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelDebug)

	logger.Info("building %s with %d jobs", "all", 4)

	out := buf.String()
	if !strings.Contains(out, "building all with 4 jobs") {
		t.Errorf("expected formatted message, got %q", out)
	}
	if !strings.Contains(out, "test:") {
		t.Errorf("expected prefix in output, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected trailing newline")
	}
}

func TestLoggerWithoutPrefix(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Output: buf})

	logger.Info("bare message")

	out := buf.String()
	if !strings.Contains(out, "[INFO] bare message") {
		t.Errorf("expected message without prefix separator, got %q", out)
	}
}

func TestLoggerWithField(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelDebug)
	child := logger.WithField("operation", "build")

	child.Info("child message")
	logger.Info("parent message")

	out := buf.String()
	if !strings.Contains(out, "{operation=build}") {
		t.Errorf("expected field rendered on child output, got %q", out)
	}

	// The parent logger must not inherit the child's field.
	parentLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "parent message") {
			parentLine = line
		}
	}
	if strings.Contains(parentLine, "operation=build") {
		t.Errorf("expected parent line without field, got %q", parentLine)
	}
}

func TestLoggerWithFields(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelDebug)
	child := logger.WithFields(map[string]any{"target": "all", "jobs": 4})

	child.Info("with fields")

	out := buf.String()
	if !strings.Contains(out, "target=all") {
		t.Errorf("expected target field in output, got %q", out)
	}
	if !strings.Contains(out, "jobs=4") {
		t.Errorf("expected jobs field in output, got %q", out)
	}
}

func TestLoggerWithComponent(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelDebug)

	logger.WithComponent("intellisense").Info("resolving")

	if !strings.Contains(buf.String(), "component=intellisense") {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestLoggerDisable(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelDebug)

	logger.Disable()
	logger.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got %q", buf.String())
	}

	logger.Enable()
	logger.Error("emitted")
	if !strings.Contains(buf.String(), "emitted") {
		t.Error("expected output after re-enabling")
	}
}

func TestNullLogger(t *testing.T) {
	// NullLogger has no output writer; logging must stay a no-op.
	NullLogger.Debug("x")
	NullLogger.Info("x")
	NullLogger.Warn("x")
	NullLogger.Error("x")
}
