package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"", INFO},
		{"bogus", INFO},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WARN, &buf)

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("lines below WARN should be filtered:\n%s", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Errorf("WARN and ERROR lines should pass:\n%s", out)
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := New(INFO, &buf)

	logger.Info("generated %d summaries", 3)

	out := buf.String()
	if !strings.Contains(out, "[INFO] generated 3 summaries") {
		t.Errorf("unexpected line format:\n%s", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("buffer output should not be colored:\n%s", out)
	}
}

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := New(INFO, &buf).WithFields(map[string]interface{}{
		"week": "2025-W11",
		"user": "ada",
	})

	logger.Info("summary stored")

	out := buf.String()
	if !strings.Contains(out, "| user=ada week=2025-W11") {
		t.Errorf("fields should print in key order:\n%s", out)
	}
}

func TestWithField(t *testing.T) {
	logger := WithField("key", "value")

	if logger == nil {
		t.Fatal("WithField returned nil")
	}
	if logger.fields["key"] != "value" {
		t.Error("field not set correctly")
	}
	// Should be a new logger
	if len(defaultLogger.fields) > 0 {
		t.Error("should not modify default logger")
	}
}

func TestWithFields_Chaining(t *testing.T) {
	var buf bytes.Buffer
	base := New(INFO, &buf).WithField("user", "ada")
	child := base.WithField("week", "2025-W11")

	if len(base.fields) != 1 {
		t.Errorf("parent logger gained fields: %v", base.fields)
	}
	if child.fields["user"] != "ada" || child.fields["week"] != "2025-W11" {
		t.Errorf("child fields = %v, want both inherited and added", child.fields)
	}

	// Overriding a key replaces the inherited value
	replaced := base.WithField("user", "grace")
	if replaced.fields["user"] != "grace" {
		t.Errorf("override = %v, want grace", replaced.fields["user"])
	}
	if base.fields["user"] != "ada" {
		t.Error("override should not leak into the parent")
	}
}

func TestSetLevel(t *testing.T) {
	// Save original
	origLevel := defaultLogger.level
	defer func() { defaultLogger.level = origLevel }()

	SetLevel(DEBUG)
	if defaultLogger.level != DEBUG {
		t.Error("SetLevel did not change level")
	}

	SetLevel(ERROR)
	if defaultLogger.level != ERROR {
		t.Error("SetLevel did not change level")
	}
}

func TestSetOutput(t *testing.T) {
	// Save original
	origOutput := defaultLogger.output
	origColor := defaultLogger.color
	defer func() {
		defaultLogger.output = origOutput
		defaultLogger.color = origColor
	}()

	var buf bytes.Buffer
	SetOutput(&buf)

	if defaultLogger.output != &buf {
		t.Error("SetOutput did not change output")
	}
	if defaultLogger.color {
		t.Error("a plain buffer should disable color")
	}

	Info("through the default logger")
	if !strings.Contains(buf.String(), "through the default logger") {
		t.Error("package-level Info should write to the configured output")
	}
}
