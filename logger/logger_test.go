package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	apperrors "github.com/kbukum/lesstokens/errors"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "lesstokens", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "debug")
	l.Info("hello", Fields("provider", "openai"))

	m := decodeLine(t, &buf)
	if m["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", m["message"])
	}
	if m["provider"] != "openai" {
		t.Errorf("expected provider field, got %v", m["provider"])
	}
	if m["service"] != "lesstokens" {
		t.Errorf("expected service field, got %v", m["service"])
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "warn")
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug/info to be filtered, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn line, got %q", buf.String())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "invalid-level")
	l.Debug("hidden")
	l.Info("visible")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected fallback to info level, got %q", buf.String())
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("ignored", Fields("k", "v"))
	if OrNop(nil) == nil {
		t.Error("expected OrNop(nil) to return a logger")
	}
	if OrNop(l) != l {
		t.Error("expected OrNop to return the given logger")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	cl := jsonLogger(&buf, "info").WithComponent("compression")
	if cl.service != "lesstokens" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
	cl.Info("x")
	if decodeLine(t, &buf)[FieldComponent] != "compression" {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-123")
	jsonLogger(&buf, "info").WithContext(ctx).Info("x")

	if decodeLine(t, &buf)[FieldRequestID] != "req-123" {
		t.Errorf("expected request id field, got %q", buf.String())
	}
	if RequestIDFromContext(ctx) != "req-123" {
		t.Errorf("expected request id from context")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Errorf("expected empty request id")
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").
		WithFields(map[string]interface{}{"key": "value"}).
		WithError(fmt.Errorf("boom")).
		Error("failed")

	m := decodeLine(t, &buf)
	if m["key"] != "value" {
		t.Errorf("expected key field, got %v", m["key"])
	}
	if m["error"] != "boom" {
		t.Errorf("expected error field, got %v", m["error"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "lesstokens", &buf)
	l.Info("ready")
	out := buf.String()
	if !strings.Contains(out, "[LES][INF]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
	if !strings.Contains(out, "ready") {
		t.Errorf("expected message, got %q", out)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output 'stderr', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp to be enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"pretty", Config{Level: "debug", Format: "pretty"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
	if len(m) != 2 {
		t.Errorf("expected 2 fields, got %d", len(m))
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("compress", fmt.Errorf("bad"))
	if m[FieldOperation] != "compress" || m[FieldError] != "bad" {
		t.Errorf("unexpected fields %v", m)
	}
	if _, ok := m[FieldErrorCode]; ok {
		t.Error("plain errors carry no error code")
	}

	m = ErrorFields("compress", apperrors.Timeout("Request timeout after 30000ms"))
	if m[FieldErrorCode] != "TIMEOUT" {
		t.Errorf("expected TIMEOUT error code, got %v", m[FieldErrorCode])
	}
}

func TestFields_DropsDanglingKey(t *testing.T) {
	m := Fields("a", 1, 2, "ignored", "b")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("expected only a=1, got %v", m)
	}
}
