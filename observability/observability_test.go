package observability

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func TestFields(t *testing.T) {
	if f := String("k", "v"); f.Key() != "k" || f.Value() != "v" {
		t.Fatalf("unexpected string field: %s=%v", f.Key(), f.Value())
	}
	if f := Int("n", 3); f.Value() != 3 {
		t.Fatalf("unexpected int field value: %v", f.Value())
	}
	if f := Float64("elapsed_s", 1.5); f.Value() != 1.5 {
		t.Fatalf("unexpected float64 field value: %v", f.Value())
	}
	err := errors.New("boom")
	if f := Error("err", err); f.Value() != err {
		t.Fatalf("unexpected error field value: %v", f.Value())
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Info("ignored", String("k", "v"))
	if _, ok := l.With(Int("n", 1)).(NopLogger); !ok {
		t.Fatalf("With() should return a NopLogger")
	}
}

func TestStdLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := &StdLogger{l: log.New(&buf, "", 0)}
	l.With(String("component", "omr")).Warn("snapped", String("from", "5/4"))
	line := buf.String()
	if !strings.Contains(line, "WARN snapped") {
		t.Fatalf("missing level/message: %q", line)
	}
	if !strings.Contains(line, "component=omr") || !strings.Contains(line, "from=5/4") {
		t.Fatalf("missing fields: %q", line)
	}
}
