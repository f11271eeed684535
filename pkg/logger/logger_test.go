package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(t *testing.T, format Format) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewLoggerWithWriter(&Config{Level: DebugLevel, Format: format, Output: StderrOutput, DisableTimestamp: true}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return l, &buf
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", *DefaultConfig(), false},
		{"debug", *DebugConfig(), false},
		{"bad level", Config{Level: "loud", Format: TextFormat, Output: StderrOutput}, true},
		{"bad format", Config{Level: InfoLevel, Format: "xml", Output: StderrOutput}, true},
		{"file without path", Config{Level: InfoLevel, Format: TextFormat, Output: FileOutput}, true},
		{"file with path", Config{Level: InfoLevel, Format: TextFormat, Output: FileOutput, File: "run.log"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWithFieldKeepsFields(t *testing.T) {
	l, buf := newBufferLogger(t, JSONFormat)

	l.WithComponent("batch").WithField("file", "a.pdf").Info("Parsed")

	out := buf.String()
	for _, want := range []string{`"component":"batch"`, `"file":"a.pdf"`, `"msg":"Parsed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got %s", want, out)
		}
	}
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t, TextFormat)

	l.WithError(errors.New("boom")).Warn("skipped")

	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected error text in output, got %s", buf.String())
	}
}

func TestProgressTracker(t *testing.T) {
	l, buf := newBufferLogger(t, TextFormat)

	p := NewProgressTracker(ProgressConfig{Operation: "extract", Total: 3, Logger: l, LogInterval: time.Hour})
	p.Succeeded()
	p.Failed()
	p.Succeeded()

	stats := p.Complete()
	if stats.Processed() != 3 || stats.Failed != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Percentage != 100 {
		t.Errorf("expected 100%%, got %.1f", stats.Percentage)
	}
	if !strings.Contains(buf.String(), "Operation completed") {
		t.Errorf("expected completion line, got %s", buf.String())
	}
}

func TestTimedOperation(t *testing.T) {
	l, buf := newBufferLogger(t, TextFormat)

	err := TimedOperation("summarize", l, func() error { return errors.New("no columns") })
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if !strings.Contains(buf.String(), "Operation failed") {
		t.Errorf("expected failure line, got %s", buf.String())
	}
}
