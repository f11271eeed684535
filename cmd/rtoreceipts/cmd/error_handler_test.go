package cmd

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rto-receipt-reconciler/pkg/errors"
)

func newTestHandler(out *bytes.Buffer, verbose bool) *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  discardLogger(),
		verbose: verbose,
		out:     out,
	}
}

func TestHandleErrorExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"file", errors.FileError(errors.CodeFileNotFound, "summary.xlsx", fs.ErrNotExist), 2},
		{"validation", errors.ValidationError(errors.CodeMissingField, "Amount", nil, nil), 3},
		{"configuration", errors.ConfigurationError(errors.CodeInvalidConfig, "workers", 0, nil), 4},
		{"reconciliation", errors.ReconciliationSchemaError("receipt summary", []string{"Amount"}), 5},
		{"extraction", errors.DocumentReadError("a.pdf", nil), 6},
		{"duplicate", ErrDuplicatePayment, 5},
		{"plain not found", fmt.Errorf("open x: %w", os.ErrNotExist), 2},
		{"plain", fmt.Errorf("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if got := newTestHandler(&out, false).HandleError(tt.err); got != tt.want {
				t.Errorf("expected exit code %d, got %d (output %q)", tt.want, got, out.String())
			}
		})
	}
}

func TestHandleErrorOutput(t *testing.T) {
	var out bytes.Buffer
	err := errors.ConfigurationError(errors.CodeInvalidConfig, "workers", 0, fmt.Errorf("must be positive")).
		WithContext("zeta", 1).
		WithContext("alpha", 2)

	newTestHandler(&out, true).HandleError(err)
	got := out.String()

	if !strings.HasPrefix(got, "Error: ") {
		t.Errorf("expected error line first, got:\n%s", got)
	}
	if strings.Index(got, "alpha") > strings.Index(got, "zeta") {
		t.Errorf("expected context keys sorted, got:\n%s", got)
	}
	if !strings.Contains(got, "RTORECEIPTS_") {
		t.Errorf("expected configuration help, got:\n%s", got)
	}
	if !strings.Contains(got, "Underlying error: must be positive") {
		t.Errorf("expected cause in verbose mode, got:\n%s", got)
	}
}

func TestHandleErrorSuggestsSimilarFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "summary_old.xlsx"), "x")

	var out bytes.Buffer
	missing := filepath.Join(dir, "summary.xlsx")
	newTestHandler(&out, false).HandleError(errors.FileError(errors.CodeFileNotFound, missing, fs.ErrNotExist))

	if !strings.Contains(out.String(), "summary_old.xlsx") {
		t.Errorf("expected similar file suggestion, got:\n%s", out.String())
	}
}

func TestFormatFileErrorPermission(t *testing.T) {
	msg := FormatFileError("/data/log.xlsx", fmt.Errorf("open: %w", fs.ErrPermission))

	if !strings.Contains(msg, "Error with file 'log.xlsx'") {
		t.Errorf("unexpected message:\n%s", msg)
	}
	if !strings.Contains(msg, "permissions") {
		t.Errorf("expected permission suggestion, got:\n%s", msg)
	}
}
