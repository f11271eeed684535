package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestReconcilerError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectMsg  string
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectMsg:  "file not found: no such file",
			expectCode: 2,
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeInvalidFormat,
			message:    "invalid format",
			expectMsg:  "invalid format",
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			expectMsg:  "invalid config",
			expectCode: 4,
		},
		{
			name:       "reconciliation error",
			category:   CategoryReconciliation,
			code:       CodeSchemaMismatch,
			message:    "bad columns",
			expectMsg:  "bad columns",
			expectCode: 5,
		},
		{
			name:       "extraction error",
			category:   CategoryExtraction,
			code:       CodeNoText,
			message:    "empty document",
			expectMsg:  "empty document",
			expectCode: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ReconcilerError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if err.Error() != tt.expectMsg {
				t.Errorf("expected error string %q, got %q", tt.expectMsg, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected a stack trace to be captured")
			}
		})
	}
}

func TestReconcilerErrorWithContext(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "test error").
		WithContext("file", "/path/to/file").
		WithContext("row", 42).
		WithSuggestion("check file path")

	if err.Context["file"] != "/path/to/file" {
		t.Errorf("expected file context '/path/to/file', got %v", err.Context["file"])
	}
	if err.Context["row"] != 42 {
		t.Errorf("expected row context 42, got %v", err.Context["row"])
	}

	expected := "test error (suggestion: check file path)"
	if err.Error() != expected {
		t.Errorf("expected error string '%s', got '%s'", expected, err.Error())
	}
}

func TestDocumentReadError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("malformed xref table")
		err := DocumentReadError("receipts/a.pdf", cause)

		if err.Category != CategoryExtraction || err.Code != CodeDocumentUnreadable {
			t.Errorf("unexpected category/code %s/%s", err.Category, err.Code)
		}
		if !errors.Is(err, cause) {
			t.Error("expected error chain to contain the cause")
		}
		if err.Context["file_path"] != "receipts/a.pdf" {
			t.Errorf("expected file_path context, got %v", err.Context["file_path"])
		}
	})

	t.Run("blank text", func(t *testing.T) {
		err := DocumentReadError("receipts/b.pdf", nil)
		if err.Code != CodeNoText {
			t.Errorf("expected no_text code, got %s", err.Code)
		}
		if !strings.Contains(err.Message, "no extractable text") {
			t.Errorf("unexpected message %q", err.Message)
		}
	})
}

func TestReconciliationSchemaError(t *testing.T) {
	err := ReconciliationSchemaError("transaction log", []string{"RTO Amount", "Chassis Number"})

	if err.GetExitCode() != 5 {
		t.Errorf("expected exit code 5, got %d", err.GetExitCode())
	}
	if !strings.Contains(err.Message, "Chassis Number, RTO Amount") {
		t.Errorf("expected sorted column names in message, got %q", err.Message)
	}
	if err.Context["dataset"] != "transaction log" {
		t.Errorf("expected dataset context, got %v", err.Context["dataset"])
	}
}

func TestSpecificErrorConstructors(t *testing.T) {
	t.Run("FileError", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := FileError(CodeFilePermission, "/test/log.xlsx", cause)

		if err.Category != CategoryFile {
			t.Errorf("expected file category, got %s", err.Category)
		}
		if err.Context["file_path"] != "/test/log.xlsx" {
			t.Errorf("expected file_path context, got %v", err.Context["file_path"])
		}
		if err.Suggestion == "" {
			t.Error("expected a suggestion")
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		err := ValidationError(CodeMissingField, "Vehicle No", nil, nil)
		if err.Category != CategoryValidation {
			t.Errorf("expected validation category, got %s", err.Category)
		}
		if err.Context["field"] != "Vehicle No" {
			t.Errorf("expected field context, got %v", err.Context["field"])
		}
	})

	t.Run("ConfigurationError", func(t *testing.T) {
		err := ConfigurationError(CodeMissingConfig, "transaction_log", "", nil)
		if err.GetExitCode() != 4 {
			t.Errorf("expected exit code 4, got %d", err.GetExitCode())
		}
	})

	t.Run("ParseError", func(t *testing.T) {
		err := ParseError(CodeMissingColumn, "log.csv", 0, "Amount", nil)
		if !strings.Contains(err.Message, "'Amount'") {
			t.Errorf("expected column in message, got %q", err.Message)
		}
	})
}

func TestErrorSummary(t *testing.T) {
	errs := []*ReconcilerError{
		DocumentReadError("a.pdf", nil),
		DocumentReadError("b.pdf", errors.New("bad")),
		FileError(CodeFileNotFound, "c.xlsx", nil),
	}

	summary := NewErrorSummary(errs)
	if summary.Total != 3 {
		t.Errorf("expected 3 errors, got %d", summary.Total)
	}
	if summary.ByCategory[CategoryExtraction] != 2 {
		t.Errorf("expected 2 extraction errors, got %d", summary.ByCategory[CategoryExtraction])
	}
	if !summary.HasCode(CodeNoText) {
		t.Error("expected summary to contain no_text")
	}
	if summary.GetExitCode() != 6 {
		t.Errorf("expected highest exit code 6, got %d", summary.GetExitCode())
	}
	if summary.Error() != "3 errors occurred (extraction: 2, file: 1)" {
		t.Errorf("unexpected summary message %q", summary.Error())
	}

	empty := NewErrorSummary(nil)
	if empty.GetExitCode() != 0 || empty.Error() != "no errors" {
		t.Errorf("unexpected empty summary: %d %q", empty.GetExitCode(), empty.Error())
	}
}

func TestWrapIfNeeded(t *testing.T) {
	original := FileError(CodeFileNotFound, "x.csv", nil)
	if got := WrapIfNeeded(original, CategoryInternal, CodeUnexpectedError, "boom"); got != original {
		t.Error("expected existing ReconcilerError to be returned unchanged")
	}

	plain := errors.New("plain")
	wrapped := WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "boom")
	if wrapped.Category != CategoryInternal || wrapped.Cause != plain {
		t.Errorf("unexpected wrap result %+v", wrapped)
	}

	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "boom") != nil {
		t.Error("expected nil for nil error")
	}
}
