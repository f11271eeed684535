package pdftext

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractTextPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MV TAX 01.txt")
	if err := os.WriteFile(path, []byte("MV Tax\nGRN No: 42"), 0644); err != nil {
		t.Fatal(err)
	}

	text, err := New().ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "MV Tax\nGRN No: 42" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestExtractTextErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(broken, []byte("%PDF-1.4 truncated"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "absent.pdf")},
		{"corrupt pdf", broken},
		{"unsupported extension", filepath.Join(dir, "scan.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New().ExtractText(context.Background(), tt.path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExtractTextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().ExtractText(ctx, "any.pdf"); err == nil {
		t.Error("expected context error")
	}
}
