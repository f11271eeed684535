package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// CLIErrorHandler turns command errors into messages and exit codes.
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
	out     io.Writer
}

// NewCLIErrorHandler creates a handler that writes to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		out:     os.Stderr,
	}
}

// HandleError prints err and returns the process exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return h.handleReconcilerError(reconcilerErr)
	}
	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleReconcilerError(err *errors.ReconcilerError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	if path, ok := err.Context["file_path"].(string); ok && err.Code == errors.CodeFileNotFound && err.Cause != nil {
		fmt.Fprintf(h.out, "\n%s", FormatFileError(path, err.Cause))
	}

	if help := categoryHelp(err.Category); help != "" {
		fmt.Fprintf(h.out, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	switch {
	case isFileNotFoundError(err):
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	case isPermissionError(err):
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	case isDiskFullError(err):
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	return 1
}

func categoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check that the file exists and is readable
• Logs and summaries may be .xlsx, .csv or .db files
• Close the workbook in Excel before writing to it`

	case errors.CategoryValidation:
		return `Validation error help:
• Run 'rtoreceipts summarize' on a log produced by 'rtoreceipts extract'
• Check that the log still has its original column headers`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and the --config file
• Environment variables use the RTORECEIPTS_ prefix
• Use 'rtoreceipts <command> --help' to see the available options`

	case errors.CategoryExtraction:
		return `Extraction error help:
• Scanned receipts without a text layer cannot be read
• Re-download the receipt from the RTO portal if the file is damaged`

	case errors.CategoryReconciliation:
		return `Reconciliation error help:
• The transaction log needs Vehicle No, Chassis No, Amount and Date columns
• The summary needs Vehicle No, Chassis No, Amount and Transaction Date columns
• Column names can be remapped with transaction_columns and summary_columns`

	case errors.CategoryInternal:
		return `This looks like a bug. Re-run with --verbose and report the output.`
	}
	return ""
}

func isFileNotFoundError(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist) || strings.Contains(err.Error(), "no such file or directory")
}

func isPermissionError(err error) bool {
	return stderrors.Is(err, fs.ErrPermission) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full")
}

// FormatFileError describes a file problem and lists similarly named files
// next to it when the file is missing.
func FormatFileError(filePath string, err error) string {
	baseName := filepath.Base(filePath)
	dir := filepath.Dir(filePath)

	var message strings.Builder
	message.WriteString(fmt.Sprintf("Error with file '%s':\n", baseName))
	message.WriteString(fmt.Sprintf("  Path: %s\n", filePath))
	message.WriteString(fmt.Sprintf("  Error: %v\n", err))

	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		message.WriteString("  Suggestion: Check if the file exists in the specified location\n")

		prefix := strings.ToLower(baseName[:min(len(baseName), 3)])
		if entries, dirErr := os.ReadDir(dir); dirErr == nil {
			var similar []string
			for _, entry := range entries {
				if !entry.IsDir() && strings.Contains(strings.ToLower(entry.Name()), prefix) {
					similar = append(similar, entry.Name())
				}
			}
			if len(similar) > 0 {
				message.WriteString("  Similar files found:\n")
				for _, name := range similar[:min(len(similar), 3)] {
					message.WriteString(fmt.Sprintf("    - %s\n", name))
				}
			}
		}
	case stderrors.Is(err, fs.ErrPermission):
		message.WriteString("  Suggestion: Check file permissions - you may need read access\n")
	}

	return message.String()
}

// ShowProgressError reports how far a batch got before it stopped.
func ShowProgressError(operation string, processed, total int64, err error) {
	fmt.Fprintf(os.Stderr, "\nOperation '%s' stopped after processing %d", operation, processed)
	if total > 0 {
		percentage := float64(processed) / float64(total) * 100
		fmt.Fprintf(os.Stderr, "/%d documents (%.1f%%)", total, percentage)
	}
	fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	fmt.Fprintf(os.Stderr, "\nNothing was written to the extraction log. Run extract again to process the folder.\n")
}
