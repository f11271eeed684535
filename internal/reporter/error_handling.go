package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"rto-receipt-reconciler/internal/matcher"
	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with fallbacks for the two
// failures users actually hit: a summary format that cannot be rendered and
// a report workbook that is still open in a spreadsheet application.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", config, err).
			WithSuggestion("check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely writes the run summary, retrying in console format
// when the configured format fails.
func (srg *SafeReportGenerator) GenerateReportSafely(result *matcher.ReconciliationResult, writer io.Writer) error {
	if result == nil {
		return errors.ValidationError(errors.CodeMissingField, "result", nil, nil)
	}
	if writer == nil {
		return errors.ValidationError(errors.CodeMissingField, "writer", nil, nil)
	}

	err := srg.GenerateReport(result, writer)
	if err == nil || srg.config.Format == FormatConsole {
		return srg.wrapGenerationError(err)
	}

	srg.logger.WithError(err).WithField("fallback_format", FormatConsole).
		Warn("Report generation failed, falling back to console format")

	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole
	fallback := &ReportGenerator{config: &fallbackConfig, now: srg.now}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", err)

	if fbErr := fallback.GenerateReport(result, writer); fbErr != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", err, fbErr),
		)
	}
	return nil
}

// WriteTableSafely writes t to path. When the write fails it retries once
// at a timestamped sibling path and returns the path actually written.
func (srg *SafeReportGenerator) WriteTableSafely(ctx context.Context, s store.Writer, path string, t *store.Table) (string, error) {
	err := s.Write(ctx, path, t)
	if err == nil {
		srg.logger.WithFields(logger.Fields{"file": path, "rows": t.Len()}).Info("Report written")
		return path, nil
	}
	if ctx.Err() != nil {
		return "", errors.FileError(errors.CodeWriteFailed, path, err)
	}

	backupPath := generateBackupPath(path, srg.now())
	srg.logger.WithError(err).WithFields(logger.Fields{
		"original_file": path,
		"backup_file":   backupPath,
	}).Warn("Could not write report, attempting backup location")

	if backupErr := s.Write(ctx, backupPath, t); backupErr != nil {
		return "", errors.FileError(errors.CodeWriteFailed, path, err).
			WithContext("backup_file", backupPath).
			WithContext("backup_error", backupErr.Error())
	}

	fmt.Fprintf(os.Stderr, "Warning: Could not write to %s, report saved to %s\n", path, backupPath)
	return backupPath, nil
}

// generateBackupPath derives "<name>_<timestamp><ext>" next to the original.
func generateBackupPath(originalPath string, at time.Time) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]

	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", name, at.Format("20060102_150405"), ext))
}

func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if err == nil {
		return nil
	}
	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return errors.InternalError(errors.CodeProcessingError, "report generation", err).
		WithSuggestion("check the output destination and report format settings")
}
