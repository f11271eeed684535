package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rto-receipt-reconciler/internal/batch"
	"rto-receipt-reconciler/internal/pdftext"
	"rto-receipt-reconciler/internal/reporter"
	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract fields from a folder of RTO receipts into the extraction log",
	Long: `Extract reads every receipt in a folder, recognises its template, pulls
out the template's fields and appends one row per receipt to the extraction
log. Fields that could not be found are written as NOT FOUND and listed in
the Missing Fields column. Receipts without readable text are reported and
skipped.

The log format follows the file extension: .xlsx, .csv or .db (SQLite).

Examples:
  rtoreceipts extract --dir receipts
  rtoreceipts extract --dir receipts --log receipts.db --workers 8
  rtoreceipts extract --dir exported_text --include-text --output-format json`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd, map[string]string{
			"documents_dir":      "dir",
			"extraction_log":     "log",
			"workers":            "workers",
			"include_text_files": "include-text",
		})
	},
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("dir", "d", "", "folder containing receipt PDFs")
	extractCmd.Flags().StringP("log", "l", "", "extraction log to append to")
	extractCmd.Flags().IntP("workers", "w", 0, "number of receipts read in parallel")
	extractCmd.Flags().Bool("include-text", false, "also read .txt files holding already extracted text")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appConfig
	if err := cfg.RequirePaths("documents_dir", "extraction_log"); err != nil {
		return err
	}

	log := logger.GetGlobalLogger().WithComponent("extract")
	opLog := logger.NewOperationLogger("extract", log).
		WithField("dir", cfg.DocumentsDir).
		WithField("log", cfg.ExtractionLog)

	logStore, err := store.ForPath(cfg.ExtractionLog)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "extraction_log", cfg.ExtractionLog, err)
	}

	processor, err := batch.NewProcessor(cfg.CreateBatchConfig(), pdftext.New(), log)
	if err != nil {
		return err
	}

	opLog.Step("reading receipts")
	result, err := processor.ProcessDirectory(ctx, cfg.DocumentsDir)
	if err != nil {
		if result != nil {
			ShowProgressError("extract", result.Stats.Processed(), result.Stats.Total, err)
		}
		opLog.Error(err, "Extraction aborted before the log was written")
		return err
	}

	if len(result.Failures) > 0 {
		opLog.Warning(errors.NewErrorSummary(result.Failures).Error())
	}

	opLog.Step("writing extraction log")
	merged, err := batch.Persist(ctx, logStore, cfg.ExtractionLog, result.Records, time.Now())
	if err != nil {
		opLog.Error(err, "Could not write extraction log")
		return err
	}
	if merged == nil {
		opLog.Warning("No receipts could be read; extraction log left unchanged")
	} else {
		log.WithField("rows", merged.Len()).Infof("Extraction log now holds %d rows", merged.Len())
	}

	generator, err := reporter.NewReportGenerator(cfg.CreateReportConfig(cfg.OutputFormat))
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output_format", cfg.OutputFormat, err)
	}
	if err := generator.GenerateExtractionReport(result, cmd.OutOrStdout()); err != nil {
		return errors.InternalError(errors.CodeProcessingError, "extraction report", err)
	}

	opLog.Success(result.Stats.String())
	return nil
}
