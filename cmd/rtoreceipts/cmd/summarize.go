package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"rto-receipt-reconciler/internal/reporter"
	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/internal/summary"
	apperrors "rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Build the receipt summary from the extraction log",
	Long: `Summarize reduces the extraction log to the columns reconciliation needs:
Vehicle No, Chassis No, Transaction Date, Amount, Bank Ref No, Vehicle Class,
NP Auth No and Receipt No. Receipts that carry a Grand Total instead of an
Amount use it as the amount.

Examples:
  rtoreceipts summarize
  rtoreceipts summarize --log receipts.db --summary summary.csv`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd, map[string]string{
			"extraction_log": "log",
			"summary_file":   "summary",
		})
	},
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringP("log", "l", "", "extraction log to read")
	summarizeCmd.Flags().StringP("summary", "s", "", "summary file to write")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := appConfig
	if err := cfg.RequirePaths("extraction_log", "summary_file"); err != nil {
		return err
	}
	log := logger.GetGlobalLogger().WithComponent("summarize")

	extractionLog, err := readTable(ctx, cfg.ExtractionLog, "extraction_log")
	if err != nil {
		return err
	}

	summaryTable, stats, err := summary.NewSummarizer(log).Summarize(extractionLog)
	if err != nil {
		return err
	}

	summaryStore, err := reporter.SummaryStore(cfg.SummaryFile)
	if err != nil {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "summary_file", cfg.SummaryFile, err)
	}
	if err := reporter.WriteTable(ctx, summaryStore, cfg.SummaryFile, summaryTable); err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"file": cfg.SummaryFile,
		"rows": stats.Rows,
	}).Info("Summary written")
	fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s (%d rows, %d amounts taken from Grand Total, %d blank amounts)\n",
		cfg.SummaryFile, stats.Rows, stats.AmountFromGrandTotal, stats.NonNumericAmounts)
	return nil
}

// readTable loads a tabular file, mapping the common failures onto
// application errors that name the config key.
func readTable(ctx context.Context, path, key string) (*store.Table, error) {
	s, err := store.ForPath(path)
	if err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, key, path, err)
	}

	table, err := s.Read(ctx, path)
	switch {
	case err == nil:
		return table, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
	case errors.Is(err, fs.ErrPermission):
		return nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
	default:
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
	}
}
