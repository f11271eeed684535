package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rto-receipt-reconciler/internal/matcher"
	"rto-receipt-reconciler/internal/reporter"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

var reconcileOutputFile string

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check the transaction log against the receipt summary",
	Long: `Reconcile looks up every payment in the transaction log in the receipt
summary. A payment is Available when a receipt has the same vehicle number
(or, failing that, the same chassis number), the same amount and the same
date; otherwise it is Missing.

The report workbook has the transaction columns, the matched receipt's
columns, "Receipt from RTO Portal" and "Match Scenario", with Missing rows
highlighted.

Examples:
  rtoreceipts reconcile
  rtoreceipts reconcile --transactions OTP_transaction_list.csv --summary summary.csv
  rtoreceipts reconcile --report result.xlsx --output-format json --output-file run.json`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd, map[string]string{
			"transaction_log": "transactions",
			"summary_file":    "summary",
			"report_file":     "report",
		})
	},
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringP("transactions", "t", "", "transaction log to check")
	reconcileCmd.Flags().StringP("summary", "s", "", "receipt summary produced by summarize")
	reconcileCmd.Flags().StringP("report", "r", "", "reconciliation workbook to write")
	reconcileCmd.Flags().StringVarP(&reconcileOutputFile, "output-file", "o", "", "run summary destination (default: stdout)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := appConfig
	if err := cfg.RequirePaths("transaction_log", "summary_file", "report_file"); err != nil {
		return err
	}

	log := logger.GetGlobalLogger().WithComponent("reconcile")
	opLog := logger.NewOperationLogger("reconcile", log).
		WithField("transactions", cfg.TransactionLog).
		WithField("summary", cfg.SummaryFile)

	reportStore, err := reporter.ReportStore(cfg.ReportFile)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "report_file", cfg.ReportFile, err)
	}
	generator, err := reporter.NewSafeReportGenerator(cfg.CreateReportConfig(cfg.OutputFormat), log)
	if err != nil {
		return err
	}

	opLog.Step("loading inputs")
	transactions, err := readTable(ctx, cfg.TransactionLog, "transaction_log")
	if err != nil {
		return err
	}
	summaryTable, err := readTable(ctx, cfg.SummaryFile, "summary_file")
	if err != nil {
		return err
	}

	engine, err := matcher.NewEngine(cfg.CreateMatchingConfig(), log)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "matching", nil, err)
	}

	opLog.Step("matching transactions")
	result, err := engine.Reconcile(transactions, summaryTable)
	if err != nil {
		opLog.Error(err, "Reconciliation failed")
		return err
	}

	opLog.Step("writing report")
	written, err := generator.WriteTableSafely(ctx, reportStore, cfg.ReportFile, result.ToTable())
	if err != nil {
		opLog.Error(err, "Could not write reconciliation report")
		return err
	}

	out, closeOut, err := openOutput(cmd, reconcileOutputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := generator.GenerateReportSafely(result, out); err != nil {
		return err
	}

	opLog.WithField("report", written).Success(result.Summary.String())
	return nil
}

// openOutput returns the destination for a run summary: the named file, or
// the command's stdout when name is empty.
func openOutput(cmd *cobra.Command, name string) (io.Writer, func(), error) {
	if name == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, nil, errors.FileError(errors.CodeDirectoryError, filepath.Dir(name), err)
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeWriteFailed, name, err)
	}
	return f, func() { _ = f.Close() }, nil
}
