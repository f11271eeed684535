package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rto-receipt-reconciler/internal/matcher"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// ErrDuplicatePayment is returned by check-duplicate when a matching
// payment was logged inside the window.
var ErrDuplicatePayment = errors.New(errors.CategoryReconciliation, errors.CodeDuplicatePayment, "duplicate payment found").
	WithSuggestion("do not pay again; the earlier payment is shown above")

var candidate matcher.PaymentCandidate

// duplicateCmd represents the check-duplicate command
var duplicateCmd = &cobra.Command{
	Use:   "check-duplicate",
	Short: "Check whether a payment was already logged in the last few days",
	Long: `check-duplicate looks for a payment in the transaction log with the same
vehicle or chassis number, the same payment type and the same RTO and bank
amounts, logged within duplicate_window_days of now. It exits non-zero when
one is found so it can guard a payment script.

Examples:
  rtoreceipts check-duplicate --vehicle MH12AB1234 --payment-type Tax --rto-amount 4500 --bank-amount 4510
  rtoreceipts check-duplicate --chassis MA3EWDE1S00123456 --payment-type Permit --rto-amount 1000 --bank-amount 1010`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd, map[string]string{"transaction_log": "transactions"}); err != nil {
			return err
		}
		if candidate.VehicleNo == "" && candidate.ChassisNo == "" {
			return errors.ConfigurationError(errors.CodeMissingConfig, "vehicle", nil, nil).
				WithSuggestion("pass --vehicle or --chassis")
		}
		return nil
	},
	RunE: runCheckDuplicate,
}

func init() {
	rootCmd.AddCommand(duplicateCmd)

	duplicateCmd.Flags().StringP("transactions", "t", "", "transaction log to search")
	duplicateCmd.Flags().StringVar(&candidate.VehicleNo, "vehicle", "", "vehicle number of the new payment")
	duplicateCmd.Flags().StringVar(&candidate.ChassisNo, "chassis", "", "chassis number of the new payment")
	duplicateCmd.Flags().StringVar(&candidate.PaymentType, "payment-type", "", "payment type of the new payment")
	duplicateCmd.Flags().StringVar(&candidate.RTOAmount, "rto-amount", "", "RTO amount of the new payment")
	duplicateCmd.Flags().StringVar(&candidate.BankAmount, "bank-amount", "", "bank amount of the new payment")
}

func runCheckDuplicate(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if err := cfg.RequirePaths("transaction_log"); err != nil {
		return err
	}
	log := logger.GetGlobalLogger().WithComponent("check-duplicate")

	transactions, err := readTable(context.Background(), cfg.TransactionLog, "transaction_log")
	if err != nil {
		return err
	}

	matchingConfig := cfg.CreateMatchingConfig()
	engine, err := matcher.NewEngine(matchingConfig, log)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "matching", nil, err)
	}

	out := cmd.OutOrStdout()
	previous, err := engine.FindRecentDuplicate(transactions, candidate, time.Now())
	if err != nil {
		return err
	}
	if previous == nil {
		fmt.Fprintln(out, "No duplicate payment found")
		return nil
	}

	cols := matchingConfig.Transaction
	fmt.Fprintln(out, "Duplicate payment found:")
	for _, col := range []string{cols.Date, cols.VehicleNo, cols.ChassisNo, cols.PaymentType, cols.Amount, cols.BankAmount} {
		fmt.Fprintf(out, "  %-14s %s\n", col+":", previous[col])
	}
	return ErrDuplicatePayment
}
