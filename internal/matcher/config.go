// Package matcher reconciles the transaction log against the receipt
// summary and answers duplicate-payment queries over the transaction log.
//
// Each transaction is looked up by vehicle registration first and by
// chassis number second. A lookup only succeeds when the amount and the
// calendar date agree as well:
//
//	engine, _ := matcher.NewEngine(matcher.DefaultMatchingConfig(), log)
//	result, err := engine.Reconcile(transactions, summary)
//	report := result.ToTable()
package matcher

import (
	"fmt"
	"strings"
	"time"

	"rto-receipt-reconciler/internal/models"
)

// Annotation columns placed at the front of the reconciliation report.
const (
	ColumnReceiptStatus = "Receipt from RTO Portal"
	ColumnMatchScenario = "Match Scenario"
)

// Status tells whether a transaction has a receipt on the portal.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusMissing   Status = "Missing"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Scenario names the key a match was made on.
type Scenario string

const (
	ScenarioVehicle Scenario = "Matched based on Vehicle No"
	ScenarioChassis Scenario = "Matched based on Chassis No"
	ScenarioNone    Scenario = "None"
)

// String returns the string representation of Scenario
func (s Scenario) String() string {
	return string(s)
}

// TransactionColumns maps the transaction log headers onto the roles the
// matcher needs. PaymentType and BankAmount are only read by the duplicate check.
type TransactionColumns struct {
	VehicleNo   string `mapstructure:"vehicle_no" json:"vehicle_no"`
	ChassisNo   string `mapstructure:"chassis_no" json:"chassis_no"`
	PaymentType string `mapstructure:"payment_type" json:"payment_type"`
	Amount      string `mapstructure:"amount" json:"amount"`
	BankAmount  string `mapstructure:"bank_amount" json:"bank_amount"`
	Date        string `mapstructure:"date" json:"date"`
}

// DefaultTransactionColumns returns the headers written by the OTP logger.
func DefaultTransactionColumns() TransactionColumns {
	return TransactionColumns{
		VehicleNo:   "Vehicle Reg. Number",
		ChassisNo:   "Chassis Number",
		PaymentType: "Payment Type",
		Amount:      "RTO Amount",
		BankAmount:  "Bank Amount",
		Date:        "Transaction Date",
	}
}

// Keys returns the columns reconciliation cannot run without.
func (c TransactionColumns) Keys() []string {
	return []string{c.VehicleNo, c.ChassisNo, c.Amount, c.Date}
}

// SummaryColumns maps the receipt summary headers onto matcher roles.
type SummaryColumns struct {
	VehicleNo string `mapstructure:"vehicle_no" json:"vehicle_no"`
	ChassisNo string `mapstructure:"chassis_no" json:"chassis_no"`
	Amount    string `mapstructure:"amount" json:"amount"`
	Date      string `mapstructure:"date" json:"date"`
}

// DefaultSummaryColumns returns the headers written by the summarizer.
func DefaultSummaryColumns() SummaryColumns {
	return SummaryColumns{
		VehicleNo: models.FieldVehicleNo,
		ChassisNo: models.FieldChassisNo,
		Amount:    models.FieldAmount,
		Date:      models.FieldTransactionDate,
	}
}

// Keys returns the columns reconciliation cannot run without.
func (c SummaryColumns) Keys() []string {
	return []string{c.VehicleNo, c.ChassisNo, c.Amount, c.Date}
}

// MatchingConfig holds the column mapping and date layouts used by the engine.
type MatchingConfig struct {
	Transaction TransactionColumns `json:"transaction_columns"`
	Summary     SummaryColumns     `json:"summary_columns"`

	// DateLayouts are tried in order; the first that parses wins.
	DateLayouts []string `json:"date_layouts"`

	// DuplicateWindow bounds how far back the duplicate check looks.
	DuplicateWindow time.Duration `json:"duplicate_window"`
}

// DefaultMatchingConfig returns the configuration matching the files the
// pipeline writes itself.
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Transaction:     DefaultTransactionColumns(),
		Summary:         DefaultSummaryColumns(),
		DateLayouts:     append([]string(nil), models.DefaultDateLayouts...),
		DuplicateWindow: 4 * 24 * time.Hour,
	}
}

// Validate checks the configuration for consistency
func (c *MatchingConfig) Validate() error {
	named := []struct{ setting, column string }{
		{"transaction_columns.vehicle_no", c.Transaction.VehicleNo},
		{"transaction_columns.chassis_no", c.Transaction.ChassisNo},
		{"transaction_columns.payment_type", c.Transaction.PaymentType},
		{"transaction_columns.amount", c.Transaction.Amount},
		{"transaction_columns.bank_amount", c.Transaction.BankAmount},
		{"transaction_columns.date", c.Transaction.Date},
		{"summary_columns.vehicle_no", c.Summary.VehicleNo},
		{"summary_columns.chassis_no", c.Summary.ChassisNo},
		{"summary_columns.amount", c.Summary.Amount},
		{"summary_columns.date", c.Summary.Date},
	}
	for _, n := range named {
		if strings.TrimSpace(n.column) == "" {
			return fmt.Errorf("%s cannot be empty", n.setting)
		}
	}

	if len(c.DateLayouts) == 0 {
		return fmt.Errorf("at least one date layout is required")
	}

	if c.DuplicateWindow <= 0 {
		return fmt.Errorf("duplicate window must be positive, got %s", c.DuplicateWindow)
	}

	return nil
}

// String returns a string representation of the configuration
func (c *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{Vehicle: %s/%s, Chassis: %s/%s, Amount: %s/%s, Date: %s/%s, Layouts: %d}",
		c.Transaction.VehicleNo, c.Summary.VehicleNo,
		c.Transaction.ChassisNo, c.Summary.ChassisNo,
		c.Transaction.Amount, c.Summary.Amount,
		c.Transaction.Date, c.Summary.Date,
		len(c.DateLayouts))
}
