package matcher

import (
	"fmt"

	"rto-receipt-reconciler/internal/models"
	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// Dataset names used in schema errors.
const (
	DatasetTransactions = "transaction log"
	DatasetSummary      = "receipt summary"
)

// Engine reconciles transactions against receipt summaries.
type Engine struct {
	Config *MatchingConfig
	logger logger.Logger
}

// MatchResult is the outcome for one transaction row.
type MatchResult struct {
	Transaction store.Row
	Status      Status
	Scenario    Scenario
	// Summary is the matched summary row, nil when Status is Missing.
	Summary store.Row
	// Excluded is set when the transaction amount could not be coerced.
	Excluded bool
}

// ReconciliationSummary provides aggregate statistics about the reconciliation
type ReconciliationSummary struct {
	TotalTransactions    int `json:"total_transactions"`
	TotalSummaryRows     int `json:"total_summary_rows"`
	Available            int `json:"available"`
	Missing              int `json:"missing"`
	MatchedByVehicle     int `json:"matched_by_vehicle"`
	MatchedByChassis     int `json:"matched_by_chassis"`
	ExcludedTransactions int `json:"excluded_transactions"`
	ExcludedSummaryRows  int `json:"excluded_summary_rows"`
}

// ReconciliationResult represents the complete result of a reconciliation run
type ReconciliationResult struct {
	Matches []*MatchResult
	Summary ReconciliationSummary

	transactionColumns []string
	summaryColumns     []string
}

// NewEngine creates an engine. A nil config uses DefaultMatchingConfig and a
// nil logger the global one.
func NewEngine(config *MatchingConfig, log logger.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "matching", config.String(), err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Engine{
		Config: config,
		logger: log.WithComponent("matcher"),
	}, nil
}

// Reconcile annotates every transaction with whether a receipt exists for it.
// A missing key column in either table aborts the run before any matching.
func (e *Engine) Reconcile(transactions, summary *store.Table) (*ReconciliationResult, error) {
	if transactions == nil || summary == nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, "reconcile", fmt.Errorf("both tables are required"))
	}
	if missing := transactions.MissingColumns(e.Config.Transaction.Keys()...); len(missing) > 0 {
		return nil, errors.ReconciliationSchemaError(DatasetTransactions, missing)
	}
	if missing := summary.MissingColumns(e.Config.Summary.Keys()...); len(missing) > 0 {
		return nil, errors.ReconciliationSchemaError(DatasetSummary, missing)
	}

	index := NewSummaryIndex(summary, e.Config.Summary, e.Config.DateLayouts)
	for _, pos := range index.Excluded {
		e.logger.WithFields(logger.Fields{
			"dataset": DatasetSummary,
			"row":     pos + 2,
			"value":   summary.Rows[pos][e.Config.Summary.Amount],
		}).Warn("Amount is not numeric; row excluded from matching")
	}
	e.logger.WithFields(logger.Fields(index.GetStats())).Debug("Summary index built")

	result := &ReconciliationResult{
		Matches:            make([]*MatchResult, 0, transactions.Len()),
		transactionColumns: transactions.Columns,
		summaryColumns:     summary.Columns,
	}
	result.Summary.TotalTransactions = transactions.Len()
	result.Summary.TotalSummaryRows = summary.Len()
	result.Summary.ExcludedSummaryRows = len(index.Excluded)

	for i, row := range transactions.Rows {
		match := e.matchRow(index, row)
		if match.Excluded {
			result.Summary.ExcludedTransactions++
			e.logger.WithFields(logger.Fields{
				"dataset": DatasetTransactions,
				"row":     i + 2,
				"value":   row[e.Config.Transaction.Amount],
			}).Warn("Amount is not numeric; row excluded from matching")
		}

		switch match.Scenario {
		case ScenarioVehicle:
			result.Summary.MatchedByVehicle++
		case ScenarioChassis:
			result.Summary.MatchedByChassis++
		}
		if match.Status == StatusAvailable {
			result.Summary.Available++
		} else {
			result.Summary.Missing++
		}

		result.Matches = append(result.Matches, match)
	}

	e.logger.WithFields(logger.Fields{
		"transactions": result.Summary.TotalTransactions,
		"available":    result.Summary.Available,
		"missing":      result.Summary.Missing,
	}).Info("Reconciliation complete")

	return result, nil
}

func (e *Engine) matchRow(index *SummaryIndex, row store.Row) *MatchResult {
	cols := e.Config.Transaction
	missing := &MatchResult{Transaction: row, Status: StatusMissing, Scenario: ScenarioNone}

	amount, err := models.ParseAmount(row[cols.Amount])
	if err != nil {
		missing.Excluded = true
		return missing
	}
	date, ok := models.NormalizeDate(row[cols.Date], e.Config.DateLayouts)
	if !ok {
		return missing
	}

	if entry := index.FindByVehicle(row[cols.VehicleNo], amount, date); entry != nil {
		return &MatchResult{Transaction: row, Status: StatusAvailable, Scenario: ScenarioVehicle, Summary: entry.Row}
	}
	if entry := index.FindByChassis(row[cols.ChassisNo], amount, date); entry != nil {
		return &MatchResult{Transaction: row, Status: StatusAvailable, Scenario: ScenarioChassis, Summary: entry.Row}
	}
	return missing
}

// Columns returns the report header: the two annotation columns, the
// transaction columns, then summary columns the transaction log lacks.
func (r *ReconciliationResult) Columns() []string {
	columns := []string{ColumnReceiptStatus, ColumnMatchScenario}
	seen := map[string]bool{ColumnReceiptStatus: true, ColumnMatchScenario: true}

	for _, group := range [][]string{r.transactionColumns, r.summaryColumns} {
		for _, col := range group {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	return columns
}

// ToTable flattens the result into the reconciliation report. Where a
// summary column shares a name with a transaction column, the matched
// summary value is written.
func (r *ReconciliationResult) ToTable() *store.Table {
	columns := r.Columns()
	t := store.NewTable(columns...)

	for _, m := range r.Matches {
		row := make(store.Row, len(columns))
		for _, col := range columns {
			row[col] = ""
		}
		for col, v := range m.Transaction {
			row[col] = v
		}
		for col, v := range m.Summary {
			row[col] = v
		}
		row[ColumnReceiptStatus] = m.Status.String()
		row[ColumnMatchScenario] = m.Scenario.String()
		t.AddRow(row)
	}
	return t
}

// String returns a one-line description of the summary
func (s ReconciliationSummary) String() string {
	return fmt.Sprintf("%d transactions: %d available (%d by vehicle, %d by chassis), %d missing",
		s.TotalTransactions, s.Available, s.MatchedByVehicle, s.MatchedByChassis, s.Missing)
}
