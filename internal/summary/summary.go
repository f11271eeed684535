// Package summary condenses the extraction log into the receipt summary
// used as the reference side of reconciliation.
package summary

import (
	"strings"

	"rto-receipt-reconciler/internal/models"
	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// Fields are the summary columns, in output order.
var Fields = []string{
	models.FieldVehicleNo,
	models.FieldChassisNo,
	models.FieldTransactionDate,
	models.FieldAmount,
	models.FieldBankRefNo,
	models.FieldVehicleClass,
	models.FieldNPAuthNo,
	models.FieldReceiptNo,
}

// Stats describes what a summarize pass had to repair.
type Stats struct {
	Rows                 int `json:"rows"`
	AmountFromGrandTotal int `json:"amount_from_grand_total"`
	NonNumericAmounts    int `json:"non_numeric_amounts"`
}

// Summarizer builds summary tables from extraction logs.
type Summarizer struct {
	logger logger.Logger
}

// NewSummarizer creates a summarizer. A nil logger uses the global one.
func NewSummarizer(log logger.Logger) *Summarizer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Summarizer{logger: log.WithComponent("summary")}
}

func isBlankAmount(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == models.NotFound
}

// Summarize projects the log onto Fields. Templates without an Amount take
// it from Grand Total, and Amount is reduced to a plain number or left blank.
// A log lacking any summary column is rejected outright.
func (s *Summarizer) Summarize(log *store.Table) (*store.Table, Stats, error) {
	var stats Stats

	if missing := log.MissingColumns(Fields...); len(missing) > 0 {
		return nil, stats, errors.ValidationError(errors.CodeMissingField, strings.Join(missing, ", "), nil, nil).
			WithContext("missing_columns", missing)
	}
	hasGrandTotal := log.HasColumn(models.FieldGrandTotal)

	out := store.NewTable(Fields...)
	for _, row := range log.Rows {
		summaryRow := make(store.Row, len(Fields))
		for _, field := range Fields {
			summaryRow[field] = row[field]
		}

		amount := summaryRow[models.FieldAmount]
		if isBlankAmount(amount) && hasGrandTotal {
			amount = row[models.FieldGrandTotal]
			stats.AmountFromGrandTotal++
		}

		if d, err := models.ParseAmount(amount); err == nil {
			summaryRow[models.FieldAmount] = d.String()
		} else {
			if !isBlankAmount(amount) {
				s.logger.WithField("file", row[models.ColumnFileName]).
					Warnf("Amount %q is not numeric; left blank", amount)
			}
			summaryRow[models.FieldAmount] = ""
			stats.NonNumericAmounts++
		}

		out.AddRow(summaryRow)
	}
	stats.Rows = out.Len()

	s.logger.WithFields(logger.Fields{
		"rows":                    stats.Rows,
		"amount_from_grand_total": stats.AmountFromGrandTotal,
		"non_numeric_amounts":     stats.NonNumericAmounts,
	}).Info("Summary built")

	return out, stats, nil
}
