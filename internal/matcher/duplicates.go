package matcher

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rto-receipt-reconciler/internal/models"
	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// LoggedTimeFormat is how the OTP logger writes the transaction timestamp.
const LoggedTimeFormat = "2006-01-02 15:04:05"

var amountTolerance = decimal.NewFromFloat(0.01)

// PaymentCandidate describes a payment about to be made.
type PaymentCandidate struct {
	VehicleNo   string `json:"vehicle_no"`
	ChassisNo   string `json:"chassis_no"`
	PaymentType string `json:"payment_type"`
	RTOAmount   string `json:"rto_amount"`
	BankAmount  string `json:"bank_amount"`
}

func (c PaymentCandidate) identifiers() (vehicle, chassis string) {
	return strings.TrimSpace(c.VehicleNo), strings.TrimSpace(c.ChassisNo)
}

// FindRecentDuplicate returns the first transaction logged within the
// duplicate window before now that matches the candidate on vehicle or
// chassis, payment type and both amounts. It returns nil when there is
// none, when the candidate carries no identifier, or when either candidate
// amount is not a number.
func (e *Engine) FindRecentDuplicate(transactions *store.Table, candidate PaymentCandidate, now time.Time) (store.Row, error) {
	cols := e.Config.Transaction
	required := []string{cols.Date, cols.VehicleNo, cols.ChassisNo, cols.PaymentType, cols.Amount, cols.BankAmount}
	if missing := transactions.MissingColumns(required...); len(missing) > 0 {
		return nil, errors.ReconciliationSchemaError(DatasetTransactions, missing)
	}

	vehicle, chassis := candidate.identifiers()
	if vehicle == "" && chassis == "" {
		return nil, nil
	}
	rtoAmount, err := models.ParseAmount(candidate.RTOAmount)
	if err != nil {
		return nil, nil
	}
	bankAmount, err := models.ParseAmount(candidate.BankAmount)
	if err != nil {
		return nil, nil
	}
	paymentType := strings.ToLower(strings.TrimSpace(candidate.PaymentType))
	cutoff := now.Add(-e.Config.DuplicateWindow)

	for _, row := range transactions.Rows {
		logged, err := time.ParseInLocation(LoggedTimeFormat, strings.TrimSpace(row[cols.Date]), now.Location())
		if err != nil || logged.Before(cutoff) {
			continue
		}

		sameVehicle := vehicle != "" && strings.TrimSpace(row[cols.VehicleNo]) == vehicle
		sameChassis := chassis != "" && strings.TrimSpace(row[cols.ChassisNo]) == chassis
		if !sameVehicle && !sameChassis {
			continue
		}
		if strings.ToLower(strings.TrimSpace(row[cols.PaymentType])) != paymentType {
			continue
		}
		if !withinTolerance(row[cols.Amount], rtoAmount) || !withinTolerance(row[cols.BankAmount], bankAmount) {
			continue
		}

		e.logger.WithFields(logger.Fields{
			"vehicle": vehicle,
			"chassis": chassis,
			"logged":  row[cols.Date],
		}).Warn("Duplicate payment found in transaction log")
		return row, nil
	}
	return nil, nil
}

func withinTolerance(value string, want decimal.Decimal) bool {
	got, err := models.ParseAmount(value)
	if err != nil {
		return false
	}
	return got.Sub(want).Abs().LessThan(amountTolerance)
}
