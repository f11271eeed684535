package matcher

import (
	"testing"
	"time"

	"rto-receipt-reconciler/internal/store"
)

func loggedTx(at time.Time, vehicle, chassis, paymentType, rto, bank string) store.Row {
	return store.Row{
		"Transaction Date":    at.Format(LoggedTimeFormat),
		"Vehicle Reg. Number": vehicle,
		"Chassis Number":      chassis,
		"Owner Name":          "S Kulkarni",
		"Payment Type":        paymentType,
		"RTO Amount":          rto,
		"Bank Amount":         bank,
	}
}

func TestFindRecentDuplicate(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	log := txTable(
		loggedTx(now.Add(-6*24*time.Hour), "MH12AB1234", "MAT1", "Tax", "4500", "4510"),
		loggedTx(now.Add(-2*time.Hour), "MH12AB1234", "MAT1", "Tax", "4500", "4510"),
		loggedTx(now.Add(-24*time.Hour), "", "MAT777", "Permit", "1200.004", "1210"),
	)

	tests := []struct {
		name      string
		candidate PaymentCandidate
		want      bool
	}{
		{"vehicle within window", PaymentCandidate{VehicleNo: "MH12AB1234", PaymentType: " TAX ", RTOAmount: "4500", BankAmount: "4510"}, true},
		{"chassis only", PaymentCandidate{ChassisNo: "MAT777", PaymentType: "permit", RTOAmount: "1200", BankAmount: "1210.00"}, true},
		{"payment type differs", PaymentCandidate{VehicleNo: "MH12AB1234", PaymentType: "Permit", RTOAmount: "4500", BankAmount: "4510"}, false},
		{"bank amount differs", PaymentCandidate{VehicleNo: "MH12AB1234", PaymentType: "Tax", RTOAmount: "4500", BankAmount: "4511"}, false},
		{"identifiers differ", PaymentCandidate{VehicleNo: "MH12XX0000", ChassisNo: "MAT9", PaymentType: "Tax", RTOAmount: "4500", BankAmount: "4510"}, false},
		{"no identifiers", PaymentCandidate{PaymentType: "Tax", RTOAmount: "4500", BankAmount: "4510"}, false},
		{"non-numeric amount", PaymentCandidate{VehicleNo: "MH12AB1234", PaymentType: "Tax", RTOAmount: "n/a", BankAmount: "4510"}, false},
	}

	engine := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := engine.FindRecentDuplicate(log, tt.candidate, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := row != nil; got != tt.want {
				t.Errorf("expected duplicate=%v, got %v (%v)", tt.want, got, row)
			}
		})
	}
}

func TestFindRecentDuplicateIgnoresOldRows(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	log := txTable(
		loggedTx(now.Add(-5*24*time.Hour), "MH12AB1234", "", "Tax", "4500", "4510"),
		store.Row{"Transaction Date": "10-03-2025", "Vehicle Reg. Number": "MH12AB1234", "Payment Type": "Tax", "RTO Amount": "4500", "Bank Amount": "4510"},
	)

	row, err := newTestEngine(t).FindRecentDuplicate(log, PaymentCandidate{
		VehicleNo: "MH12AB1234", PaymentType: "Tax", RTOAmount: "4500", BankAmount: "4510",
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row != nil {
		t.Errorf("expected rows outside the window or with unreadable timestamps to be ignored, got %v", row)
	}
}

func TestFindRecentDuplicateMissingColumns(t *testing.T) {
	log := store.NewTable("Transaction Date", "Vehicle Reg. Number")
	if _, err := newTestEngine(t).FindRecentDuplicate(log, PaymentCandidate{VehicleNo: "X"}, time.Now()); err == nil {
		t.Error("expected schema error")
	}
}
