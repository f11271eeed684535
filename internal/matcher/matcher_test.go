package matcher

import (
	"testing"

	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/pkg/errors"
)

var txColumns = []string{"Transaction Date", "Vehicle Reg. Number", "Chassis Number", "Owner Name", "Payment Type", "RTO Amount", "Bank Amount"}

func txTable(rows ...store.Row) *store.Table {
	t := store.NewTable(txColumns...)
	for _, r := range rows {
		t.AddRow(r)
	}
	return t
}

func summaryTable(rows ...store.Row) *store.Table {
	t := store.NewTable("Vehicle No", "Chassis No", "Transaction Date", "Amount", "Bank Ref No", "Receipt No")
	for _, r := range rows {
		t.AddRow(r)
	}
	return t
}

func tx(vehicle, chassis, amount, date string) store.Row {
	return store.Row{
		"Transaction Date": date, "Vehicle Reg. Number": vehicle, "Chassis Number": chassis,
		"Owner Name": "R Patil", "Payment Type": "Tax", "RTO Amount": amount, "Bank Amount": amount,
	}
}

func receipt(vehicle, chassis, amount, date, receiptNo string) store.Row {
	return store.Row{
		"Vehicle No": vehicle, "Chassis No": chassis, "Transaction Date": date,
		"Amount": amount, "Bank Ref No": "BR" + receiptNo, "Receipt No": receiptNo,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(nil, nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

func TestReconcile_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		transaction  store.Row
		summary      []store.Row
		wantStatus   Status
		wantScenario Scenario
		wantReceipt  string
	}{
		{
			name:         "vehicle match",
			transaction:  tx("MH12AB1234", "X", "500", "01-06-2024"),
			summary:      []store.Row{receipt("MH12AB1234", "Y", "500", "01-06-2024", "R1")},
			wantStatus:   StatusAvailable,
			wantScenario: ScenarioVehicle,
			wantReceipt:  "R1",
		},
		{
			name:         "chassis fallback",
			transaction:  tx("MH12AB1234", "MAT123", "500", "01-06-2024"),
			summary:      []store.Row{receipt("MH99ZZ0000", "MAT123", "500", "01-06-2024", "R2")},
			wantStatus:   StatusAvailable,
			wantScenario: ScenarioChassis,
			wantReceipt:  "R2",
		},
		{
			name:        "amount differs",
			transaction: tx("MH12AB1234", "MAT123", "500", "01-06-2024"),
			summary:     []store.Row{receipt("MH12AB1234", "MAT123", "501", "01-06-2024", "R3")},
			wantStatus:  StatusMissing, wantScenario: ScenarioNone,
		},
		{
			name:        "date differs",
			transaction: tx("MH12AB1234", "MAT123", "500", "01-06-2024"),
			summary:     []store.Row{receipt("MH12AB1234", "MAT123", "500", "02-06-2024", "R4")},
			wantStatus:  StatusMissing, wantScenario: ScenarioNone,
		},
		{
			name:         "date formats are interchangeable",
			transaction:  tx("MH12AB1234", "X", "500", "2024-06-01 18:42:10"),
			summary:      []store.Row{receipt("MH12AB1234", "Y", "500.00", "01-Jun-2024 10:15 AM", "R5")},
			wantStatus:   StatusAvailable,
			wantScenario: ScenarioVehicle,
			wantReceipt:  "R5",
		},
		{
			name:         "unpadded transaction date",
			transaction:  tx("MH12AB1234", "X", "500", "1-6-2024"),
			summary:      []store.Row{receipt("MH12AB1234", "X", "500", "01-06-2024", "R12")},
			wantStatus:   StatusAvailable,
			wantScenario: ScenarioVehicle,
			wantReceipt:  "R12",
		},
		{
			name:        "unparseable dates never match",
			transaction: tx("MH12AB1234", "X", "500", "not-a-date"),
			summary:     []store.Row{receipt("MH12AB1234", "X", "500", "not-a-date", "R6")},
			wantStatus:  StatusMissing, wantScenario: ScenarioNone,
		},
		{
			name:        "NOT FOUND summary amount never matches",
			transaction: tx("MH12AB1234", "X", "500", "01-06-2024"),
			summary:     []store.Row{receipt("MH12AB1234", "X", "NOT FOUND", "01-06-2024", "R7")},
			wantStatus:  StatusMissing, wantScenario: ScenarioNone,
		},
		{
			name:        "sentinel keys never match",
			transaction: tx("NOT FOUND", "NOT FOUND", "500", "01-06-2024"),
			summary:     []store.Row{receipt("NOT FOUND", "NOT FOUND", "500", "01-06-2024", "R8")},
			wantStatus:  StatusMissing, wantScenario: ScenarioNone,
		},
		{
			name:        "blank keys never match",
			transaction: tx("", " ", "500", "01-06-2024"),
			summary:     []store.Row{receipt("", "", "500", "01-06-2024", "R9")},
			wantStatus:  StatusMissing, wantScenario: ScenarioNone,
		},
		{
			name:        "non-numeric transaction amount",
			transaction: tx("MH12AB1234", "X", "five hundred", "01-06-2024"),
			summary:     []store.Row{receipt("MH12AB1234", "X", "500", "01-06-2024", "R10")},
			wantStatus:  StatusMissing, wantScenario: ScenarioNone,
		},
		{
			name:        "thousands separators",
			transaction: tx("MH12AB1234", "X", "1,500", "01-06-2024"),
			summary:     []store.Row{receipt("MH12AB1234", "X", "1500", "01-06-2024", "R11")},
			wantStatus:  StatusAvailable, wantScenario: ScenarioVehicle, wantReceipt: "R11",
		},
	}

	engine := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Reconcile(txTable(tt.transaction), summaryTable(tt.summary...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Matches) != 1 {
				t.Fatalf("expected 1 result row, got %d", len(result.Matches))
			}

			m := result.Matches[0]
			if m.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, m.Status)
			}
			if m.Scenario != tt.wantScenario {
				t.Errorf("expected scenario %q, got %q", tt.wantScenario, m.Scenario)
			}
			if tt.wantReceipt != "" && m.Summary["Receipt No"] != tt.wantReceipt {
				t.Errorf("expected receipt %s, got %v", tt.wantReceipt, m.Summary)
			}
			if tt.wantStatus == StatusMissing && m.Summary != nil {
				t.Errorf("expected no summary row for a missing transaction, got %v", m.Summary)
			}
		})
	}
}

func TestReconcile_VehicleBeatsChassis(t *testing.T) {
	engine := newTestEngine(t)

	summary := summaryTable(
		receipt("OTHER", "MAT123", "500", "01-06-2024", "chassis-first"),
		receipt("MH12AB1234", "MAT999", "500", "01-06-2024", "vehicle"),
	)
	result, err := engine.Reconcile(txTable(tx("MH12AB1234", "MAT123", "500", "01-06-2024")), summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := result.Matches[0]
	if m.Scenario != ScenarioVehicle || m.Summary["Receipt No"] != "vehicle" {
		t.Errorf("expected vehicle strategy to win, got %s with %v", m.Scenario, m.Summary["Receipt No"])
	}
}

func TestReconcile_FirstSummaryRowWins(t *testing.T) {
	engine := newTestEngine(t)

	summary := summaryTable(
		receipt("MH12AB1234", "X", "500", "01-06-2024", "first"),
		receipt("MH12AB1234", "X", "500", "01-06-2024", "second"),
	)
	result, err := engine.Reconcile(txTable(
		tx("MH12AB1234", "X", "500", "01-06-2024"),
		tx("MH12AB1234", "X", "500", "01-06-2024"),
	), summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, m := range result.Matches {
		if m.Summary["Receipt No"] != "first" {
			t.Errorf("row %d: expected first summary row, got %s", i, m.Summary["Receipt No"])
		}
	}
}

func TestReconcile_SchemaErrors(t *testing.T) {
	engine := newTestEngine(t)

	badTx := store.NewTable("Vehicle Reg. Number", "RTO Amount")
	_, err := engine.Reconcile(badTx, summaryTable())
	appErr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("expected ReconcilerError, got %v", err)
	}
	if appErr.Code != errors.CodeSchemaMismatch {
		t.Errorf("expected schema mismatch, got %s", appErr.Code)
	}
	if appErr.Context["dataset"] != DatasetTransactions {
		t.Errorf("expected transaction dataset, got %v", appErr.Context["dataset"])
	}
	missing, _ := appErr.Context["missing_columns"].([]string)
	if len(missing) != 2 || missing[0] != "Chassis Number" || missing[1] != "Transaction Date" {
		t.Errorf("unexpected missing columns %v", missing)
	}

	badSummary := store.NewTable("Vehicle No", "Chassis No", "Amount")
	_, err = engine.Reconcile(txTable(), badSummary)
	appErr, ok = errors.AsReconcilerError(err)
	if !ok || appErr.Context["dataset"] != DatasetSummary {
		t.Fatalf("expected summary schema error, got %v", err)
	}

	_, err = engine.Reconcile(nil, summaryTable())
	appErr, ok = errors.AsReconcilerError(err)
	if !ok || appErr.Category != errors.CategoryReconciliation {
		t.Errorf("expected reconciliation error for a nil table, got %v", err)
	}
}

func TestReconcile_SummaryCounts(t *testing.T) {
	engine := newTestEngine(t)

	summary := summaryTable(
		receipt("MH12AB1234", "A", "500", "01-06-2024", "R1"),
		receipt("Z", "MAT2", "700", "02-06-2024", "R2"),
		receipt("MH01", "C", "", "01-06-2024", "R3"),
	)
	transactions := txTable(
		tx("MH12AB1234", "A", "500", "01-06-2024"),
		tx("Q", "MAT2", "700", "02-06-2024"),
		tx("MH99", "D", "900", "03-06-2024"),
		tx("MH98", "E", "abc", "03-06-2024"),
	)

	result, err := engine.Reconcile(transactions, summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := ReconciliationSummary{
		TotalTransactions:    4,
		TotalSummaryRows:     3,
		Available:            2,
		Missing:              2,
		MatchedByVehicle:     1,
		MatchedByChassis:     1,
		ExcludedTransactions: 1,
		ExcludedSummaryRows:  1,
	}
	if result.Summary != want {
		t.Errorf("expected %+v, got %+v", want, result.Summary)
	}
}

func TestToTable(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Reconcile(
		txTable(
			tx("MH12AB1234", "X", "500", "2024-06-01 09:00:00"),
			tx("MH99", "Y", "100", "01-06-2024"),
		),
		summaryTable(receipt("MH12AB1234", "Y", "500", "01-06-2024", "R1")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	table := result.ToTable()
	wantColumns := []string{
		ColumnReceiptStatus, ColumnMatchScenario,
		"Transaction Date", "Vehicle Reg. Number", "Chassis Number", "Owner Name", "Payment Type", "RTO Amount", "Bank Amount",
		"Vehicle No", "Chassis No", "Amount", "Bank Ref No", "Receipt No",
	}
	if len(table.Columns) != len(wantColumns) {
		t.Fatalf("expected columns %v, got %v", wantColumns, table.Columns)
	}
	for i, col := range wantColumns {
		if table.Columns[i] != col {
			t.Errorf("column %d: expected %s, got %s", i, col, table.Columns[i])
		}
	}

	matched := table.Rows[0]
	if matched[ColumnReceiptStatus] != "Available" || matched[ColumnMatchScenario] != "Matched based on Vehicle No" {
		t.Errorf("unexpected annotations %v", matched)
	}
	if matched["Receipt No"] != "R1" || matched["Owner Name"] != "R Patil" {
		t.Errorf("expected transaction and summary values merged, got %v", matched)
	}
	if matched["Transaction Date"] != "01-06-2024" {
		t.Errorf("expected summary value to win on shared column, got %s", matched["Transaction Date"])
	}

	missing := table.Rows[1]
	if missing[ColumnReceiptStatus] != "Missing" || missing[ColumnMatchScenario] != "None" {
		t.Errorf("unexpected annotations %v", missing)
	}
	if missing["Receipt No"] != "" || missing["Transaction Date"] != "01-06-2024" {
		t.Errorf("expected blank summary columns and original transaction values, got %v", missing)
	}
}

func TestMatchingConfigValidate(t *testing.T) {
	config := DefaultMatchingConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	config.Summary.Amount = " "
	if err := config.Validate(); err == nil {
		t.Error("expected error for blank column mapping")
	}

	config = DefaultMatchingConfig()
	config.DateLayouts = nil
	if err := config.Validate(); err == nil {
		t.Error("expected error for empty date layouts")
	}

	config = DefaultMatchingConfig()
	config.DuplicateWindow = 0
	if _, err := NewEngine(config, nil); err == nil {
		t.Error("expected engine creation to fail on invalid config")
	}
}
