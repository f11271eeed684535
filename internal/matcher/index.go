package matcher

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rto-receipt-reconciler/internal/models"
	"rto-receipt-reconciler/internal/store"
)

// SummaryEntry is one summary row with its match keys coerced.
type SummaryEntry struct {
	Position  int
	Row       store.Row
	VehicleNo string
	ChassisNo string
	Amount    decimal.Decimal
	Date      time.Time
	HasDate   bool
}

// SummaryIndex looks summary rows up by vehicle or chassis number. Lists
// keep original summary order so the first hit is the first row in the file.
type SummaryIndex struct {
	ByVehicle map[string][]*SummaryEntry
	ByChassis map[string][]*SummaryEntry

	// Entries holds the rows that can take part in matching.
	Entries []*SummaryEntry
	// Excluded holds positions of rows whose amount is not a number.
	Excluded []int
}

// normalizeKey trims a lookup key. Blank and sentinel values return "" and
// are never indexed or looked up.
func normalizeKey(v string) string {
	v = strings.TrimSpace(v)
	if v == models.NotFound {
		return ""
	}
	return v
}

// NewSummaryIndex builds an index over the summary table.
func NewSummaryIndex(summary *store.Table, cols SummaryColumns, layouts []string) *SummaryIndex {
	index := &SummaryIndex{
		ByVehicle: make(map[string][]*SummaryEntry),
		ByChassis: make(map[string][]*SummaryEntry),
	}

	for i, row := range summary.Rows {
		amount, err := models.ParseAmount(row[cols.Amount])
		if err != nil {
			index.Excluded = append(index.Excluded, i)
			continue
		}

		entry := &SummaryEntry{
			Position:  i,
			Row:       row,
			VehicleNo: normalizeKey(row[cols.VehicleNo]),
			ChassisNo: normalizeKey(row[cols.ChassisNo]),
			Amount:    amount,
		}
		entry.Date, entry.HasDate = models.NormalizeDate(row[cols.Date], layouts)

		index.Entries = append(index.Entries, entry)
		if entry.VehicleNo != "" {
			index.ByVehicle[entry.VehicleNo] = append(index.ByVehicle[entry.VehicleNo], entry)
		}
		if entry.ChassisNo != "" {
			index.ByChassis[entry.ChassisNo] = append(index.ByChassis[entry.ChassisNo], entry)
		}
	}

	return index
}

// FindByVehicle returns the first entry for vehicle with the same amount and date.
func (si *SummaryIndex) FindByVehicle(vehicle string, amount decimal.Decimal, date time.Time) *SummaryEntry {
	return firstMatch(si.ByVehicle[normalizeKey(vehicle)], amount, date)
}

// FindByChassis returns the first entry for chassis with the same amount and date.
func (si *SummaryIndex) FindByChassis(chassis string, amount decimal.Decimal, date time.Time) *SummaryEntry {
	return firstMatch(si.ByChassis[normalizeKey(chassis)], amount, date)
}

func firstMatch(candidates []*SummaryEntry, amount decimal.Decimal, date time.Time) *SummaryEntry {
	for _, entry := range candidates {
		if entry.HasDate && entry.Date.Equal(date) && entry.Amount.Equal(amount) {
			return entry
		}
	}
	return nil
}

// GetStats returns statistics about the index
func (si *SummaryIndex) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"entries":         len(si.Entries),
		"excluded":        len(si.Excluded),
		"unique_vehicles": len(si.ByVehicle),
		"unique_chassis":  len(si.ByChassis),
		"entries_no_date": si.countWithoutDate(),
	}
}

func (si *SummaryIndex) countWithoutDate() int {
	n := 0
	for _, e := range si.Entries {
		if !e.HasDate {
			n++
		}
	}
	return n
}
