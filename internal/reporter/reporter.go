// Package reporter writes the reconciliation report workbook and prints run
// summaries for the extract and reconcile commands.
//
// Supported summary formats:
//   - Console: human-readable sections for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: the missing-receipt list for spreadsheet follow-up
//
// Example usage:
//
//	generator, _ := reporter.NewReportGenerator(nil)
//	err := generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"rto-receipt-reconciler/internal/batch"
	"rto-receipt-reconciler/internal/matcher"
	"rto-receipt-reconciler/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	IncludeMissingTransactions bool `json:"include_missing_transactions"`
	IncludeFailures            bool `json:"include_failures"`

	// MaxListItems caps console lists; zero means no cap.
	MaxListItems int  `json:"max_list_items"`
	CSVDelimiter rune `json:"csv_delimiter"`

	// Columns shown for each missing transaction.
	Transaction matcher.TransactionColumns `json:"transaction_columns"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                     FormatConsole,
		IncludeMissingTransactions: true,
		IncludeFailures:            true,
		MaxListItems:               10,
		CSVDelimiter:               ',',
		Transaction:                matcher.DefaultTransactionColumns(),
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxListItems < 0 {
		return fmt.Errorf("max list items cannot be negative, got %d", c.MaxListItems)
	}
	return nil
}

// ReportGenerator prints run summaries in the configured format.
type ReportGenerator struct {
	config *ReportConfig
	now    func() time.Time
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
		now:    time.Now,
	}, nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

// MissingTransaction is the short form of an unmatched transaction.
type MissingTransaction struct {
	VehicleNo   string `json:"vehicle_no"`
	ChassisNo   string `json:"chassis_no"`
	PaymentType string `json:"payment_type"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Excluded    bool   `json:"excluded,omitempty"`
}

func (rg *ReportGenerator) missingTransactions(result *matcher.ReconciliationResult) []MissingTransaction {
	cols := rg.config.Transaction
	var missing []MissingTransaction
	for _, m := range result.Matches {
		if m.Status != matcher.StatusMissing {
			continue
		}
		missing = append(missing, MissingTransaction{
			VehicleNo:   m.Transaction[cols.VehicleNo],
			ChassisNo:   m.Transaction[cols.ChassisNo],
			PaymentType: m.Transaction[cols.PaymentType],
			Amount:      m.Transaction[cols.Amount],
			Date:        m.Transaction[cols.Date],
			Excluded:    m.Excluded,
		})
	}
	return missing
}

// GenerateReport writes a summary of a reconciliation run
func (rg *ReportGenerator) GenerateReport(result *matcher.ReconciliationResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		output := map[string]interface{}{
			"summary":      result.Summary,
			"generated_at": rg.now().Format(time.RFC3339),
		}
		if rg.config.IncludeMissingTransactions {
			output["missing_transactions"] = rg.missingTransactions(result)
		}
		return writeJSON(writer, output)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *matcher.ReconciliationResult, writer io.Writer) error {
	s := result.Summary

	fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n\n", rg.now().Format(time.RFC3339))

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Transactions:   %d\n", s.TotalTransactions)
	fmt.Fprintf(writer, "Summary Rows:   %d\n", s.TotalSummaryRows)
	fmt.Fprintf(writer, "  Available:    %d (%.1f%%)\n", s.Available, calculatePercentage(s.Available, s.TotalTransactions))
	fmt.Fprintf(writer, "  Missing:      %d (%.1f%%)\n", s.Missing, calculatePercentage(s.Missing, s.TotalTransactions))
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== MATCH SCENARIOS ===\n")
	fmt.Fprintf(writer, "%s: %d\n", matcher.ScenarioVehicle, s.MatchedByVehicle)
	fmt.Fprintf(writer, "%s: %d\n", matcher.ScenarioChassis, s.MatchedByChassis)
	fmt.Fprintf(writer, "\n")

	if s.ExcludedTransactions > 0 || s.ExcludedSummaryRows > 0 {
		fmt.Fprintf(writer, "=== NON-NUMERIC AMOUNTS ===\n")
		fmt.Fprintf(writer, "Transactions excluded: %d\n", s.ExcludedTransactions)
		fmt.Fprintf(writer, "Summary rows excluded: %d\n", s.ExcludedSummaryRows)
		fmt.Fprintf(writer, "\n")
	}

	missing := rg.missingTransactions(result)
	if rg.config.IncludeMissingTransactions && len(missing) > 0 {
		fmt.Fprintf(writer, "=== MISSING RECEIPTS ===\n")
		for i, m := range missing {
			if rg.limitReached(i, len(missing), writer) {
				break
			}
			fmt.Fprintf(writer, "  %d. Vehicle: %s, Chassis: %s, Amount: %s, Date: %s\n",
				i+1, orDash(m.VehicleNo), orDash(m.ChassisNo), orDash(m.Amount), orDash(m.Date))
		}
	}

	return nil
}

func (rg *ReportGenerator) generateCSVReport(result *matcher.ReconciliationResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	headers := []string{"Vehicle No", "Chassis No", "Payment Type", "Amount", "Date", "Excluded"}
	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range rg.missingTransactions(result) {
		record := []string{m.VehicleNo, m.ChassisNo, m.PaymentType, m.Amount, m.Date, fmt.Sprintf("%t", m.Excluded)}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write missing transaction record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// ExtractionReport is the serialisable view of a batch run.
type ExtractionReport struct {
	RunID      string         `json:"run_id"`
	Documents  int64          `json:"documents"`
	Parsed     int64          `json:"parsed"`
	Failed     int64          `json:"failed"`
	Duration   string         `json:"duration"`
	BySchema   map[string]int `json:"by_schema"`
	Incomplete int            `json:"incomplete_records"`
	Failures   []string       `json:"failures,omitempty"`
}

func (rg *ReportGenerator) extractionReport(result *batch.Result) ExtractionReport {
	report := ExtractionReport{
		RunID:     result.RunID,
		Documents: result.Stats.Total,
		Parsed:    result.Stats.Succeeded,
		Failed:    result.Stats.Failed,
		Duration:  result.Stats.Duration.Round(time.Millisecond).String(),
		BySchema:  make(map[string]int),
	}
	for schema, n := range result.BySchema() {
		report.BySchema[schema.String()] = n
	}
	for _, rec := range result.Records {
		if len(rec.MissingFields()) > 0 {
			report.Incomplete++
		}
	}
	if rg.config.IncludeFailures {
		for _, f := range result.Failures {
			report.Failures = append(report.Failures, f.Error())
		}
	}
	return report
}

// GenerateExtractionReport writes a summary of a batch extraction run.
// CSV output is not defined for batch runs and falls back to console.
func (rg *ReportGenerator) GenerateExtractionReport(result *batch.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("batch result cannot be nil")
	}

	report := rg.extractionReport(result)
	if rg.config.Format == FormatJSON {
		return writeJSON(writer, report)
	}

	fmt.Fprintf(writer, "EXTRACTION REPORT\n")
	fmt.Fprintf(writer, "Run: %s\n\n", report.RunID)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Documents:  %d\n", report.Documents)
	fmt.Fprintf(writer, "  Parsed:   %d (%.1f%%)\n", report.Parsed, calculatePercentage(int(report.Parsed), int(report.Documents)))
	fmt.Fprintf(writer, "  Failed:   %d (%.1f%%)\n", report.Failed, calculatePercentage(int(report.Failed), int(report.Documents)))
	fmt.Fprintf(writer, "Incomplete: %d\n", report.Incomplete)
	fmt.Fprintf(writer, "Duration:   %s\n\n", report.Duration)

	fmt.Fprintf(writer, "=== SCHEMAS ===\n")
	for _, schema := range append(append([]models.Schema(nil), models.KnownSchemas...), models.SchemaUnknown) {
		fmt.Fprintf(writer, "%-26s %d\n", schema.String()+":", report.BySchema[schema.String()])
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(writer, "\n=== FAILED DOCUMENTS ===\n")
		sorted := append([]string(nil), report.Failures...)
		sort.Strings(sorted)
		for i, f := range sorted {
			if rg.limitReached(i, len(sorted), writer) {
				break
			}
			fmt.Fprintf(writer, "  %d. %s\n", i+1, f)
		}
	}

	return nil
}

func (rg *ReportGenerator) limitReached(i, total int, writer io.Writer) bool {
	limit := rg.config.MaxListItems
	if limit > 0 && i >= limit {
		fmt.Fprintf(writer, "  ... and %d more\n", total-limit)
		return true
	}
	return false
}

func writeJSON(writer io.Writer, v interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func calculatePercentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
