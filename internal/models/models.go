package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NotFound is stored in place of any field value an extractor could not
// resolve. A record never holds an empty value for a field its schema defines.
const NotFound = "NOT FOUND"

// Schema identifies which receipt template a document was recognised as.
type Schema string

const (
	SchemaMVTax           Schema = "MV Tax Receipt"
	SchemaNationalPermit  Schema = "National Permit Receipt"
	SchemaPermitRenewal   Schema = "Permit Renewal Receipt"
	SchemaNewRegistration Schema = "New Registration Receipt"
	SchemaUnknown         Schema = "Unknown Format"
)

// KnownSchemas lists the recognised templates in classification priority order.
var KnownSchemas = []Schema{SchemaMVTax, SchemaNationalPermit, SchemaPermitRenewal, SchemaNewRegistration}

// String returns the string representation of Schema
func (s Schema) String() string {
	return string(s)
}

// IsValid checks if the schema is one of the defined values
func (s Schema) IsValid() bool {
	if s == SchemaUnknown {
		return true
	}
	for _, known := range KnownSchemas {
		if s == known {
			return true
		}
	}
	return false
}

// Field names shared by the extraction rulesets, the extraction log and the summary.
const (
	FieldReceiptNo        = "Receipt No"
	FieldGRNNo            = "GRN No"
	FieldTIN              = "TIN"
	FieldTaxPeriod        = "Tax Period"
	FieldAmount           = "Amount"
	FieldVehicleNo        = "Vehicle No"
	FieldChassisNo        = "Chassis No"
	FieldVehicleClass     = "Vehicle Class"
	FieldTransactionDate  = "Transaction Date"
	FieldBankRefNo        = "Bank Ref No"
	FieldNPAuthNo         = "NP Auth No"
	FieldPermitValidity   = "Permit Validity"
	FieldFee              = "Fee"
	FieldPenalty          = "Penalty"
	FieldGrandTotal       = "Grand Total"
	FieldTaxPaidUpto      = "Tax Paid Upto"
	FieldDescription      = "Description"
	FieldRegistrationDate = "Vehicle Registration Date"
)

// Metadata columns written alongside the extracted fields.
const (
	ColumnSchema        = "Schema"
	ColumnFileName      = "File Name"
	ColumnLoggedAt      = "Logged At"
	ColumnMissingFields = "Missing Fields"
)

// RawDocument is the text of one receipt as handed over by a text extractor.
type RawDocument struct {
	FileName string
	Text     string
}

// Field is one named value of a Record.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is the structured result of parsing one receipt. Fields keep the
// order defined by the schema's ruleset.
type Record struct {
	Schema   Schema  `json:"schema"`
	FileName string  `json:"file_name"`
	Fields   []Field `json:"fields"`
}

// NewRecord creates a Record for the given schema and file
func NewRecord(schema Schema, fileName string, fields []Field) *Record {
	return &Record{
		Schema:   schema,
		FileName: fileName,
		Fields:   fields,
	}
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Resolved reports whether the named field exists and holds a real value.
func (r *Record) Resolved(name string) bool {
	v, ok := r.Get(name)
	return ok && v != NotFound
}

// MissingFields lists the names of fields holding the sentinel, in field order.
func (r *Record) MissingFields() []string {
	var missing []string
	for _, f := range r.Fields {
		if f.Value == NotFound {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Validate checks that every field holds either a value or the sentinel.
func (r *Record) Validate() error {
	if !r.Schema.IsValid() {
		return fmt.Errorf("invalid schema: %q", r.Schema)
	}
	if strings.TrimSpace(r.FileName) == "" {
		return fmt.Errorf("record file name cannot be empty")
	}
	seen := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if strings.TrimSpace(f.Value) == "" {
			return fmt.Errorf("field %q is empty", f.Name)
		}
	}
	return nil
}

// String returns a string representation of the Record
func (r *Record) String() string {
	return fmt.Sprintf("Record{Schema: %s, File: %s, Fields: %d, Missing: %d}",
		r.Schema, r.FileName, len(r.Fields), len(r.MissingFields()))
}

// ParseAmount converts a receipt or ledger amount to a decimal. Currency
// markers and thousands separators are ignored.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == NotFound {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}

	for _, marker := range []string{"Rs.", "Rs", "INR", ","} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}

	return d, nil
}

// DefaultDateLayouts are tried in order by NormalizeDate. The zero-padded
// layouts cover the receipt templates, each followed by its unpadded form for
// hand-kept transaction logs; the ISO layouts cover values written by the
// transaction logger and re-exported spreadsheets.
var DefaultDateLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-01-2006 15:04:05",
	"2-1-2006 15:04:05",
	"02-Jan-2006 03:04 PM",
	"2-Jan-2006 3:04 PM",
	"02-Jan-2006 15:04:05",
	"2-Jan-2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeDate reduces a date or timestamp string to its calendar date using
// the first layout that parses. ok is false when none does.
func NormalizeDate(s string, layouts []string) (date time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == NotFound {
		return time.Time{}, false
	}
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
