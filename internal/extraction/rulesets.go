package extraction

import (
	"rto-receipt-reconciler/internal/models"
)

const (
	grandTotalPattern = `GRAND TOTAL \(in Rs\):\s*(\d+)`
	ownerClassPattern = `Vehicle Class:\s*(.+?)\s+Owner Name:`
)

// knownVehicleClasses is scanned when an MV Tax receipt has no labelled class.
var knownVehicleClasses = []string{
	"Articulated Vehicle",
	"Goods Carrier",
	"Motor Cab",
	"Omni Bus",
	"Trailer",
	"Three Wheeler",
	"Tractor",
	"Private Service Vehicle",
}

func field(name string, rules ...Rule) FieldRule {
	return FieldRule{Name: name, Rules: rules}
}

// MVTaxRules extracts motor vehicle tax receipts.
var MVTaxRules = Ruleset{
	Schema: models.SchemaMVTax,
	Fields: []FieldRule{
		field(models.FieldReceiptNo, JoinAll(`MH\d+V\d+|MH\d+C\d+`, " / ")),
		field(models.FieldGRNNo, Pattern(`GRN No: (\d+)`)),
		field(models.FieldTIN, Pattern(`Transaction Identification Number\s+(\w+)`)),
		field(models.FieldTaxPeriod, JoinAll(`\d{2}-[A-Za-z]{3}-\d{4}`, " to ")),
		field(models.FieldAmount, Pattern(grandTotalPattern)),
		field(models.FieldVehicleNo, Pattern(`Vehicle No:\s*([A-Z0-9]+)`)),
		// The portal prints "Chasis" on this template.
		field(models.FieldChassisNo,
			Pattern(`Chasis No:\s*([A-Z0-9]+)`),
			Pattern(`Chassis No:\s*([A-Z0-9]+)`),
		),
		field(models.FieldVehicleClass,
			Pattern(`Vehicle Class:\s*(.+)`),
			Keywords(knownVehicleClasses...),
		),
		field(models.FieldTransactionDate, Pattern(`Transaction Date:\s*(\d{2}-[A-Za-z]{3}-\d{4} \d{2}:\d{2} (?:AM|PM))`)),
		field(models.FieldBankRefNo, Pattern(`Bank Reference Number:\s*(\d+)`)),
	},
}

// npAuthorizationAmount reads the fee printed after the validity range in
// the "Authorization Details:" table. Other amounts on the page are ignored.
var npAuthorizationAmount = Block(
	`Authorization Details:`,
	`Transaction|Note:`,
	Pattern(`\d{2}-\d{2}-\d{4}\s+\d{2}-\d{2}-\d{4}\s+(\d{3,6})`),
)

// NationalPermitRules extracts national permit composite fee receipts.
//
// Amount, Grand Total and Fee name the same figure on this template and all
// resolve through npAuthorizationAmount.
var NationalPermitRules = Ruleset{
	Schema: models.SchemaNationalPermit,
	Fields: []FieldRule{
		field(models.FieldVehicleNo, Pattern(`Regn\. No\.:\s*([A-Z0-9]+)`)),
		field(models.FieldChassisNo, Pattern(`Chassis No\.:\s*([A-Z0-9]+)`)),
		field(models.FieldNPAuthNo, Pattern(`NP Auth No:\s*([A-Z0-9/]+)`)),
		field(models.FieldPermitValidity, JoinAll(`\d{2}-\d{2}-\d{4}`, " to ")),
		field(models.FieldFee, npAuthorizationAmount),
		field(models.FieldPenalty, Pattern(`Penalty\s*\n\s*(\d{1,5})`)),
		field(models.FieldAmount, npAuthorizationAmount),
		field(models.FieldGrandTotal, npAuthorizationAmount),
		field(models.FieldReceiptNo, Pattern(`Transaction Id:\s*(\d+)`)),
		field(models.FieldTransactionDate, Pattern(`Transaction Date:\s*(\d{2}-\d{2}-\d{4} \d{2}:\d{2}:\d{2})`)),
		field(models.FieldBankRefNo, Pattern(`Bank Ref No:\s*(\d+)`)),
		field(models.FieldVehicleClass, Pattern(ownerClassPattern)),
	},
}

// PermitRenewalRules extracts permit renewal receipts. The template prints
// no separate Amount; the summary derives it from Grand Total.
var PermitRenewalRules = Ruleset{
	Schema: models.SchemaPermitRenewal,
	Fields: []FieldRule{
		field(models.FieldReceiptNo, JoinAll(`MH\d+[PW]\d+`, " / ")),
		field(models.FieldVehicleNo, Pattern(`Vehicle No:\s*(MH\d{2}[A-Z]{2}\d{4})`)),
		field(models.FieldChassisNo, Pattern(`Chassis No:\s*([A-Z0-9]{17})`)),
		field(models.FieldFee, Pattern(`Total\s+(\d+\.\d+)`)),
		field(models.FieldPenalty, Pattern(`Penalty\s+(\d+\.\d+)`)),
		field(models.FieldGrandTotal, Pattern(grandTotalPattern)),
		field(models.FieldTaxPaidUpto, Pattern(`Tax Paid\s+Upto:\s*(\d{2}-[A-Za-z]{3}-\d{4})`)),
		field(models.FieldDescription, Pattern(`Description\s*[:\-]?\s*(.*)`)),
		field(models.FieldTransactionDate, Pattern(`Receipt Date:\s*(\d{2}-[A-Za-z]{3}-\d{4})`)),
		field(models.FieldVehicleClass, Pattern(ownerClassPattern)),
	},
}

// NewRegistrationRules extracts new registration fee receipts.
var NewRegistrationRules = Ruleset{
	Schema: models.SchemaNewRegistration,
	Fields: []FieldRule{
		field(models.FieldReceiptNo, JoinAll(`MH\d+D\d+|MH\d+`, " / ")),
		field(models.FieldRegistrationDate, Pattern(`Vehicle Registration Date:\s*(\d{2}-\d{2}-\d{4})`)),
		field(models.FieldGrandTotal, Pattern(grandTotalPattern)),
		field(models.FieldChassisNo, LabelLookahead([]string{"Chassis No:", "Chasis No:"}, `[A-Z0-9]{10,17}`, 5)),
		field(models.FieldTransactionDate,
			Pattern(`Print on\s*(\d{2}-[A-Za-z]{3}-\d{4} \d{2}:\d{2}:\d{2})`),
			Pattern(`Printed On:\s*(\d{2}-[A-Za-z]{3}-\d{4} \d{2}:\d{2}:\d{2})`),
		),
		field(models.FieldVehicleNo, Pattern(`Vehicle No:\s*([A-Z0-9]+)`)),
		field(models.FieldBankRefNo, Pattern(`Bank Reference\s*Number:\s*(\d{10})`)),
		field(models.FieldVehicleClass, Pattern(ownerClassPattern)),
	},
}

// UnknownRules has no fields; unknown documents carry metadata only.
var UnknownRules = Ruleset{Schema: models.SchemaUnknown}

// DefaultRulesets maps every schema to its ruleset.
func DefaultRulesets() map[models.Schema]Ruleset {
	return map[models.Schema]Ruleset{
		models.SchemaMVTax:           MVTaxRules,
		models.SchemaNationalPermit:  NationalPermitRules,
		models.SchemaPermitRenewal:   PermitRenewalRules,
		models.SchemaNewRegistration: NewRegistrationRules,
		models.SchemaUnknown:         UnknownRules,
	}
}
