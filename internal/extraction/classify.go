package extraction

import (
	"strings"

	"rto-receipt-reconciler/internal/models"
)

type classification struct {
	schema models.Schema
	// filenameMarkers are matched against the upper-cased file name.
	filenameMarkers []string
	// textMarkers are matched case-sensitively against normalized text.
	textMarkers []string
}

// classificationOrder is evaluated top to bottom and the first hit wins.
// Secondary matches are not reported, so a file named "NP MV TAX.pdf" is
// an MV Tax receipt.
var classificationOrder = []classification{
	{
		schema:          models.SchemaMVTax,
		filenameMarkers: []string{"MV TAX"},
		textMarkers:     []string{"MV Tax"},
	},
	{
		schema:          models.SchemaNationalPermit,
		filenameMarkers: []string{"NP"},
		textMarkers:     []string{"National Permit Composite Fee Payment Detail", "NP Auth No"},
	},
	{
		schema:          models.SchemaPermitRenewal,
		filenameMarkers: []string{"PERMIT RENEWAL"},
		textMarkers:     []string{"Renewal of Permit Authorization"},
	},
	{
		schema:          models.SchemaNewRegistration,
		filenameMarkers: []string{"NEW REGISTRATION"},
		textMarkers:     []string{"E-FEE", "Fitness Inspection"},
	},
}

// Classify picks the receipt template for a document from its file name and
// normalized text. It returns SchemaUnknown when nothing matches.
func Classify(text, filename string) models.Schema {
	upperName := strings.ToUpper(filename)

	for _, c := range classificationOrder {
		if containsAny(upperName, c.filenameMarkers) || containsAny(text, c.textMarkers) {
			return c.schema
		}
	}
	return models.SchemaUnknown
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
