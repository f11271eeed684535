// Package extraction turns the raw text of an RTO receipt into a structured
// record.
//
// A document goes through three pure steps:
//
//	text := Normalize(raw)
//	schema := Classify(text, filename)
//	fields := rulesets[schema].Extract(text)
//
// Dispatcher wires them together:
//
//	d := extraction.NewDispatcher()
//	rec := d.Dispatch(rawText, "MV TAX 0412.pdf")
//	fmt.Println(rec.Schema, rec.MissingFields())
package extraction

import (
	"rto-receipt-reconciler/internal/models"
)

// Dispatcher classifies documents and routes them to the matching ruleset.
// It holds no mutable state and is safe for concurrent use.
type Dispatcher struct {
	rulesets map[models.Schema]Ruleset
}

// NewDispatcher creates a dispatcher over the built-in rulesets.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{rulesets: DefaultRulesets()}
}

// Dispatch normalizes, classifies and extracts one document.
func (d *Dispatcher) Dispatch(rawText, filename string) *models.Record {
	text := Normalize(rawText)
	schema := Classify(text, filename)

	rules, ok := d.rulesets[schema]
	if !ok {
		rules = UnknownRules
	}

	return models.NewRecord(schema, filename, rules.Extract(text))
}

// ProcessDocument is Dispatch for a RawDocument.
func (d *Dispatcher) ProcessDocument(doc models.RawDocument) *models.Record {
	return d.Dispatch(doc.Text, doc.FileName)
}

// FieldNames returns the output fields of a schema in order.
func (d *Dispatcher) FieldNames(schema models.Schema) []string {
	return d.rulesets[schema].FieldNames()
}
