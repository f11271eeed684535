package batch

import (
	"context"
	"strings"
	"time"

	"rto-receipt-reconciler/internal/extraction"
	"rto-receipt-reconciler/internal/models"
	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/pkg/errors"
)

// LoggedAtFormat is the timestamp layout of the Logged At column.
const LoggedAtFormat = "2006-01-02 15:04:05"

// LogColumns is the extraction log header: every field of every template,
// first-seen order across templates, then the metadata columns.
func LogColumns() []string {
	rulesets := extraction.DefaultRulesets()

	var columns []string
	seen := make(map[string]bool)
	for _, schema := range models.KnownSchemas {
		for _, name := range rulesets[schema].FieldNames() {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}

	return append(columns,
		models.ColumnSchema,
		models.ColumnFileName,
		models.ColumnLoggedAt,
		models.ColumnMissingFields,
	)
}

// LogRow flattens one record. Columns the record's template does not define
// are left blank rather than marked NOT FOUND.
func LogRow(rec *models.Record, loggedAt time.Time) store.Row {
	row := make(store.Row, len(rec.Fields)+4)
	for _, f := range rec.Fields {
		row[f.Name] = f.Value
	}
	row[models.ColumnSchema] = rec.Schema.String()
	row[models.ColumnFileName] = rec.FileName
	row[models.ColumnLoggedAt] = loggedAt.Format(LoggedAtFormat)
	row[models.ColumnMissingFields] = strings.Join(rec.MissingFields(), ", ")
	return row
}

// LogTable builds the rows for one batch.
func LogTable(records []*models.Record, loggedAt time.Time) *store.Table {
	columns := LogColumns()
	t := store.NewTable(columns...)
	for _, rec := range records {
		row := LogRow(rec, loggedAt)
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				row[col] = ""
			}
		}
		t.AddRow(row)
	}
	return t
}

// Persist appends records to the extraction log at path. Nothing is written
// for an empty batch.
func Persist(ctx context.Context, s store.Store, path string, records []*models.Record, loggedAt time.Time) (*store.Table, error) {
	if len(records) == 0 {
		return nil, nil
	}

	merged, err := store.MergeAndPersist(ctx, s, path, LogTable(records, loggedAt))
	if err != nil {
		return nil, errors.FileError(errors.CodeWriteFailed, path, err)
	}
	return merged, nil
}
