package store

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/pkg/errors"
)

// CSVStore reads and writes comma-separated files with a header row.
type CSVStore struct {
	Delimiter rune
}

// NewCSVStore creates a CSV store using commas
func NewCSVStore() *CSVStore {
	return &CSVStore{Delimiter: ','}
}

// Read implements Reader
func (s *CSVStore) Read(ctx context.Context, path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = s.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse csv %s", path)
	}
	return tableFromRecords(records), nil
}

// Write implements Writer
func (s *CSVStore) Write(ctx context.Context, path string, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = s.Delimiter

	if err := writer.Write(t.Columns); err != nil {
		return errors.Wrap(err, "write header")
	}
	record := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, col := range t.Columns {
			record[i] = r[col]
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "write row")
		}
	}

	writer.Flush()
	return writer.Error()
}
