package store

import (
	"context"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet written by XLSXStore when none is configured.
const DefaultSheet = "Sheet1"

// Styler decorates a workbook after the cells have been written and before
// it is saved.
type Styler interface {
	Style(f *excelize.File, sheet string, t *Table) error
}

// XLSXStore reads and writes single-sheet workbooks with a header row.
type XLSXStore struct {
	// Sheet to write; reads use the first sheet when empty.
	Sheet string
	// NumericColumns are written as numbers when the cell parses as one.
	NumericColumns []string
	Styler         Styler
}

// NewXLSXStore creates a workbook store with default settings
func NewXLSXStore() *XLSXStore {
	return &XLSXStore{}
}

// Read implements Reader
func (s *XLSXStore) Read(ctx context.Context, path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer func() { _ = f.Close() }()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return NewTable(), nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	return tableFromRecords(rows), nil
}

// Write implements Writer
func (s *XLSXStore) Write(ctx context.Context, path string, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sheet := s.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return errors.Wrap(err, "rename sheet")
		}
	}

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}

	numeric := make(map[string]bool, len(s.NumericColumns))
	for _, col := range s.NumericColumns {
		numeric[col] = true
	}

	for i, r := range t.Rows {
		values := make([]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			values[j] = cellValue(r[col], numeric[col])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}

	if s.Styler != nil {
		if err := s.Styler.Style(f, sheet, t); err != nil {
			return errors.Wrap(err, "style workbook")
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save workbook %s", path)
	}
	return nil
}

// tableFromRecords turns header-first string records into a Table. Short
// records are padded with empty cells.
func tableFromRecords(records [][]string) *Table {
	if len(records) == 0 {
		return NewTable()
	}

	t := NewTable(records[0]...)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellValue(v string, numeric bool) interface{} {
	if numeric && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
