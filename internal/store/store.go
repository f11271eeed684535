// Package store reads and writes the tabular files the pipeline exchanges:
// the extraction log, the receipt summary, the transaction log and the
// reconciliation report. Every backend speaks the same Table shape so the
// rest of the code never cares whether a file is a workbook, a CSV or a
// SQLite database.
package store

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Row maps column names to cell text.
type Row map[string]string

// Table is an ordered set of columns and the rows under them.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// AddRow appends a row, registering any columns the table has not seen yet.
func (t *Table) AddRow(r Row) {
	for _, col := range sortedKeys(r) {
		if !t.HasColumn(col) {
			t.Columns = append(t.Columns, col)
		}
	}
	t.Rows = append(t.Rows, r)
}

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// MissingColumns returns the subset of required not present in the table.
func (t *Table) MissingColumns(required ...string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Reader loads a table from path. A path that does not exist yields an
// error satisfying errors.Is(err, fs.ErrNotExist).
type Reader interface {
	Read(ctx context.Context, path string) (*Table, error)
}

// Writer replaces whatever is at path with t.
type Writer interface {
	Write(ctx context.Context, path string, t *Table) error
}

// Store is a Reader and a Writer over the same format.
type Store interface {
	Reader
	Writer
}

// ForPath picks a backend from the file extension.
func ForPath(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return NewXLSXStore(), nil
	case ".csv":
		return NewCSVStore(), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(), nil
	default:
		return nil, fmt.Errorf("unsupported table format %q (want .xlsx, .csv or .db)", filepath.Ext(path))
	}
}

// Merge concatenates existing and fresh. Columns keep existing order and
// fresh-only columns are appended.
func Merge(existing, fresh *Table) *Table {
	merged := NewTable()
	for _, t := range []*Table{existing, fresh} {
		if t == nil {
			continue
		}
		for _, col := range t.Columns {
			if !merged.HasColumn(col) {
				merged.Columns = append(merged.Columns, col)
			}
		}
		merged.Rows = append(merged.Rows, t.Rows...)
	}
	return merged
}

// MergeAndPersist appends fresh to whatever table is already stored at path
// and writes the result back. It is a read-all/write-all cycle; two
// processes running it on the same path can lose each other's rows.
func MergeAndPersist(ctx context.Context, s Store, path string, fresh *Table) (*Table, error) {
	existing, err := s.Read(ctx, path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "load existing table %s", path)
		}
		existing = nil
	}

	merged := Merge(existing, fresh)
	if err := s.Write(ctx, path, merged); err != nil {
		return nil, errors.Wrapf(err, "write table %s", path)
	}
	return merged, nil
}
