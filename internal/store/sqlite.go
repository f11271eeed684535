package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // pure Go sqlite driver
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore keeps a table inside a SQLite database file. Column order is
// stored separately from the rows, which are JSON objects, so tables with
// differing column sets can share one schema.
type SQLiteStore struct {
	// Table is the base name; "<Table>_columns" holds the header.
	Table string
}

// NewSQLiteStore creates a store that uses the "records" table
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{Table: "records"}
}

func (s *SQLiteStore) open(ctx context.Context, path string) (*sql.DB, error) {
	if !tableNamePattern.MatchString(s.Table) {
		return nil, fmt.Errorf("invalid table name %q", s.Table)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_columns (
            position INTEGER PRIMARY KEY,
            name TEXT NOT NULL
        );`, s.Table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            row_index INTEGER PRIMARY KEY,
            data TEXT NOT NULL
        );`, s.Table),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "ensure schema")
		}
	}
	return db, nil
}

// Read implements Reader
func (s *SQLiteStore) Read(ctx context.Context, path string) (*Table, error) {
	// sql.Open would create the file; a missing database means no table yet.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := s.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	t := NewTable()

	cols, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s_columns ORDER BY position`, s.Table))
	if err != nil {
		return nil, errors.Wrap(err, "query columns")
	}
	for cols.Next() {
		var name string
		if err := cols.Scan(&name); err != nil {
			cols.Close()
			return nil, err
		}
		t.Columns = append(t.Columns, name)
	}
	cols.Close()
	if err := cols.Err(); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT data FROM %s ORDER BY row_index`, s.Table))
	if err != nil {
		return nil, errors.Wrap(err, "query rows")
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		row := make(Row)
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, errors.Wrap(err, "decode row")
		}
		for _, col := range t.Columns {
			if _, ok := row[col]; !ok {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, rows.Err()
}

// Write implements Writer
func (s *SQLiteStore) Write(ctx context.Context, path string, t *Table) error {
	db, err := s.open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		fmt.Sprintf(`DELETE FROM %s_columns`, s.Table),
		fmt.Sprintf(`DELETE FROM %s`, s.Table),
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "clear table")
		}
	}

	colStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s_columns(position, name) VALUES(?, ?)`, s.Table))
	if err != nil {
		return err
	}
	defer colStmt.Close()
	for i, col := range t.Columns {
		if _, err := colStmt.ExecContext(ctx, i, col); err != nil {
			return errors.Wrapf(err, "insert column %s", col)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(row_index, data) VALUES(?, ?)`, s.Table))
	if err != nil {
		return err
	}
	defer rowStmt.Close()
	for i, r := range t.Rows {
		data, err := json.Marshal(r)
		if err != nil {
			return errors.Wrapf(err, "encode row %d", i)
		}
		if _, err := rowStmt.ExecContext(ctx, i, string(data)); err != nil {
			return errors.Wrapf(err, "insert row %d", i)
		}
	}

	return tx.Commit()
}
