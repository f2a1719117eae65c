// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package sqlitedb opens extracted Android application databases strictly
// read-only and provides table layout introspection and row iteration.
// Evidence files are never written to.
package sqlitedb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// OpenError is returned when an input file cannot be opened or is not a
// readable database.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("could not open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// DB is a read-only connection to a single evidence database.
type DB struct {
	path string
	conn *sqlite.Conn
}

// Open opens the database at path read-only. Queries are interrupted when
// the context is done, so a locked or oversized file cannot stall a run.
func Open(ctx context.Context, path string) (*DB, error) {
	flags := sqlite.SQLITE_OPEN_READONLY | sqlite.SQLITE_OPEN_URI | sqlite.SQLITE_OPEN_NOMUTEX
	conn, err := sqlite.OpenConn(path, flags)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	conn.SetInterrupt(ctx.Done())

	db := &DB{path: path, conn: conn}

	// force a header read so that non-database files fail here, not on the
	// first artifact query
	if _, err := db.pragma("schema_version"); err != nil {
		_ = conn.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	return db, nil
}

// Path returns the path the database was opened from.
func (db *DB) Path() string { return db.path }

// Close closes the connection.
func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) pragma(name string) (int64, error) {
	stmt, err := db.conn.Prepare("PRAGMA " + name)
	if err != nil {
		return 0, err
	}
	_, err = stmt.Step()
	if err != nil {
		return 0, err
	}
	i := stmt.GetInt64(name)
	return i, stmt.Finalize()
}

// Tables lists all table names in the database.
func (db *DB) Tables() ([]string, error) {
	var tables []string
	err := db.ForEachRow("SELECT name FROM sqlite_master WHERE type='table'", func(row Row) error {
		if name, ok := row.Text("name"); ok {
			tables = append(tables, name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not list tables")
	}
	sort.Strings(tables)
	return tables, nil
}

// Columns lists the column names of a table.
func (db *DB) Columns(table string) ([]string, error) {
	var columns []string
	query := fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdentifier(table))
	err := db.ForEachRow(query, func(row Row) error {
		if name, ok := row.Text("name"); ok {
			columns = append(columns, name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not list columns of %s", table)
	}
	return columns, nil
}

// Layout returns every table with its column names. This is the input to
// schema matching.
func (db *DB) Layout() (map[string][]string, error) {
	tables, err := db.Tables()
	if err != nil {
		return nil, err
	}
	layout := map[string][]string{}
	for _, table := range tables {
		columns, err := db.Columns(table)
		if err != nil {
			return nil, err
		}
		layout[table] = columns
	}
	return layout, nil
}

// HasTable reports whether the database contains the named table.
func (db *DB) HasTable(table string) (bool, error) {
	tables, err := db.Tables()
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if strings.EqualFold(t, table) {
			return true, nil
		}
	}
	return false, nil
}

// ForEachRow runs a query and calls fn for every result row. A non-nil error
// from fn aborts the iteration.
func (db *DB) ForEachRow(query string, fn func(row Row) error) error {
	stmt, err := db.conn.Prepare(query)
	if err != nil {
		return errors.Wrapf(err, "could not prepare %q", query)
	}

	columns := map[string]int{}
	for i := 0; i < stmt.ColumnCount(); i++ {
		columns[strings.ToLower(stmt.ColumnName(i))] = i
	}

	var n int64
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			_ = stmt.Finalize()
			return err
		}
		if !hasRow {
			break
		}
		n++
		if err := fn(Row{stmt: stmt, columns: columns, number: n}); err != nil {
			_ = stmt.Finalize()
			return err
		}
	}
	return stmt.Finalize()
}

// Row is a single result row. Values are accessed by column name; the second
// return value reports whether the column exists, is non-NULL and could be
// coerced to the requested type.
type Row struct {
	stmt    *sqlite.Stmt
	columns map[string]int
	number  int64
}

// Number is the 1-based position of the row in its result set.
func (r Row) Number() int64 { return r.number }

// Has reports whether the column exists in the result set.
func (r Row) Has(column string) bool {
	_, ok := r.columns[strings.ToLower(column)]
	return ok
}

// IsNull reports whether the column exists but holds NULL.
func (r Row) IsNull(column string) bool {
	col, ok := r.columns[strings.ToLower(column)]
	return ok && r.stmt.ColumnType(col) == sqlite.SQLITE_NULL
}

// Int64 reads an integer column. TEXT values holding numbers are coerced.
func (r Row) Int64(column string) (int64, bool) {
	col, ok := r.columns[strings.ToLower(column)]
	if !ok {
		return 0, false
	}
	switch r.stmt.ColumnType(col) {
	case sqlite.SQLITE_INTEGER:
		return r.stmt.ColumnInt64(col), true
	case sqlite.SQLITE_FLOAT:
		return int64(r.stmt.ColumnFloat(col)), true
	case sqlite.SQLITE_TEXT:
		i, err := strconv.ParseInt(strings.TrimSpace(r.stmt.ColumnText(col)), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Float reads a float column.
func (r Row) Float(column string) (float64, bool) {
	col, ok := r.columns[strings.ToLower(column)]
	if !ok {
		return 0, false
	}
	switch r.stmt.ColumnType(col) {
	case sqlite.SQLITE_FLOAT:
		return r.stmt.ColumnFloat(col), true
	case sqlite.SQLITE_INTEGER:
		return float64(r.stmt.ColumnInt64(col)), true
	}
	return 0, false
}

// Text reads a text column. Numeric values are rendered, blobs and invalid
// encodings are replaced with a safe placeholder.
func (r Row) Text(column string) (string, bool) {
	col, ok := r.columns[strings.ToLower(column)]
	if !ok {
		return "", false
	}
	switch r.stmt.ColumnType(col) {
	case sqlite.SQLITE_TEXT:
		return DecodeText([]byte(r.stmt.ColumnText(col))), true
	case sqlite.SQLITE_INTEGER:
		return strconv.FormatInt(r.stmt.ColumnInt64(col), 10), true
	case sqlite.SQLITE_FLOAT:
		return strconv.FormatFloat(r.stmt.ColumnFloat(col), 'f', -1, 64), true
	case sqlite.SQLITE_BLOB:
		buf := make([]byte, r.stmt.ColumnLen(col))
		r.stmt.ColumnBytes(col, buf)
		return DecodeText(buf), true
	}
	return "", false
}

const (
	maxBinaryPreview = 100
	maxHexPreview    = 50
)

// DecodeText turns raw column bytes into an investigator-readable string.
// Valid UTF-8 is NFC normalized. Binary content is replaced with a hex
// preview or, for larger blobs, a length placeholder, so one undecodable
// value never breaks the record around it.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return norm.NFC.String(string(raw))
	}
	if len(raw) > maxBinaryPreview {
		return fmt.Sprintf("<binary data: %d bytes>", len(raw))
	}
	h := fmt.Sprintf("%x", raw)
	if len(h) > maxHexPreview {
		return "<hex: " + h[:maxHexPreview] + "...>"
	}
	return "<hex: " + h + ">"
}

// QuoteIdentifier quotes a table or column name for use in a query. Schema
// names come from registry signatures and sqlite_master, never from users,
// but quoting keeps reserved words and odd characters working.
func QuoteIdentifier(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}
