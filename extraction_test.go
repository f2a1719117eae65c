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

package androidevidence

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crawshaw.io/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/androidevidence/registry"
)

func createDB(t *testing.T, name string, statements ...string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", strings.Replace(t.Name(), "/", "_", -1))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	conn, err := sqlite.OpenConn(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, statement := range statements {
		stmt, err := conn.Prepare(statement)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := stmt.Step(); err != nil {
			t.Fatal(err)
		}
		if err := stmt.Finalize(); err != nil {
			t.Fatal(err)
		}
	}
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func createCallLogDB(t *testing.T, rows ...string) string {
	t.Helper()
	statements := []string{
		"CREATE TABLE calls (_id INTEGER PRIMARY KEY, number TEXT, date INTEGER, duration INTEGER, type INTEGER, name TEXT)",
	}
	statements = append(statements, rows...)
	return createDB(t, "calllog.db", statements...)
}

func TestExtractCallLog(t *testing.T) {
	var rows []string
	for i := 0; i < 9; i++ {
		rows = append(rows, fmt.Sprintf(
			"INSERT INTO calls (number, date, duration, type, name) VALUES ('+49 152 1111%04d', %d, 60, 1, 'Alice')",
			i, 1583056800000+int64(i)*60000))
	}
	// one malformed row must not affect its siblings
	rows = append(rows, "INSERT INTO calls (number, date, duration, type) VALUES ('+4915211110000', NULL, 12, 2)")
	path := createCallLogDB(t, rows...)

	store, err := Extract(context.Background(), []string{path}, Options{})
	require.NoError(t, err)

	report := store.Report()
	require.Len(t, report.SourceFiles, 1)
	src := report.SourceFiles[0]

	assert.Equal(t, StatusParsed, src.Status)
	assert.Equal(t, registry.CallLog, src.Artifact)
	assert.Equal(t, 9, src.RecordCount)
	require.Len(t, src.RowErrors, 1)
	assert.Equal(t, "calls", src.RowErrors[0].Table)
	assert.Equal(t, "date", src.RowErrors[0].Field)

	assert.Equal(t, 1, report.Totals["files_parsed"])
	assert.Equal(t, 1, report.Totals["rows_skipped"])
	assert.Equal(t, 9, report.Totals["records"])
	assert.Equal(t, 9, report.Totals["records_call_log"])

	records := store.Select(registry.CallLog)
	require.Len(t, records, 9)
	call := records[0].(*CallLogRecord)
	assert.Equal(t, "+4915211110000", call.Number)
	assert.Equal(t, "+49 152 11110000", call.RawNumber)
	assert.Equal(t, DirectionIncoming, call.Direction)
	assert.Equal(t, time.Date(2020, time.March, 1, 10, 0, 0, 0, time.UTC), call.Start.Time)
	require.NotNil(t, call.DurationSeconds)
	assert.EqualValues(t, 60, *call.DurationSeconds)
	assert.Equal(t, []string{src.ID}, call.SourceIDs())
}

func TestExtractUnmatched(t *testing.T) {
	path := createDB(t, "notes.db",
		"CREATE TABLE notes (id INTEGER PRIMARY KEY, content TEXT)",
		"INSERT INTO notes (content) VALUES ('remember the milk')",
	)

	store, err := Extract(context.Background(), []string{path}, Options{})
	require.NoError(t, err)

	assert.Empty(t, store.Records())
	require.Len(t, store.Report().SourceFiles, 1)
	assert.Equal(t, StatusUnmatched, store.Report().SourceFiles[0].Status)
}

func TestExtractCorrupted(t *testing.T) {
	dir, err := ioutil.TempDir("", "TestExtractCorrupted")
	require.NoError(t, err)
	path := filepath.Join(dir, "broken.db")
	require.NoError(t, ioutil.WriteFile(path, []byte("this is no database"), 0600))

	store, err := Extract(context.Background(), []string{path}, Options{})
	require.NoError(t, err, "a broken file never aborts the run")

	require.Len(t, store.Report().SourceFiles, 1)
	src := store.Report().SourceFiles[0]
	assert.Equal(t, StatusCorrupted, src.Status)
	assert.Contains(t, src.Error, CauseOpen)
}

func TestExtractFileTimeout(t *testing.T) {
	path := createCallLogDB(t,
		`INSERT INTO calls (number, date, duration, type)
		 WITH RECURSIVE seq(n) AS (SELECT 1 UNION ALL SELECT n+1 FROM seq WHERE n < 50000)
		 SELECT printf('+49%08d', n), 1583056800000 + n, 30, 1 FROM seq`)

	store, err := Extract(context.Background(), []string{path}, Options{
		FileTimeout: 2 * time.Millisecond,
	})
	require.NoError(t, err, "a timed out file never aborts the run")

	require.Len(t, store.Report().SourceFiles, 1)
	src := store.Report().SourceFiles[0]
	assert.Equal(t, StatusCorrupted, src.Status)
	assert.Contains(t, src.Error, CauseTimeout)
	assert.Empty(t, store.Records())
}

func TestExtractTimeoutDuringOpen(t *testing.T) {
	path := createCallLogDB(t,
		"INSERT INTO calls (number, date, duration, type) VALUES ('110', 1583056800000, 10, 1)")

	// the deadline has passed before the header probe even runs
	store, err := Extract(context.Background(), []string{path}, Options{
		FileTimeout: time.Nanosecond,
	})
	require.NoError(t, err)

	require.Len(t, store.Report().SourceFiles, 1)
	src := store.Report().SourceFiles[0]
	assert.Equal(t, StatusCorrupted, src.Status)
	assert.Contains(t, src.Error, CauseTimeout, "a timed out open is a timeout, not a broken file")
}

func TestExtractMergesAcrossSources(t *testing.T) {
	history := func(name, title string) string {
		return createDB(t, name,
			"CREATE TABLE urls (id INTEGER PRIMARY KEY, url TEXT, title TEXT, visit_count INTEGER, hidden INTEGER, last_visit_time INTEGER)",
			fmt.Sprintf("INSERT INTO urls (url, title, visit_count, hidden, last_visit_time) VALUES ('https://example.com/', '%s', 4, 0, 13227038800000000)", title),
		)
	}
	first := history("History", "Example Domain")
	second := history("History2", "Example")

	store, err := Extract(context.Background(), []string{first, second}, Options{
		ExtractedAt: time.Date(2020, time.March, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	records := store.Select(registry.ChromeHistory)
	require.Len(t, records, 1, "the same visit from two sources merges into one record")

	visit := records[0].(*ChromeHistoryRecord)
	assert.Len(t, visit.SourceIDs(), 2)
	require.Len(t, visit.Provenance.History, 1)
	assert.Equal(t, "title", visit.Provenance.History[0].Field)
	assert.NotEqual(t, visit.Title, visit.Provenance.History[0].Value)
}

func TestExtractCancelled(t *testing.T) {
	path := createCallLogDB(t,
		"INSERT INTO calls (number, date, duration, type) VALUES ('110', 1583056800000, 10, 1)")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store, err := Extract(ctx, []string{path}, Options{})
	require.NoError(t, err)

	report := store.Report()
	assert.True(t, report.Cancelled)
	require.Len(t, report.SourceFiles, 1, "cancelled runs still report every discovered file")
	assert.Equal(t, StatusUnopened, report.SourceFiles[0].Status)
	assert.Empty(t, store.Records())
}

func TestExtractGlobAndDirectory(t *testing.T) {
	path := createCallLogDB(t,
		"INSERT INTO calls (number, date, duration, type) VALUES ('110', 1583056800000, 10, 1)")
	dir := filepath.Dir(path)

	byGlob, err := Extract(context.Background(), []string{filepath.Join(dir, "*.db")}, Options{})
	require.NoError(t, err)
	byDir, err := Extract(context.Background(), []string{dir}, Options{})
	require.NoError(t, err)

	assert.Len(t, byGlob.Records(), 1)
	assert.Len(t, byDir.Records(), 1)

	_, err = Extract(context.Background(), []string{filepath.Join(dir, "missing-*.db")}, Options{})
	assert.Error(t, err, "inputs that match nothing are reported")
}

func TestExtractDeterministicReport(t *testing.T) {
	path := createCallLogDB(t,
		"INSERT INTO calls (number, date, duration, type) VALUES ('110', 1583056800000, 10, 1)")

	extractedAt := time.Date(2020, time.March, 8, 0, 0, 0, 0, time.UTC)
	first, err := Extract(context.Background(), []string{path}, Options{ExtractedAt: extractedAt})
	require.NoError(t, err)
	second, err := Extract(context.Background(), []string{path}, Options{ExtractedAt: extractedAt})
	require.NoError(t, err)

	assert.Equal(t, first.Report().SourceFiles[0].ID, second.Report().SourceFiles[0].ID,
		"source IDs are derived from the path")
	assert.Equal(t, first.Export(), second.Export())
}
