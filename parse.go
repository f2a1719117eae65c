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
	"fmt"

	"github.com/forensicanalysis/androidevidence/registry"
	"github.com/forensicanalysis/androidevidence/sqlitedb"
	"github.com/forensicanalysis/androidevidence/timeconv"
)

// Parse error causes.
const (
	CauseOpen      = "open"
	CauseCorrupted = "corrupted"
	CauseTimeout   = "timeout"
	CauseCancelled = "cancelled"
)

// ParseError is a file level failure. Row level problems never become
// ParseErrors; they are recorded on the source file and the row is skipped.
type ParseError struct {
	Path  string
	Cause string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s (%s): %v", e.Path, e.Cause, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// parseFunc converts all rows of a matched database into canonical records.
// Rows that cannot be converted are recorded on src and skipped.
type parseFunc func(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error)

var parsers = map[registry.Artifact]parseFunc{
	registry.Accounts:        parseAccounts,
	registry.Calendar:        parseCalendar,
	registry.CallLog:         parseCallLog,
	registry.Contacts:        parseContacts,
	registry.SMS:             parseSMS,
	registry.ChromeHistory:   parseChromeHistory,
	registry.ChromeDownloads: parseChromeDownloads,
}

func selectAll(table string) string {
	return "SELECT * FROM " + sqlitedb.QuoteIdentifier(table)
}

// skipRow records a malformed row. Sibling rows of the same file are not
// affected.
func (f *SourceFile) skipRow(table string, row int64, field, reason string) {
	f.RowErrors = append(f.RowErrors, RowError{Table: table, Row: row, Field: field, Reason: reason})
}

// makeInstant normalizes a raw timestamp. Values outside the sane time
// window are kept but flagged as suspect, never dropped.
func makeInstant(raw int64, c timeconv.Convention) Instant {
	t, err := timeconv.Normalize(raw, c)
	return Instant{Time: t, Raw: raw, Suspect: err != nil}
}

// optionalInstant treats zero and negative raw values as absent, which is how
// Android and Chrome store unset timestamp columns.
func optionalInstant(raw int64, c timeconv.Convention) Instant {
	if raw <= 0 {
		return Instant{}
	}
	return makeInstant(raw, c)
}

var callDirections = map[int64]Direction{
	1: DirectionIncoming,
	2: DirectionOutgoing,
	3: DirectionMissed,
	5: DirectionRejected,
	6: DirectionBlocked,
}

var smsDirections = map[int64]Direction{
	1: DirectionIncoming,
	2: DirectionOutgoing,
}

var downloadStates = map[int64]DownloadState{
	1: DownloadComplete,
	2: DownloadCancelled,
	3: DownloadInterrupted,
	4: DownloadInProgress,
}

func callDirection(code int64) Direction {
	if d, ok := callDirections[code]; ok {
		return d
	}
	return DirectionUnknown
}

func smsDirection(code int64) Direction {
	if d, ok := smsDirections[code]; ok {
		return d
	}
	return DirectionUnknown
}

func downloadState(code int64) DownloadState {
	if s, ok := downloadStates[code]; ok {
		return s
	}
	return DownloadUnknown
}
