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
	"github.com/forensicanalysis/androidevidence/registry"
	"github.com/forensicanalysis/androidevidence/sqlitedb"
	"github.com/forensicanalysis/androidevidence/timeconv"
)

// parseCallLog reads calls from calllog.db or contacts2.db.
func parseCallLog(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error) {
	table := entry.Table

	var records []Record
	err := db.ForEachRow(selectAll(table), func(row sqlitedb.Row) error {
		rawNumber, ok := row.Text(entry.Column("number"))
		if !ok || rawNumber == "" {
			src.skipRow(table, row.Number(), entry.Column("number"), "missing phone number")
			return nil
		}
		rawDate, ok := row.Int64(entry.Column("date"))
		if !ok {
			src.skipRow(table, row.Number(), entry.Column("date"), "missing call time")
			return nil
		}
		callType, ok := row.Int64(entry.Column("type"))
		if !ok {
			src.skipRow(table, row.Number(), entry.Column("type"), "missing call type")
			return nil
		}

		record := &CallLogRecord{
			Number:     canonicalNumber(rawNumber),
			RawNumber:  rawNumber,
			Direction:  callDirection(callType),
			Start:      makeInstant(rawDate, entry.Convention("date", timeconv.JavaMillis)),
			Provenance: newProvenance(src.ID),
		}
		if duration, ok := row.Int64(entry.Column("duration")); ok {
			record.DurationSeconds = &duration
		}
		record.CachedName, _ = row.Text(entry.Column("name"))

		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
