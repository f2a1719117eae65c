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

// parseSMS reads short messages from mmssms.db.
func parseSMS(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error) {
	table := entry.Table

	var records []Record
	err := db.ForEachRow(selectAll(table), func(row sqlitedb.Row) error {
		address, ok := row.Text(entry.Column("address"))
		if !ok || address == "" {
			src.skipRow(table, row.Number(), entry.Column("address"), "missing address")
			return nil
		}
		body, ok := row.Text(entry.Column("body"))
		if !ok {
			src.skipRow(table, row.Number(), entry.Column("body"), "missing body")
			return nil
		}
		rawDate, ok := row.Int64(entry.Column("date"))
		if !ok {
			src.skipRow(table, row.Number(), entry.Column("date"), "missing message time")
			return nil
		}
		messageType, ok := row.Int64(entry.Column("type"))
		if !ok {
			src.skipRow(table, row.Number(), entry.Column("type"), "missing message type")
			return nil
		}

		record := &SmsRecord{
			Address:    address,
			Body:       body,
			Direction:  smsDirection(messageType),
			Sent:       makeInstant(rawDate, entry.Convention("date", timeconv.JavaMillis)),
			Provenance: newProvenance(src.ID),
		}
		record.ThreadID, _ = row.Int64(entry.Column("thread_id"))
		if read, ok := row.Int64(entry.Column("read")); ok {
			record.Read = read != 0
		}

		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
