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

// parseCalendar reads events from calendar.db. All-day events store their
// start at local midnight in java_millis like any other event.
func parseCalendar(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error) {
	table := entry.Table

	var records []Record
	err := db.ForEachRow(selectAll(table), func(row sqlitedb.Row) error {
		eventID, ok := row.Int64(entry.Column("event_id"))
		if !ok {
			src.skipRow(table, row.Number(), entry.Column("event_id"), "missing event id")
			return nil
		}
		rawStart, ok := row.Int64(entry.Column("start"))
		if !ok {
			src.skipRow(table, row.Number(), entry.Column("start"), "missing start time")
			return nil
		}

		record := &CalendarEventRecord{
			EventID:    eventID,
			Start:      makeInstant(rawStart, entry.Convention("start", timeconv.JavaMillis)),
			Provenance: newProvenance(src.ID),
		}
		record.CalendarID, _ = row.Int64(entry.Column("calendar_id"))
		record.Title, _ = row.Text(entry.Column("title"))
		record.Description, _ = row.Text(entry.Column("description"))
		record.Timezone, _ = row.Text(entry.Column("timezone"))
		record.Location, _ = row.Text(entry.Column("location"))
		record.Organizer, _ = row.Text(entry.Column("organizer"))
		record.RecurrenceRule, _ = row.Text(entry.Column("rrule"))
		if rawEnd, ok := row.Int64(entry.Column("end")); ok {
			record.End = optionalInstant(rawEnd, entry.Convention("end", timeconv.JavaMillis))
		}
		if allDay, ok := row.Int64(entry.Column("all_day")); ok {
			record.AllDay = allDay != 0
		}

		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
