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
	"sort"

	"github.com/forensicanalysis/androidevidence/registry"
)

// TimelineEvent is one dated activity derived from a record. A record can
// contribute several events, a download for example has a start and an end.
type TimelineEvent struct {
	Time      Instant           `json:"time"`
	Artifact  registry.Artifact `json:"artifact"`
	Event     string            `json:"event"`
	Summary   string            `json:"summary"`
	SourceIDs []string          `json:"source_ids"`
}

// Timeline flattens all dated records into a single chronological view.
// Suspect instants are included, their flag survives into the event.
func (s *RecordStore) Timeline() []TimelineEvent {
	var events []TimelineEvent

	add := func(t Instant, record Record, event, summary string) {
		if t.IsZero() {
			return
		}
		events = append(events, TimelineEvent{
			Time:      t,
			Artifact:  record.Artifact(),
			Event:     event,
			Summary:   summary,
			SourceIDs: record.SourceIDs(),
		})
	}

	for _, record := range s.records {
		switch r := record.(type) {
		case *CalendarEventRecord:
			add(r.Start, r, "event_start", r.Title)
			add(r.End, r, "event_end", r.Title)
		case *CallLogRecord:
			add(r.Start, r, "call_"+string(r.Direction), r.Number)
		case *SmsRecord:
			add(r.Sent, r, "sms_"+string(r.Direction), r.Address)
		case *ChromeHistoryRecord:
			add(r.Visit, r, "page_visit", r.URL)
		case *ChromeDownloadRecord:
			add(r.Start, r, "download_start", r.TargetPath)
			add(r.End, r, "download_end", r.TargetPath)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Time.Time.Equal(events[j].Time.Time) {
			return events[i].Time.Before(events[j].Time)
		}
		if events[i].Artifact != events[j].Artifact {
			return events[i].Artifact < events[j].Artifact
		}
		return events[i].Summary < events[j].Summary
	})
	return events
}

// FormatEvent renders one timeline row for terminal output.
func FormatEvent(e TimelineEvent) string {
	suspect := ""
	if e.Time.Suspect {
		suspect = " (suspect)"
	}
	return fmt.Sprintf("%s%s  %-16s %-16s %s",
		e.Time.Time.UTC().Format("2006-01-02 15:04:05"), suspect, e.Artifact.Key(), e.Event, e.Summary)
}
