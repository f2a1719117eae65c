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
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/androidevidence/registry"
	"github.com/forensicanalysis/androidevidence/timeconv"
)

func testStore(t *testing.T) *RecordStore {
	t.Helper()
	startedAt := time.Date(2020, time.March, 8, 12, 0, 0, 0, time.UTC)

	report := &RunReport{
		StartedAt: startedAt,
		SourceFiles: []*SourceFile{{
			ID:            "9d2bd318-3e59-5b42-8b6b-d3b0d6ea8a2f",
			Path:          "accounts.db",
			Status:        StatusParsed,
			Artifact:      registry.Accounts,
			SchemaVersion: 1,
			MatchScore:    1,
			ExtractedAt:   startedAt,
			RecordCount:   1,
		}},
	}
	report.finish(time.Date(2020, time.March, 8, 12, 0, 1, 0, time.UTC))

	records := []Record{&AccountRecord{
		Name:       "alice@example.com",
		Type:       "com.google",
		Provenance: Provenance{SourceIDs: []string{"9d2bd318-3e59-5b42-8b6b-d3b0d6ea8a2f"}},
	}}
	return NewRecordStore(records, report)
}

func TestStoreSelect(t *testing.T) {
	store := testStore(t)
	assert.Len(t, store.Records(), 1)
	assert.Len(t, store.Select(registry.Accounts), 1)
	assert.Empty(t, store.Select(registry.SMS))
}

func TestStoreExport(t *testing.T) {
	exported := testStore(t).Export()
	require.Len(t, exported, 1)

	assert.Equal(t, "accounts", exported[0]["artifact"])
	assert.Equal(t, "alice@example.com", exported[0]["name"])
	assert.NotContains(t, exported[0], "password", "empty fields are dropped")
	provenance, ok := exported[0]["provenance"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"9d2bd318-3e59-5b42-8b6b-d3b0d6ea8a2f"}, provenance["source_ids"])
}

func TestStoreExportJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, testStore(t).ExportJSON(fs, "records.json"))

	data, err := afero.ReadFile(fs, "records.json")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "export", data)
}

func TestTimeline(t *testing.T) {
	records := []Record{
		&SmsRecord{
			Address:    "+4915211112222",
			Body:       "hello",
			Direction:  DirectionIncoming,
			Sent:       makeInstant(1583056800000, timeconv.JavaMillis),
			Provenance: newProvenance("src-a"),
		},
		&CallLogRecord{
			Number:     "+4915211112222",
			Direction:  DirectionOutgoing,
			Start:      makeInstant(1583053200000, timeconv.JavaMillis),
			Provenance: newProvenance("src-a"),
		},
		&ChromeDownloadRecord{
			TargetPath: "/sdcard/Download/report.pdf",
			Start:      makeInstant(13227038800000000, timeconv.WebKitMicros),
			End:        makeInstant(13227038860000000, timeconv.WebKitMicros),
			State:      DownloadComplete,
			Provenance: newProvenance("src-b"),
		},
	}
	store := NewRecordStore(records, &RunReport{})

	events := store.Timeline()
	require.Len(t, events, 4, "a download contributes a start and an end event")

	assert.Equal(t, "download_start", events[0].Event)
	assert.Equal(t, "download_end", events[1].Event)
	assert.Equal(t, "call_outgoing", events[2].Event)
	assert.Equal(t, "sms_incoming", events[3].Event)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Time.Before(events[i-1].Time))
	}

	row := FormatEvent(events[2])
	assert.Contains(t, row, "2020-03-01 09:00:00")
	assert.Contains(t, row, "call_log")
	assert.Contains(t, row, "+4915211112222")
}
