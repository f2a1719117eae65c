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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCallLog(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	// an old call log without the newer optional columns must match v1
	result := r.Match(map[string][]string{
		"calls":   {"_id", "number", "date", "duration", "type", "name"},
		"android_metadata": {"locale"},
	})
	require.Equal(t, StatusMatched, result.Status)
	assert.Equal(t, CallLog, result.Entry.Artifact)
	assert.Equal(t, 1, result.Entry.SchemaVersion)
	assert.Equal(t, 1.0, result.Score)

	// with the newer columns both versions reach full coverage and the
	// higher version wins the tie
	result = r.Match(map[string][]string{
		"calls": {"_id", "number", "date", "duration", "type", "name", "geocoded_location", "presentation"},
	})
	require.Equal(t, StatusMatched, result.Status)
	assert.Equal(t, CallLog, result.Entry.Artifact)
	assert.Equal(t, 2, result.Entry.SchemaVersion)
}

func TestMatchCaseInsensitive(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	result := r.Match(map[string][]string{
		"Events": {"_id", "Title", "DTSTART", "dtend", "eventTimezone", "eventLocation", "allDay"},
	})
	require.Equal(t, StatusMatched, result.Status)
	assert.Equal(t, Calendar, result.Entry.Artifact)
}

func TestMatchChromeHistoryFullFile(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	// a complete Chrome History database contains history, downloads and
	// meta tables; chrome_history v2 must win over the downloads signature
	result := r.Match(map[string][]string{
		"urls":                 {"id", "url", "title", "visit_count", "last_visit_time", "hidden"},
		"visits":               {"id", "url", "visit_time", "transition"},
		"meta":                 {"key", "value"},
		"downloads":            {"id", "target_path", "start_time", "received_bytes", "total_bytes", "state", "end_time"},
		"downloads_url_chains": {"id", "chain_index", "url"},
	})
	require.Equal(t, StatusMatched, result.Status)
	assert.Equal(t, ChromeHistory, result.Entry.Artifact)
	assert.Equal(t, 2, result.Entry.SchemaVersion)
}

func TestMatchChromeDownloadsOnly(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	result := r.Match(map[string][]string{
		"downloads":            {"id", "target_path", "start_time", "received_bytes", "total_bytes", "state", "end_time"},
		"downloads_url_chains": {"id", "chain_index", "url"},
	})
	require.Equal(t, StatusMatched, result.Status)
	assert.Equal(t, ChromeDownloads, result.Entry.Artifact)
}

func TestMatchUnmatched(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	result := r.Match(map[string][]string{
		"messages_table": {"foo", "bar"},
		"weird":          {"baz"},
	})
	assert.Equal(t, StatusUnmatched, result.Status)
	assert.Nil(t, result.Entry)
}

func TestMatchMissingRequiredColumn(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	// sms table without a body column must not match at all
	result := r.Match(map[string][]string{
		"sms": {"address", "date", "type", "read", "thread_id"},
	})
	assert.Equal(t, StatusUnmatched, result.Status)
}

func TestMatchOptionalThreshold(t *testing.T) {
	r := &Registry{OptionalThreshold: 1.0}
	require.NoError(t, r.Add(Entry{
		Artifact:      SMS,
		SchemaVersion: 1,
		Tables: map[string]TableSignature{
			"sms": {Required: []string{"address", "body"}, Optional: []string{"read", "thread_id"}},
		},
	}))

	result := r.Match(map[string][]string{"sms": {"address", "body", "read"}})
	assert.Equal(t, StatusUnmatched, result.Status)

	r.OptionalThreshold = 0.5
	result = r.Match(map[string][]string{"sms": {"address", "body", "read"}})
	assert.Equal(t, StatusMatched, result.Status)
	assert.InDelta(t, 0.75, result.Score, 0.0001)
}

func TestMatchAmbiguous(t *testing.T) {
	r := &Registry{}
	require.NoError(t, r.Add(Entry{
		Artifact:      SMS,
		SchemaVersion: 1,
		Tables: map[string]TableSignature{
			"log": {Required: []string{"address", "date"}},
		},
	}))
	require.NoError(t, r.Add(Entry{
		Artifact:      CallLog,
		SchemaVersion: 1,
		Tables: map[string]TableSignature{
			"log": {Required: []string{"address", "date"}},
		},
	}))

	result := r.Match(map[string][]string{"log": {"address", "date"}})
	require.Equal(t, StatusAmbiguous, result.Status)
	assert.Len(t, result.Candidates, 2)
}

func TestMatchVersionTieBreak(t *testing.T) {
	r := &Registry{}
	for version := 1; version <= 3; version++ {
		require.NoError(t, r.Add(Entry{
			Artifact:      Accounts,
			SchemaVersion: version,
			Tables: map[string]TableSignature{
				"accounts": {Required: []string{"name", "type"}},
			},
		}))
	}

	result := r.Match(map[string][]string{"accounts": {"name", "type"}})
	require.Equal(t, StatusMatched, result.Status)
	assert.Equal(t, 3, result.Entry.SchemaVersion)
}
