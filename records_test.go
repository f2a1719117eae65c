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

	"github.com/stretchr/testify/assert"

	"github.com/forensicanalysis/androidevidence/timeconv"
)

func TestCanonicalNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"+49 152 1111 2222", "+4915211112222"},
		{"0152/1111-2222", "015211112222"},
		{"(0152) 11 11 22 22", "015211112222"},
		{"110", "110"},
		{"00+49", "0049"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalNumber(tt.raw), "canonicalNumber(%q)", tt.raw)
	}
}

func TestRecordKeysIgnoreConvention(t *testing.T) {
	// the same call time stored in different epoch conventions keys equal
	millis := makeInstant(1583056800000, timeconv.JavaMillis)
	webkit := makeInstant(13227530400000000, timeconv.WebKitMicros)
	assert.Equal(t, millis.Time, webkit.Time)

	first := &CallLogRecord{Number: "110", Start: millis}
	second := &CallLogRecord{Number: "110", Start: webkit}
	assert.Equal(t, first.Key(), second.Key())
}

func TestRecordKeysDiffer(t *testing.T) {
	sent := makeInstant(1583056800000, timeconv.JavaMillis)
	first := &SmsRecord{Address: "110", Body: "a", Sent: sent}
	second := &SmsRecord{Address: "110", Body: "b", Sent: sent}
	assert.NotEqual(t, first.Key(), second.Key(), "different bodies are different messages")

	duration, otherDuration := int64(10), int64(20)
	call := &CallLogRecord{Number: "110", Start: sent, DurationSeconds: &duration}
	otherCall := &CallLogRecord{Number: "110", Start: sent, DurationSeconds: &otherDuration}
	assert.NotEqual(t, call.Key(), otherCall.Key(), "different durations are different calls")
}

func TestInstant(t *testing.T) {
	assert.True(t, Instant{}.IsZero())
	set := makeInstant(1583056800000, timeconv.JavaMillis)
	assert.False(t, set.IsZero())
	assert.False(t, set.Suspect)
	assert.Equal(t, "", Instant{}.keyPart())

	suspect := makeInstant(1000, timeconv.JavaMillis)
	assert.True(t, suspect.Suspect)
	assert.Equal(t, time.Date(1970, time.January, 1, 0, 0, 1, 0, time.UTC), suspect.Time)
}
