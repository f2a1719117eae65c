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

// Package timeconv converts raw timestamps found in Android application
// databases into canonical UTC instants. Android apps store times in several
// epoch conventions (unix seconds, java/unix milliseconds, unix microseconds
// and WebKit microseconds since 1601) and the convention is never recorded in
// the database itself, so it must be declared by the caller.
package timeconv

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Convention is a declared epoch convention for a raw timestamp value.
type Convention string

// All supported epoch conventions.
const (
	UnixSeconds  Convention = "unix_seconds"
	UnixMillis   Convention = "unix_millis"
	UnixMicros   Convention = "unix_micros"
	WebKitMicros Convention = "webkit_micros"
	JavaMillis   Convention = "java_millis"
)

// webkitEpochOffsetMicros is the offset between the WebKit epoch (1601-01-01)
// and the unix epoch (1970-01-01) in microseconds. 134774 days.
const webkitEpochOffsetMicros = 11644473600 * 1000000

// Bounds is the sane time window for forensic data. Converted instants
// outside the window are flagged, not discarded, since a wrong epoch
// convention is more likely than a genuine 1970 call log entry.
type Bounds struct {
	Min time.Time
	Max time.Time
}

// DefaultBounds covers 1990-01-01 to 2100-01-01.
var DefaultBounds = Bounds{
	Min: time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
	Max: time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC),
}

// OutOfRangeError reports a converted instant outside the configured bounds.
// Instant still carries the converted value so callers can keep the row and
// mark it suspect.
type OutOfRangeError struct {
	Raw        int64
	Convention Convention
	Instant    time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("timestamp %d (%s) converts to %s, outside sane bounds",
		e.Raw, e.Convention, e.Instant.Format(time.RFC3339))
}

// IsOutOfRange reports whether err is an OutOfRangeError.
func IsOutOfRange(err error) bool {
	_, ok := err.(*OutOfRangeError)
	return ok
}

// ParseConvention parses a convention name as used in registry files.
func ParseConvention(s string) (Convention, error) {
	switch Convention(strings.ToLower(strings.TrimSpace(s))) {
	case UnixSeconds:
		return UnixSeconds, nil
	case UnixMillis:
		return UnixMillis, nil
	case UnixMicros:
		return UnixMicros, nil
	case WebKitMicros:
		return WebKitMicros, nil
	case JavaMillis:
		return JavaMillis, nil
	}
	return "", fmt.Errorf("unknown epoch convention %q", s)
}

// Normalize converts a raw timestamp under the given convention into a UTC
// instant with microsecond resolution, checked against DefaultBounds.
func Normalize(raw int64, c Convention) (time.Time, error) {
	return NormalizeBounded(raw, c, DefaultBounds)
}

// NormalizeBounded converts a raw timestamp under the given convention into a
// UTC instant with microsecond resolution. Values converting outside the
// bounds return the instant together with an *OutOfRangeError.
func NormalizeBounded(raw int64, c Convention, b Bounds) (time.Time, error) {
	var us int64
	switch c {
	case UnixSeconds:
		us = raw * 1000000
	case UnixMillis, JavaMillis:
		us = raw * 1000
	case UnixMicros:
		us = raw
	case WebKitMicros:
		us = raw - webkitEpochOffsetMicros
	default:
		return time.Time{}, fmt.Errorf("unknown epoch convention %q", c)
	}

	t := time.UnixMicro(us).UTC()
	if t.Before(b.Min) || t.After(b.Max) {
		return t, &OutOfRangeError{Raw: raw, Convention: c, Instant: t}
	}
	return t, nil
}

// NormalizeString converts a raw textual timestamp. Some vendors store
// numeric timestamps as TEXT columns, occasionally with a fractional part.
func NormalizeString(raw string, c Convention, b Bounds) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return NormalizeBounded(i, c, b)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not numeric", raw)
	}
	return NormalizeBounded(int64(f), c, b)
}

// Raw is the inverse of Normalize. It converts an instant back into a raw
// value under the given convention. Precision beyond the convention's unit
// is truncated.
func Raw(t time.Time, c Convention) int64 {
	us := t.UnixMicro()
	switch c {
	case UnixSeconds:
		return us / 1000000
	case UnixMillis, JavaMillis:
		return us / 1000
	case WebKitMicros:
		return us + webkitEpochOffsetMicros
	default:
		return us
	}
}
