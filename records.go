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
	"crypto/sha1" // #nosec
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forensicanalysis/androidevidence/registry"
)

// Instant is a normalized UTC point in time with microsecond resolution. Raw
// keeps the source value for verification; Suspect marks instants outside the
// sane forensic time window, which are retained rather than dropped.
type Instant struct {
	Time    time.Time `json:"time" structs:"time,omitnested"`
	Raw     int64     `json:"raw,omitempty" structs:"raw,omitempty"`
	Suspect bool      `json:"suspect,omitempty" structs:"suspect,omitempty"`
}

// IsZero reports whether the instant is absent.
func (i Instant) IsZero() bool { return i.Time.IsZero() && i.Raw == 0 }

// Before reports whether i is before other. Instants compare regardless of
// their source epoch convention.
func (i Instant) Before(other Instant) bool { return i.Time.Before(other.Time) }

const keyTimeFormat = "2006-01-02T15:04:05.000000Z"

func (i Instant) keyPart() string {
	if i.IsZero() {
		return ""
	}
	return i.Time.UTC().Format(keyTimeFormat)
}

// Direction of a call or message.
type Direction string

// Call and message directions.
const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
	DirectionMissed   Direction = "missed"
	DirectionRejected Direction = "rejected"
	DirectionBlocked  Direction = "blocked"
	DirectionUnknown  Direction = "unknown"
)

// DownloadState of a browser download.
type DownloadState string

// Download states.
const (
	DownloadComplete    DownloadState = "complete"
	DownloadCancelled   DownloadState = "cancelled"
	DownloadInterrupted DownloadState = "interrupted"
	DownloadInProgress  DownloadState = "in_progress"
	DownloadUnknown     DownloadState = "unknown"
)

// FieldValue is one superseded or conflicting value of a record field,
// attributed to the source it came from.
type FieldValue struct {
	Field    string `json:"field" structs:"field"`
	Value    string `json:"value" structs:"value"`
	SourceID string `json:"source_id" structs:"source_id"`
}

// Provenance ties a record to the source files it was derived or merged
// from. History holds values that differed between merged contributors,
// newest first; nothing is silently discarded in favor of a winner.
type Provenance struct {
	SourceIDs []string     `json:"source_ids" structs:"source_ids"`
	History   []FieldValue `json:"history,omitempty" structs:"history,omitempty"`
}

func newProvenance(sourceID string) Provenance {
	return Provenance{SourceIDs: []string{sourceID}}
}

// Record is a canonical, artifact-type-specific record.
type Record interface {
	// Artifact returns the artifact type the record belongs to.
	Artifact() registry.Artifact
	// Key identifies the record for deduplication across sources.
	Key() string
	// SourceIDs lists the source files the record was derived from.
	SourceIDs() []string
}

// mergeable is implemented by all canonical records and drives the generic
// merge fold.
type mergeable interface {
	Record
	prov() *Provenance
	// fields renders the non-key scalar fields for history diffing.
	fields() map[string]string
	// conflictFields lists fields that may not differ between merge
	// candidates with the same key.
	conflictFields() []string
}

func key(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// AccountRecord is a configured account from accounts.db.
type AccountRecord struct {
	Name       string     `json:"name" structs:"name"`
	Type       string     `json:"type" structs:"type"`
	Package    string     `json:"package,omitempty" structs:"package,omitempty"`
	SyncState  string     `json:"sync_state,omitempty" structs:"sync_state,omitempty"`
	Password   string     `json:"password,omitempty" structs:"password,omitempty"`
	Provenance Provenance `json:"provenance" structs:"provenance"`
}

func (r *AccountRecord) Artifact() registry.Artifact { return registry.Accounts }
func (r *AccountRecord) Key() string                 { return key(r.Name, r.Type) }
func (r *AccountRecord) SourceIDs() []string         { return r.Provenance.SourceIDs }
func (r *AccountRecord) prov() *Provenance           { return &r.Provenance }
func (r *AccountRecord) conflictFields() []string    { return []string{"package"} }

func (r *AccountRecord) fields() map[string]string {
	return map[string]string{
		"package":    r.Package,
		"sync_state": r.SyncState,
		"password":   r.Password,
	}
}

// CalendarEventRecord is a calendar event from calendar.db.
type CalendarEventRecord struct {
	CalendarID     int64      `json:"calendar_id" structs:"calendar_id"`
	EventID        int64      `json:"event_id" structs:"event_id"`
	Title          string     `json:"title,omitempty" structs:"title,omitempty"`
	Description    string     `json:"description,omitempty" structs:"description,omitempty"`
	Start          Instant    `json:"start" structs:"start"`
	End            Instant    `json:"end,omitempty" structs:"end,omitempty"`
	Timezone       string     `json:"timezone,omitempty" structs:"timezone,omitempty"`
	Location       string     `json:"location,omitempty" structs:"location,omitempty"`
	Organizer      string     `json:"organizer,omitempty" structs:"organizer,omitempty"`
	RecurrenceRule string     `json:"recurrence_rule,omitempty" structs:"recurrence_rule,omitempty"`
	AllDay         bool       `json:"all_day,omitempty" structs:"all_day,omitempty"`
	Provenance     Provenance `json:"provenance" structs:"provenance"`
}

func (r *CalendarEventRecord) Artifact() registry.Artifact { return registry.Calendar }
func (r *CalendarEventRecord) SourceIDs() []string         { return r.Provenance.SourceIDs }
func (r *CalendarEventRecord) prov() *Provenance           { return &r.Provenance }
func (r *CalendarEventRecord) conflictFields() []string    { return nil }

func (r *CalendarEventRecord) Key() string {
	return key(strconv.FormatInt(r.CalendarID, 10), strconv.FormatInt(r.EventID, 10), r.Start.keyPart())
}

func (r *CalendarEventRecord) fields() map[string]string {
	return map[string]string{
		"title":           r.Title,
		"description":     r.Description,
		"timezone":        r.Timezone,
		"location":        r.Location,
		"organizer":       r.Organizer,
		"recurrence_rule": r.RecurrenceRule,
	}
}

// CallLogRecord is a single call from calllog.db. Number is the digits-only
// canonical form, RawNumber the display form as stored.
type CallLogRecord struct {
	Number          string     `json:"number" structs:"number"`
	RawNumber       string     `json:"raw_number,omitempty" structs:"raw_number,omitempty"`
	Direction       Direction  `json:"direction" structs:"direction"`
	Start           Instant    `json:"start" structs:"start"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty" structs:"duration_seconds,omitempty"`
	CachedName      string     `json:"cached_name,omitempty" structs:"cached_name,omitempty"`
	Provenance      Provenance `json:"provenance" structs:"provenance"`
}

func (r *CallLogRecord) Artifact() registry.Artifact { return registry.CallLog }
func (r *CallLogRecord) SourceIDs() []string         { return r.Provenance.SourceIDs }
func (r *CallLogRecord) prov() *Provenance           { return &r.Provenance }
func (r *CallLogRecord) conflictFields() []string    { return []string{"direction"} }

func (r *CallLogRecord) Key() string {
	duration := ""
	if r.DurationSeconds != nil {
		duration = strconv.FormatInt(*r.DurationSeconds, 10)
	}
	return key(r.Number, r.Start.keyPart(), duration)
}

func (r *CallLogRecord) fields() map[string]string {
	return map[string]string{
		"direction":   string(r.Direction),
		"cached_name": r.CachedName,
	}
}

// ContactRecord is a contact from contacts2.db with its collected phone
// numbers, email addresses and postal addresses.
type ContactRecord struct {
	ContactID       int64      `json:"contact_id" structs:"contact_id"`
	DisplayName     string     `json:"display_name,omitempty" structs:"display_name,omitempty"`
	Account         string     `json:"account,omitempty" structs:"account,omitempty"`
	Phones          []string   `json:"phones,omitempty" structs:"phones,omitempty"`
	Emails          []string   `json:"emails,omitempty" structs:"emails,omitempty"`
	PostalAddresses []string   `json:"postal_addresses,omitempty" structs:"postal_addresses,omitempty"`
	Deleted         bool       `json:"deleted,omitempty" structs:"deleted,omitempty"`
	Provenance      Provenance `json:"provenance" structs:"provenance"`
}

func (r *ContactRecord) Artifact() registry.Artifact { return registry.Contacts }
func (r *ContactRecord) SourceIDs() []string         { return r.Provenance.SourceIDs }
func (r *ContactRecord) prov() *Provenance           { return &r.Provenance }
func (r *ContactRecord) conflictFields() []string    { return nil }

func (r *ContactRecord) Key() string {
	return key(r.Account, strconv.FormatInt(r.ContactID, 10))
}

func (r *ContactRecord) fields() map[string]string {
	return map[string]string{
		"display_name": r.DisplayName,
	}
}

// SmsRecord is a short message from mmssms.db.
type SmsRecord struct {
	Address    string     `json:"address" structs:"address"`
	Body       string     `json:"body" structs:"body"`
	Direction  Direction  `json:"direction" structs:"direction"`
	Sent       Instant    `json:"sent" structs:"sent"`
	ThreadID   int64      `json:"thread_id,omitempty" structs:"thread_id,omitempty"`
	Read       bool       `json:"read,omitempty" structs:"read,omitempty"`
	Provenance Provenance `json:"provenance" structs:"provenance"`
}

func (r *SmsRecord) Artifact() registry.Artifact { return registry.SMS }
func (r *SmsRecord) SourceIDs() []string         { return r.Provenance.SourceIDs }
func (r *SmsRecord) prov() *Provenance           { return &r.Provenance }
func (r *SmsRecord) conflictFields() []string    { return []string{"direction"} }

func (r *SmsRecord) Key() string {
	bodyHash := sha1.Sum([]byte(r.Body)) // #nosec
	return key(r.Address, r.Sent.keyPart(), fmt.Sprintf("%x", bodyHash))
}

func (r *SmsRecord) fields() map[string]string {
	return map[string]string{
		"direction": string(r.Direction),
		"read":      strconv.FormatBool(r.Read),
	}
}

// ChromeHistoryRecord is a single page visit from a Chrome History database.
type ChromeHistoryRecord struct {
	URL        string     `json:"url" structs:"url"`
	Title      string     `json:"title,omitempty" structs:"title,omitempty"`
	Visit      Instant    `json:"visit" structs:"visit"`
	VisitCount int64      `json:"visit_count,omitempty" structs:"visit_count,omitempty"`
	Transition int64      `json:"transition,omitempty" structs:"transition,omitempty"`
	Provenance Provenance `json:"provenance" structs:"provenance"`
}

func (r *ChromeHistoryRecord) Artifact() registry.Artifact { return registry.ChromeHistory }
func (r *ChromeHistoryRecord) SourceIDs() []string         { return r.Provenance.SourceIDs }
func (r *ChromeHistoryRecord) prov() *Provenance           { return &r.Provenance }
func (r *ChromeHistoryRecord) conflictFields() []string    { return nil }

func (r *ChromeHistoryRecord) Key() string {
	return key(r.URL, r.Visit.keyPart())
}

func (r *ChromeHistoryRecord) fields() map[string]string {
	return map[string]string{
		"title":       r.Title,
		"visit_count": strconv.FormatInt(r.VisitCount, 10),
	}
}

// ChromeDownloadRecord is a download from a Chrome History database.
type ChromeDownloadRecord struct {
	TargetPath    string        `json:"target_path" structs:"target_path"`
	URL           string        `json:"url,omitempty" structs:"url,omitempty"`
	Start         Instant       `json:"start" structs:"start"`
	End           Instant       `json:"end,omitempty" structs:"end,omitempty"`
	ReceivedBytes int64         `json:"received_bytes,omitempty" structs:"received_bytes,omitempty"`
	TotalBytes    int64         `json:"total_bytes,omitempty" structs:"total_bytes,omitempty"`
	State         DownloadState `json:"state" structs:"state"`
	Provenance    Provenance    `json:"provenance" structs:"provenance"`
}

func (r *ChromeDownloadRecord) Artifact() registry.Artifact { return registry.ChromeDownloads }
func (r *ChromeDownloadRecord) SourceIDs() []string         { return r.Provenance.SourceIDs }
func (r *ChromeDownloadRecord) prov() *Provenance           { return &r.Provenance }
func (r *ChromeDownloadRecord) conflictFields() []string    { return []string{"url"} }

func (r *ChromeDownloadRecord) Key() string {
	return key(r.TargetPath, r.Start.keyPart())
}

func (r *ChromeDownloadRecord) fields() map[string]string {
	return map[string]string{
		"url":   r.URL,
		"state": string(r.State),
	}
}

// canonicalNumber reduces a phone number to its digits-only canonical form.
// A leading + is preserved to keep international numbers distinguishable.
func canonicalNumber(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
