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
	"log"
	"reflect"
	"sort"
	"time"

	"github.com/imdario/mergo"

	"github.com/forensicanalysis/androidevidence/registry"
)

// Merger deduplicates records that describe the same underlying fact across
// multiple source files. The result is a pure function of the set of added
// records: adding the same records in any order yields the same output.
type Merger struct {
	records *recordMap
}

// NewMerger returns an empty Merger.
func NewMerger() *Merger {
	return &Merger{records: newRecordMap()}
}

// Add queues a parsed record for merging. Safe for concurrent use. Exact
// duplicates from the same source are absorbed here.
func (m *Merger) Add(record Record, sourceID string, extractedAt time.Time) {
	mr, ok := record.(mergeable)
	if !ok {
		log.Printf("record %T cannot be merged, kept as is", record)
		return
	}
	m.records.add(mr, sourceID, extractedAt)
}

// Merge folds all added records into the canonical record set. Records with
// the same key merge into one; the newest extraction wins per field and
// superseded values move into the provenance history. A disagreement on a
// field that must not differ keeps all involved records and reports a
// conflict instead of guessing.
func (m *Merger) Merge() ([]Record, []MergeConflict) {
	var records []Record
	var conflicts []MergeConflict

	buckets := m.records.all()
	for _, artifact := range sortedArtifacts(buckets) {
		keys := make([]string, 0, len(buckets[artifact]))
		for k := range buckets[artifact] {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			merged, conflict := mergeBucket(buckets[artifact][k])
			records = append(records, merged...)
			if conflict != nil {
				conflicts = append(conflicts, *conflict)
			}
		}
	}
	return records, conflicts
}

func sortedArtifacts(buckets map[registry.Artifact]map[string][]contributor) []registry.Artifact {
	artifacts := make([]registry.Artifact, 0, len(buckets))
	for a := range buckets {
		artifacts = append(artifacts, a)
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i] < artifacts[j] })
	return artifacts
}

// mergeBucket merges the contributors for one record key. Contributors
// arrive newest first.
func mergeBucket(bucket []contributor) ([]Record, *MergeConflict) {
	if len(bucket) == 1 {
		return []Record{bucket[0].record}, nil
	}

	if conflict := findConflict(bucket); conflict != nil {
		records := make([]Record, 0, len(bucket))
		for _, c := range bucket {
			records = append(records, c.record)
		}
		return records, conflict
	}

	base := cloneRecord(bucket[0].record)
	for _, older := range bucket[1:] {
		if err := mergo.Merge(base, older.record); err != nil {
			log.Printf("could not merge %s record: %v", base.Artifact(), err)
		}
	}

	prov := base.prov()
	prov.SourceIDs = mergedSourceIDs(bucket)
	prov.History = fieldHistory(base, bucket)
	return []Record{base}, nil
}

// findConflict checks the fields that must agree between contributors.
// Absent and unknown values never conflict.
func findConflict(bucket []contributor) *MergeConflict {
	record := bucket[0].record
	for _, field := range record.conflictFields() {
		var values []FieldValue
		distinct := map[string]bool{}
		for _, c := range bucket {
			v := c.record.fields()[field]
			if v == "" || v == "unknown" {
				continue
			}
			values = append(values, FieldValue{Field: field, Value: v, SourceID: c.sourceID})
			distinct[v] = true
		}
		if len(distinct) > 1 {
			return &MergeConflict{
				Artifact:  record.Artifact(),
				Key:       record.Key(),
				Field:     field,
				Values:    values,
				SourceIDs: mergedSourceIDs(bucket),
			}
		}
	}
	return nil
}

func mergedSourceIDs(bucket []contributor) []string {
	seen := map[string]bool{}
	var ids []string
	for _, c := range bucket {
		for _, id := range c.record.SourceIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// fieldHistory collects superseded values: anything a contributor stored that
// differs from the merged record. Nothing is discarded silently.
func fieldHistory(base mergeable, bucket []contributor) []FieldValue {
	final := base.fields()
	var history []FieldValue
	seen := map[string]bool{}
	for _, c := range bucket {
		fields := c.record.fields()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v := fields[name]
			if v == "" || v == final[name] {
				continue
			}
			dedup := name + "\x1f" + v + "\x1f" + c.sourceID
			if seen[dedup] {
				continue
			}
			seen[dedup] = true
			history = append(history, FieldValue{Field: name, Value: v, SourceID: c.sourceID})
		}
	}
	return history
}

// cloneRecord copies a record so merging never mutates parser output.
func cloneRecord(m mergeable) mergeable {
	c := reflect.New(reflect.TypeOf(m).Elem())
	c.Elem().Set(reflect.ValueOf(m).Elem())
	out := c.Interface().(mergeable)

	prov := out.prov()
	prov.SourceIDs = append([]string(nil), prov.SourceIDs...)
	prov.History = append([]FieldValue(nil), prov.History...)
	return out
}
