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
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forensicanalysis/androidevidence/registry"
)

// contributor is one parsed record destined for merging, together with the
// extraction context the merge order is derived from.
type contributor struct {
	record      mergeable
	sourceID    string
	extractedAt time.Time
	fingerprint string
}

// fingerprint renders the scalar fields of a record into a stable string.
// Contributors with equal key and fingerprint from the same source are exact
// duplicates.
func fingerprint(record mergeable) string {
	fields := record.fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+fields[name])
	}
	return strings.Join(parts, "\x1f")
}

// recordMap buckets parsed records by artifact and key. Parser workers write
// concurrently; merging reads after all workers are done.
type recordMap struct {
	sync.RWMutex
	buckets map[registry.Artifact]map[string][]contributor
}

func newRecordMap() *recordMap {
	return &recordMap{
		buckets: map[registry.Artifact]map[string][]contributor{},
	}
}

func (rm *recordMap) add(record mergeable, sourceID string, extractedAt time.Time) {
	c := contributor{
		record:      record,
		sourceID:    sourceID,
		extractedAt: extractedAt.UTC(),
		fingerprint: fingerprint(record),
	}

	rm.Lock()
	defer rm.Unlock()

	artifact := record.Artifact()
	if _, ok := rm.buckets[artifact]; !ok {
		rm.buckets[artifact] = map[string][]contributor{}
	}
	bucket := rm.buckets[artifact][record.Key()]
	for _, existing := range bucket {
		if existing.sourceID == c.sourceID && existing.fingerprint == c.fingerprint {
			return
		}
	}
	rm.buckets[artifact][record.Key()] = append(bucket, c)
}

// all returns the buckets with deterministically ordered contributors:
// newest extraction first, ties broken by source ID and fingerprint. The
// order is a function of the contributor set, so merge results do not depend
// on arrival order.
func (rm *recordMap) all() map[registry.Artifact]map[string][]contributor {
	rm.Lock()
	defer rm.Unlock()

	for _, keys := range rm.buckets {
		for _, bucket := range keys {
			sort.Slice(bucket, func(i, j int) bool {
				if !bucket[i].extractedAt.Equal(bucket[j].extractedAt) {
					return bucket[i].extractedAt.After(bucket[j].extractedAt)
				}
				if bucket[i].sourceID != bucket[j].sourceID {
					return bucket[i].sourceID < bucket[j].sourceID
				}
				return bucket[i].fingerprint < bucket[j].fingerprint
			})
		}
	}
	return rm.buckets
}
