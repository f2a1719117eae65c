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
	"sort"
	"strings"
)

// Status is the outcome of matching a database layout against the registry.
type Status string

// Match outcomes.
const (
	StatusMatched   Status = "matched"
	StatusAmbiguous Status = "ambiguous"
	StatusUnmatched Status = "unmatched"
)

// Candidate is one signature that cleared the matching threshold, with its
// column-coverage score.
type Candidate struct {
	Entry *Entry
	Score float64
}

// Result is the classification of one database layout.
type Result struct {
	Status Status
	// Entry and Score are set for StatusMatched.
	Entry *Entry
	Score float64
	// Candidates holds all tied signatures for StatusAmbiguous.
	Candidates []Candidate
}

// Match classifies a database layout (table names mapped to their column
// names) against the registry. An entry qualifies when all of its
// non-optional tables are present, every required column of each present
// table is present and per-table optional column coverage clears the
// threshold. The qualifying entry with the highest overall column coverage
// wins; exact ties prefer the highest schema version, since app schemas are
// additive over time. Entries still tied after that are reported as
// ambiguous.
func (r *Registry) Match(layout map[string][]string) Result {
	lowered := lowerLayout(layout)

	var candidates []Candidate
	for i := range r.entries {
		entry := &r.entries[i]
		if score, ok := r.score(entry, lowered); ok {
			candidates = append(candidates, Candidate{Entry: entry, Score: score})
		}
	}
	if len(candidates) == 0 {
		return Result{Status: StatusUnmatched}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Entry.SchemaVersion != candidates[j].Entry.SchemaVersion {
			return candidates[i].Entry.SchemaVersion > candidates[j].Entry.SchemaVersion
		}
		return candidates[i].Entry.Artifact < candidates[j].Entry.Artifact
	})

	best := candidates[0]
	var tied []Candidate
	for _, c := range candidates {
		if c.Score == best.Score && c.Entry.SchemaVersion == best.Entry.SchemaVersion {
			tied = append(tied, c)
		}
	}
	if len(tied) > 1 {
		return Result{Status: StatusAmbiguous, Candidates: tied, Score: best.Score}
	}

	return Result{Status: StatusMatched, Entry: best.Entry, Score: best.Score}
}

func (r *Registry) score(entry *Entry, layout map[string]map[string]bool) (float64, bool) {
	threshold := r.OptionalThreshold
	if threshold <= 0 {
		threshold = DefaultOptionalThreshold
	}

	var total, matched int
	for table, signature := range entry.Tables {
		columns, present := layout[strings.ToLower(table)]
		if !present {
			if signature.OptionalTable {
				continue
			}
			return 0, false
		}

		for _, column := range signature.Required {
			total++
			if !columns[strings.ToLower(column)] {
				// primary identifying columns must all be present
				return 0, false
			}
			matched++
		}

		optionalMatched := 0
		for _, column := range signature.Optional {
			total++
			if columns[strings.ToLower(column)] {
				matched++
				optionalMatched++
			}
		}
		if len(signature.Optional) > 0 {
			if float64(optionalMatched)/float64(len(signature.Optional)) < threshold {
				return 0, false
			}
		}
	}

	if total == 0 {
		return 0, false
	}
	return float64(matched) / float64(total), true
}

func lowerLayout(layout map[string][]string) map[string]map[string]bool {
	lowered := make(map[string]map[string]bool, len(layout))
	for table, columns := range layout {
		set := make(map[string]bool, len(columns))
		for _, column := range columns {
			set[strings.ToLower(column)] = true
		}
		lowered[strings.ToLower(table)] = set
	}
	return lowered
}
