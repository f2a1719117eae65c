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
	"time"

	"github.com/google/uuid"

	"github.com/forensicanalysis/androidevidence/registry"
)

// FileStatus is the processing state of a source file. Files move from
// StatusUnopened through StatusOpened to a match status and finally to
// StatusParsed or StatusCorrupted.
type FileStatus string

// Source file processing states.
const (
	StatusUnopened         FileStatus = "unopened"
	StatusOpened           FileStatus = "opened"
	StatusMatched          FileStatus = "matched"
	StatusPartiallyMatched FileStatus = "partially_matched"
	StatusUnmatched        FileStatus = "unmatched"
	StatusAmbiguousMatch   FileStatus = "ambiguous_match"
	StatusParsed           FileStatus = "parsed"
	StatusCorrupted        FileStatus = "corrupted"
)

// SourceFile describes one input database and how its processing went.
type SourceFile struct {
	ID            string            `json:"id"`
	Path          string            `json:"path"`
	Status        FileStatus        `json:"status"`
	Artifact      registry.Artifact `json:"artifact,omitempty"`
	SchemaVersion int               `json:"schema_version,omitempty"`
	MatchScore    float64           `json:"match_score,omitempty"`
	ExtractedAt   time.Time         `json:"extracted_at"`
	Meta          map[string]string `json:"meta,omitempty"`
	RecordCount   int               `json:"record_count"`
	RowErrors     []RowError        `json:"row_errors,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// newSourceFile builds a SourceFile with a deterministic ID so that the same
// path always yields the same source reference across runs.
func newSourceFile(path string, extractedAt time.Time) *SourceFile {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path))
	return &SourceFile{
		ID:          id.String(),
		Path:        path,
		Status:      StatusUnopened,
		ExtractedAt: extractedAt.UTC(),
	}
}

// RowError records a single row that could not be converted. The row is
// skipped; its siblings are unaffected.
type RowError struct {
	Table  string `json:"table"`
	Row    int64  `json:"row"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("table %s row %d field %s: %s", e.Table, e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("table %s row %d: %s", e.Table, e.Row, e.Reason)
}

// MergeConflict is raised when two records share a key but disagree on a
// field that must not differ. Both records are kept in the store.
type MergeConflict struct {
	Artifact  registry.Artifact `json:"artifact"`
	Key       string            `json:"key"`
	Field     string            `json:"field"`
	Values    []FieldValue      `json:"values"`
	SourceIDs []string          `json:"source_ids"`
}

// RunReport summarizes one extraction run. It is complete even when the run
// was cancelled: every discovered input appears with its last reached status.
type RunReport struct {
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Cancelled   bool            `json:"cancelled,omitempty"`
	SourceFiles []*SourceFile   `json:"source_files"`
	Conflicts   []MergeConflict `json:"conflicts,omitempty"`
	Totals      map[string]int  `json:"totals"`
}

// Source returns the report entry for the given source ID, or nil.
func (r *RunReport) Source(id string) *SourceFile {
	for _, f := range r.SourceFiles {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// finish orders the report deterministically and computes per-artifact
// totals from the parsed source files.
func (r *RunReport) finish(finishedAt time.Time) {
	r.FinishedAt = finishedAt.UTC()
	sort.Slice(r.SourceFiles, func(i, j int) bool {
		return r.SourceFiles[i].Path < r.SourceFiles[j].Path
	})
	sort.Slice(r.Conflicts, func(i, j int) bool {
		if r.Conflicts[i].Artifact != r.Conflicts[j].Artifact {
			return r.Conflicts[i].Artifact < r.Conflicts[j].Artifact
		}
		return r.Conflicts[i].Key < r.Conflicts[j].Key
	})

	r.Totals = map[string]int{}
	for _, f := range r.SourceFiles {
		r.Totals["files_"+string(f.Status)]++
		r.Totals["rows_skipped"] += len(f.RowErrors)
		r.Totals["records"] += f.RecordCount
		if f.Artifact != "" {
			r.Totals["records_"+f.Artifact.Key()] += f.RecordCount
		}
	}
}
