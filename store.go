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
	"encoding/json"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/androidevidence/registry"
)

// RecordStore holds the merged result of an extraction run. It is read-only;
// a new run produces a new store.
type RecordStore struct {
	records    []Record
	byArtifact map[registry.Artifact][]Record
	report     *RunReport
}

// NewRecordStore builds a store from merged records. The record order is
// preserved, callers pass records in their canonical order.
func NewRecordStore(records []Record, report *RunReport) *RecordStore {
	store := &RecordStore{
		records:    records,
		byArtifact: map[registry.Artifact][]Record{},
		report:     report,
	}
	for _, record := range records {
		store.byArtifact[record.Artifact()] = append(store.byArtifact[record.Artifact()], record)
	}
	return store
}

// Records returns all records in canonical order.
func (s *RecordStore) Records() []Record { return s.records }

// Select returns the records of one artifact type.
func (s *RecordStore) Select(artifact registry.Artifact) []Record {
	return s.byArtifact[artifact]
}

// Report returns the run report.
func (s *RecordStore) Report() *RunReport { return s.report }

// Export renders every record as a generic map with snake_case keys and an
// artifact discriminator, ready for JSON serialization or downstream tools.
func (s *RecordStore) Export() []map[string]interface{} {
	exported := make([]map[string]interface{}, 0, len(s.records))
	for _, record := range s.records {
		m := snakeKeys(structs.Map(record))
		m["artifact"] = record.Artifact().Key()
		exported = append(exported, m)
	}
	return exported
}

type export struct {
	Records []map[string]interface{} `json:"records"`
	Report  *RunReport               `json:"report"`
}

// ExportJSON writes the full run, records and report, as indented JSON. The
// output is byte-identical for identical runs.
func (s *RecordStore) ExportJSON(fs afero.Fs, path string) error {
	data, err := json.MarshalIndent(export{Records: s.Export(), Report: s.report}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not serialize records")
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "could not write %s", path)
	}
	return nil
}
