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

// Package registry holds versioned schema signatures for Android application
// databases and matches opened databases against them. Signatures are data,
// not code: supporting a new app version or a new artifact type is a registry
// edit. The packaged registry covers the artifact types of the canonical
// record model; external registry files can extend or replace it.
package registry

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/qri-io/jsonschema"
	"github.com/spf13/afero"
	"github.com/stoewer/go-strcase"

	"github.com/forensicanalysis/androidevidence/timeconv"
)

// Artifact is a category of forensic data.
type Artifact string

// All artifact types of the canonical record model.
const (
	Accounts        Artifact = "Accounts"
	Calendar        Artifact = "Calendar"
	CallLog         Artifact = "CallLog"
	Contacts        Artifact = "Contacts"
	SMS             Artifact = "SMS"
	ChromeHistory   Artifact = "ChromeHistory"
	ChromeDownloads Artifact = "ChromeDownloads"
)

// AllArtifacts lists every known artifact type.
var AllArtifacts = []Artifact{
	Accounts, Calendar, CallLog, Contacts, SMS, ChromeHistory, ChromeDownloads,
}

// Key returns the snake_case identifier used in registry files and reports.
func (a Artifact) Key() string {
	return strcase.SnakeCase(string(a))
}

// ParseArtifact resolves an artifact name in either spelling ("ChromeHistory"
// or "chrome_history").
func ParseArtifact(s string) (Artifact, error) {
	key := strcase.SnakeCase(strings.TrimSpace(s))
	for _, a := range AllArtifacts {
		if a.Key() == key {
			return a, nil
		}
	}
	return "", errors.Errorf("unknown artifact type %q", s)
}

// UnmarshalJSON accepts both artifact spellings in registry files.
func (a *Artifact) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseArtifact(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON writes the snake_case key.
func (a Artifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Key())
}

// TableSignature describes one table of a schema version. Required columns
// must all be present for a match; optional column coverage must clear the
// matcher threshold. A table marked optional may be absent entirely.
type TableSignature struct {
	Required      []string `json:"required"`
	Optional      []string `json:"optional,omitempty"`
	OptionalTable bool     `json:"optional_table,omitempty"`
}

// Entry is one (artifact type, schema version) signature with its
// column-to-field bindings.
type Entry struct {
	Artifact      Artifact                  `json:"artifact"`
	SchemaVersion int                       `json:"schema_version"`
	Table         string                    `json:"table,omitempty"`
	Tables        map[string]TableSignature `json:"tables"`
	Bindings      map[string]string         `json:"bindings,omitempty"`
	Time          map[string]string         `json:"time,omitempty"`
}

// Column returns the database column bound to a canonical field. Unbound
// fields fall back to the field name itself.
func (e *Entry) Column(field string) string {
	if column, ok := e.Bindings[field]; ok {
		return column
	}
	return field
}

// Convention returns the declared epoch convention for a temporal field.
func (e *Entry) Convention(field string, fallback timeconv.Convention) timeconv.Convention {
	if s, ok := e.Time[field]; ok {
		if c, err := timeconv.ParseConvention(s); err == nil {
			return c
		}
	}
	return fallback
}

// HasTable reports whether the signature lists the named table.
func (e *Entry) HasTable(name string) bool {
	for table := range e.Tables {
		if strings.EqualFold(table, name) {
			return true
		}
	}
	return false
}

type registryFile struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Registry is a set of schema signatures.
type Registry struct {
	// OptionalThreshold is the minimum fraction of a table's optional
	// columns that must be present. Default 0.8.
	OptionalThreshold float64

	entries []Entry
}

//go:embed registry.json
var packagedRegistry []byte

//go:embed schema.json
var registrySchema []byte

// DefaultOptionalThreshold is the packaged optional-column coverage bound.
const DefaultOptionalThreshold = 0.8

// Default returns the packaged registry.
func Default() (*Registry, error) {
	return Load(packagedRegistry)
}

// Load parses and validates registry data. Invalid registries are rejected
// here so that matching never operates on malformed signatures.
func Load(data []byte) (*Registry, error) {
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(registrySchema, schema); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal registry schema")
	}
	valErrs, err := schema.ValidateBytes(context.Background(), data)
	if err != nil {
		return nil, errors.Wrap(err, "could not validate registry")
	}
	if len(valErrs) > 0 {
		var flaws []string
		for _, valErr := range valErrs {
			flaws = append(flaws, fmt.Sprintf("%s", valErr))
		}
		return nil, errors.Errorf("invalid registry: %s", strings.Join(flaws, "; "))
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal registry")
	}
	if len(file.Entries) == 0 {
		return nil, errors.New("registry contains no entries")
	}

	r := &Registry{OptionalThreshold: DefaultOptionalThreshold}
	for _, entry := range file.Entries {
		if err := r.Add(entry); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFile loads a registry from an external file.
func LoadFile(fs afero.Fs, path string) (*Registry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read registry %s", path)
	}
	return Load(data)
}

// Add inserts a signature. This is the extension point for new artifact
// types and schema versions.
func (r *Registry) Add(entry Entry) error {
	if entry.Artifact == "" {
		return errors.New("registry entry requires an artifact")
	}
	if len(entry.Tables) == 0 {
		return errors.Errorf("registry entry %s/%d lists no tables", entry.Artifact, entry.SchemaVersion)
	}
	for _, e := range r.entries {
		if e.Artifact == entry.Artifact && e.SchemaVersion == entry.SchemaVersion {
			return errors.Errorf("duplicate registry entry %s/%d", entry.Artifact, entry.SchemaVersion)
		}
	}
	r.entries = append(r.entries, entry)
	return nil
}

// Entries returns all signatures, ordered by artifact and version.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Artifact != entries[j].Artifact {
			return entries[i].Artifact < entries[j].Artifact
		}
		return entries[i].SchemaVersion < entries[j].SchemaVersion
	})
	return entries
}

func (r *Registry) String() string {
	return fmt.Sprintf("registry with %d entries", len(r.entries))
}
