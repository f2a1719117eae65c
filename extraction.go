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
	"context"
	"log"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/androidevidence/registry"
	"github.com/forensicanalysis/androidevidence/sqlitedb"
)

// Options configure an extraction run. The zero value works: the packaged
// registry, one worker per CPU, no per-file timeout, extraction times from
// file modification times.
type Options struct {
	// FS is used to expand input patterns and stat files. Databases are
	// opened from the OS filesystem regardless, evidence is real files.
	FS afero.Fs
	// Registry holds the schema signatures to match against.
	Registry *registry.Registry
	// Workers is the number of files processed in parallel.
	Workers int
	// FileTimeout bounds the processing of a single file. Zero means no
	// limit.
	FileTimeout time.Duration
	// ExtractedAt overrides the per-file extraction time. When zero the
	// file modification time is used.
	ExtractedAt time.Time
}

func (o *Options) setDefaults() error {
	if o.FS == nil {
		o.FS = afero.NewOsFs()
	}
	if o.Registry == nil {
		r, err := registry.Default()
		if err != nil {
			return err
		}
		o.Registry = r
	}
	if o.Workers < 1 {
		o.Workers = runtime.NumCPU()
	}
	return nil
}

// Extract processes the given input files, directories and glob patterns and
// returns the merged record store. Cancelling the context stops the run;
// the returned store then holds the records and report of the files that
// were finished, never a partial file.
func Extract(ctx context.Context, inputs []string, options Options) (*RecordStore, error) {
	if err := options.setDefaults(); err != nil {
		return nil, err
	}

	paths, err := expandInputs(options.FS, inputs)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no input files found")
	}

	report := &RunReport{StartedAt: time.Now().UTC()}
	sources := make([]*SourceFile, 0, len(paths))
	for _, path := range paths {
		extractedAt := options.ExtractedAt
		if extractedAt.IsZero() {
			if info, err := options.FS.Stat(path); err == nil {
				extractedAt = info.ModTime()
			} else {
				extractedAt = report.StartedAt
			}
		}
		sources = append(sources, newSourceFile(path, extractedAt))
	}
	report.SourceFiles = sources

	merger := NewMerger()

	queue := make(chan *SourceFile)
	var wg sync.WaitGroup
	for i := 0; i < options.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range queue {
				processFile(ctx, src, merger, options)
			}
		}()
	}

feed:
	for _, src := range sources {
		select {
		case queue <- src:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	report.Cancelled = ctx.Err() != nil

	records, conflicts := merger.Merge()
	report.Conflicts = conflicts
	report.finish(time.Now())

	return NewRecordStore(records, report), nil
}

// processFile runs one source file through the open, match, parse pipeline
// and records every outcome on the report entry. File level failures never
// abort the run.
func processFile(ctx context.Context, src *SourceFile, merger *Merger, options Options) {
	if ctx.Err() != nil {
		return // stays unopened, the report shows how far the run got
	}

	fctx := ctx
	if options.FileTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, options.FileTimeout)
		defer cancel()
	}

	db, err := sqlitedb.Open(fctx, src.Path)
	if err != nil {
		// a timeout or cancellation during the header probe is not a
		// statement about the file itself
		cause := parseCause(ctx, fctx)
		if cause == CauseCorrupted {
			cause = CauseOpen
		}
		src.Status = StatusCorrupted
		src.Error = (&ParseError{Path: src.Path, Cause: cause, Err: err}).Error()
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("could not close %s: %v", src.Path, err)
		}
	}()
	src.Status = StatusOpened

	layout, err := db.Layout()
	if err != nil {
		src.Status = StatusCorrupted
		src.Error = (&ParseError{Path: src.Path, Cause: parseCause(ctx, fctx), Err: err}).Error()
		return
	}

	result := options.Registry.Match(layout)
	switch result.Status {
	case registry.StatusUnmatched:
		src.Status = StatusUnmatched
		return
	case registry.StatusAmbiguous:
		src.Status = StatusAmbiguousMatch
		return
	}

	entry := result.Entry
	src.Artifact = entry.Artifact
	src.SchemaVersion = entry.SchemaVersion
	src.MatchScore = result.Score
	if result.Score < 1 {
		src.Status = StatusPartiallyMatched
	} else {
		src.Status = StatusMatched
	}

	parse, ok := parsers[entry.Artifact]
	if !ok {
		src.Status = StatusUnmatched
		src.Error = errors.Errorf("no parser for artifact %s", entry.Artifact).Error()
		return
	}

	records, err := parse(db, entry, src)
	if err != nil {
		src.Status = StatusCorrupted
		src.Error = (&ParseError{Path: src.Path, Cause: parseCause(ctx, fctx), Err: err}).Error()
		return
	}

	src.Status = StatusParsed
	src.RecordCount = len(records)
	for _, record := range records {
		merger.Add(record, src.ID, src.ExtractedAt)
	}
}

// parseCause distinguishes a per-file timeout from a run cancellation and
// from plain file corruption.
func parseCause(ctx, fctx context.Context) string {
	switch {
	case ctx.Err() != nil:
		return CauseCancelled
	case fctx.Err() == context.DeadlineExceeded:
		return CauseTimeout
	default:
		return CauseCorrupted
	}
}

// expandInputs resolves files, directories and glob patterns into a sorted,
// deduplicated list of candidate files.
func expandInputs(fs afero.Fs, inputs []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	for _, input := range inputs {
		matches, err := afero.Glob(fs, input)
		if err != nil {
			return nil, errors.Wrapf(err, "bad input pattern %q", input)
		}
		if len(matches) == 0 {
			matches = []string{input}
		}
		for _, match := range matches {
			info, err := fs.Stat(match)
			if err != nil {
				return nil, errors.Wrapf(err, "could not read input %q", match)
			}
			if !info.IsDir() {
				add(match)
				continue
			}
			err = afero.Walk(fs, match, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.Mode().IsRegular() {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, errors.Wrapf(err, "could not walk input %q", match)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}
