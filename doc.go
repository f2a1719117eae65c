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

// Package androidevidence extracts forensic records from SQLite databases
// pulled off Android devices and normalizes them into one canonical model.
//
// Processing conventions
//
// An extraction run implements the following conventions:
//     - Evidence databases are opened strictly read-only and are never modified.
//     - Input files are identified by their table layout, not by file name; schema signatures live in a versioned registry.
//     - All timestamps are normalized to UTC with microsecond resolution; values outside a sane time window are kept but flagged as suspect.
//     - A malformed row is skipped and reported, its sibling rows are unaffected.
//     - Records describing the same fact in multiple sources are merged; superseded values move into a provenance history, nothing is silently discarded.
//     - Every source file appears in the run report with its final processing status, also on cancelled runs.
//
// The artifact types covered are accounts, calendar events, call logs,
// contacts, SMS messages, Chrome browsing history and Chrome downloads.
package androidevidence
