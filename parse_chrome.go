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
	"github.com/forensicanalysis/androidevidence/registry"
	"github.com/forensicanalysis/androidevidence/sqlitedb"
	"github.com/forensicanalysis/androidevidence/timeconv"
)

type urlInfo struct {
	url        string
	title      string
	visitCount int64
}

// parseChromeHistory reads page visits from a Chrome History database. With a
// visits table every visit becomes a record; without one only the last visit
// per URL is known. A History database also carries downloads, so those are
// extracted here as well when present.
func parseChromeHistory(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error) {
	urls := map[int64]urlInfo{}
	var records []Record

	hasVisits := entry.HasTable("visits")

	err := db.ForEachRow(selectAll(entry.Table), func(row sqlitedb.Row) error {
		url, ok := row.Text(entry.Column("url"))
		if !ok || url == "" {
			src.skipRow(entry.Table, row.Number(), entry.Column("url"), "missing url")
			return nil
		}
		info := urlInfo{url: url}
		info.title, _ = row.Text(entry.Column("title"))
		info.visitCount, _ = row.Int64(entry.Column("visit_count"))

		if hasVisits {
			id, ok := row.Int64(entry.Column("url_id"))
			if !ok {
				src.skipRow(entry.Table, row.Number(), entry.Column("url_id"), "missing url id")
				return nil
			}
			urls[id] = info
			return nil
		}

		// no visits table: the urls row itself is the best available visit
		rawVisit, ok := row.Int64(entry.Column("last_visit_time"))
		if !ok {
			src.skipRow(entry.Table, row.Number(), entry.Column("last_visit_time"), "missing visit time")
			return nil
		}
		records = append(records, &ChromeHistoryRecord{
			URL:        info.url,
			Title:      info.title,
			Visit:      makeInstant(rawVisit, entry.Convention("last_visit_time", timeconv.WebKitMicros)),
			VisitCount: info.visitCount,
			Provenance: newProvenance(src.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if hasVisits {
		err = db.ForEachRow(selectAll("visits"), func(row sqlitedb.Row) error {
			urlID, ok := row.Int64(entry.Column("visit_url_ref"))
			if !ok {
				src.skipRow("visits", row.Number(), entry.Column("visit_url_ref"), "missing url reference")
				return nil
			}
			info, ok := urls[urlID]
			if !ok {
				src.skipRow("visits", row.Number(), entry.Column("visit_url_ref"), "references unknown url")
				return nil
			}
			rawVisit, ok := row.Int64(entry.Column("visit_time"))
			if !ok {
				src.skipRow("visits", row.Number(), entry.Column("visit_time"), "missing visit time")
				return nil
			}

			record := &ChromeHistoryRecord{
				URL:        info.url,
				Title:      info.title,
				Visit:      makeInstant(rawVisit, entry.Convention("visit_time", timeconv.WebKitMicros)),
				VisitCount: info.visitCount,
				Provenance: newProvenance(src.ID),
			}
			record.Transition, _ = row.Int64(entry.Column("transition"))
			records = append(records, record)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if entry.HasTable("meta") {
		if ok, err := db.HasTable("meta"); err == nil && ok {
			if err := parseChromeMeta(db, src); err != nil {
				return nil, err
			}
		}
	}

	if entry.HasTable("downloads") {
		if ok, err := db.HasTable("downloads"); err == nil && ok {
			downloads, err := parseDownloadRows(db, entry, src)
			if err != nil {
				return nil, err
			}
			records = append(records, downloads...)
		}
	}

	return records, nil
}

// parseChromeMeta records the browser's own schema metadata on the source
// file entry, which helps explain odd layouts during review.
func parseChromeMeta(db *sqlitedb.DB, src *SourceFile) error {
	return db.ForEachRow(selectAll("meta"), func(row sqlitedb.Row) error {
		k, ok := row.Text("key")
		if !ok || k == "" {
			return nil
		}
		v, _ := row.Text("value")
		if src.Meta == nil {
			src.Meta = map[string]string{}
		}
		src.Meta[k] = v
		return nil
	})
}

// parseChromeDownloads reads downloads from a database that carries only the
// download tables.
func parseChromeDownloads(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error) {
	return parseDownloadRows(db, entry, src)
}

func parseDownloadRows(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error) {
	// the last chain element is the URL the content was actually fetched from
	chains := map[int64]string{}
	chainIndexes := map[int64]int64{}
	if ok, err := db.HasTable("downloads_url_chains"); err == nil && ok {
		err := db.ForEachRow(selectAll("downloads_url_chains"), func(row sqlitedb.Row) error {
			id, ok := row.Int64(entry.Column("download_id"))
			if !ok {
				src.skipRow("downloads_url_chains", row.Number(), entry.Column("download_id"), "missing download reference")
				return nil
			}
			url, ok := row.Text(entry.Column("chain_url"))
			if !ok {
				return nil
			}
			index, _ := row.Int64(entry.Column("chain_index"))
			if prev, seen := chainIndexes[id]; !seen || index >= prev {
				chains[id] = url
				chainIndexes[id] = index
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var records []Record
	err := db.ForEachRow(selectAll("downloads"), func(row sqlitedb.Row) error {
		id, ok := row.Int64(entry.Column("download_id"))
		if !ok {
			src.skipRow("downloads", row.Number(), entry.Column("download_id"), "missing download id")
			return nil
		}
		targetPath, ok := row.Text(entry.Column("target_path"))
		if !ok || targetPath == "" {
			src.skipRow("downloads", row.Number(), entry.Column("target_path"), "missing target path")
			return nil
		}
		rawStart, ok := row.Int64(entry.Column("start_time"))
		if !ok {
			src.skipRow("downloads", row.Number(), entry.Column("start_time"), "missing start time")
			return nil
		}
		state, ok := row.Int64(entry.Column("state"))
		if !ok {
			src.skipRow("downloads", row.Number(), entry.Column("state"), "missing state")
			return nil
		}

		record := &ChromeDownloadRecord{
			TargetPath: targetPath,
			URL:        chains[id],
			Start:      makeInstant(rawStart, entry.Convention("start_time", timeconv.WebKitMicros)),
			State:      downloadState(state),
			Provenance: newProvenance(src.ID),
		}
		if rawEnd, ok := row.Int64(entry.Column("end_time")); ok {
			record.End = optionalInstant(rawEnd, entry.Convention("end_time", timeconv.WebKitMicros))
		}
		record.ReceivedBytes, _ = row.Int64(entry.Column("received_bytes"))
		record.TotalBytes, _ = row.Int64(entry.Column("total_bytes"))

		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
