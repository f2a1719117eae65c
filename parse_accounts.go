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
)

// parseAccounts reads configured accounts from accounts.db. Password values
// survive as stored; on most devices that is a token, not cleartext.
func parseAccounts(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error) {
	table := entry.Table

	var records []Record
	err := db.ForEachRow(selectAll(table), func(row sqlitedb.Row) error {
		name, ok := row.Text(entry.Column("name"))
		if !ok || name == "" {
			src.skipRow(table, row.Number(), entry.Column("name"), "missing account name")
			return nil
		}
		accountType, ok := row.Text(entry.Column("type"))
		if !ok || accountType == "" {
			src.skipRow(table, row.Number(), entry.Column("type"), "missing account type")
			return nil
		}

		record := &AccountRecord{
			Name:       name,
			Type:       accountType,
			Provenance: newProvenance(src.ID),
		}
		record.Package, _ = row.Text(entry.Column("package"))
		record.SyncState, _ = row.Text(entry.Column("sync_state"))
		if !row.IsNull(entry.Column("password")) {
			record.Password, _ = row.Text(entry.Column("password"))
		}

		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
