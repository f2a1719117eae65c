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

	"github.com/forensicanalysis/androidevidence/registry"
	"github.com/forensicanalysis/androidevidence/sqlitedb"
)

// Android data row mimetypes relevant for contact records.
const (
	mimePhone  = "vnd.android.cursor.item/phone_v2"
	mimeEmail  = "vnd.android.cursor.item/email_v2"
	mimePostal = "vnd.android.cursor.item/postal-address_v2"
	mimeName   = "vnd.android.cursor.item/name"
)

// parseContacts reads contacts from contacts2.db. Phone numbers, email
// addresses and postal addresses live in the generic data table and are
// resolved through the mimetypes table, like the contacts provider does.
func parseContacts(db *sqlitedb.DB, entry *registry.Entry, src *SourceFile) ([]Record, error) {
	mimetypes := map[int64]string{}
	err := db.ForEachRow(selectAll("mimetypes"), func(row sqlitedb.Row) error {
		id, ok := row.Int64(entry.Column("mime_id"))
		if !ok {
			src.skipRow("mimetypes", row.Number(), entry.Column("mime_id"), "missing mimetype id")
			return nil
		}
		mimetype, ok := row.Text(entry.Column("mime_type"))
		if !ok {
			src.skipRow("mimetypes", row.Number(), entry.Column("mime_type"), "missing mimetype")
			return nil
		}
		mimetypes[id] = mimetype
		return nil
	})
	if err != nil {
		return nil, err
	}

	table := entry.Table
	contacts := map[int64]*ContactRecord{}
	err = db.ForEachRow(selectAll(table), func(row sqlitedb.Row) error {
		contactID, ok := row.Int64(entry.Column("contact_id"))
		if !ok {
			src.skipRow(table, row.Number(), entry.Column("contact_id"), "missing contact id")
			return nil
		}

		record := &ContactRecord{
			ContactID:  contactID,
			Provenance: newProvenance(src.ID),
		}
		record.DisplayName, _ = row.Text(entry.Column("display_name"))
		record.Account, _ = row.Text(entry.Column("account"))
		if deleted, ok := row.Int64(entry.Column("deleted")); ok {
			record.Deleted = deleted != 0
		}
		contacts[contactID] = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = db.ForEachRow(selectAll("data"), func(row sqlitedb.Row) error {
		contactID, ok := row.Int64(entry.Column("data_contact_id"))
		if !ok {
			src.skipRow("data", row.Number(), entry.Column("data_contact_id"), "missing contact reference")
			return nil
		}
		record, ok := contacts[contactID]
		if !ok {
			src.skipRow("data", row.Number(), entry.Column("data_contact_id"), "references unknown contact")
			return nil
		}
		mimetypeID, ok := row.Int64(entry.Column("data_mimetype_id"))
		if !ok {
			src.skipRow("data", row.Number(), entry.Column("data_mimetype_id"), "missing mimetype reference")
			return nil
		}
		value, ok := row.Text(entry.Column("data_value"))
		if !ok || value == "" {
			return nil
		}

		switch mimetypes[mimetypeID] {
		case mimePhone:
			record.Phones = append(record.Phones, value)
		case mimeEmail:
			record.Emails = append(record.Emails, value)
		case mimePostal:
			record.PostalAddresses = append(record.PostalAddresses, value)
		case mimeName:
			if record.DisplayName == "" {
				record.DisplayName = value
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(contacts))
	for id := range contacts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	records := make([]Record, 0, len(contacts))
	for _, id := range ids {
		record := contacts[id]
		sort.Strings(record.Phones)
		sort.Strings(record.Emails)
		sort.Strings(record.PostalAddresses)
		records = append(records, record)
	}
	return records, nil
}
