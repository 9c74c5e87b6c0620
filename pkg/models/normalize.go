package models

import (
	"github.com/setteedb/settee/pkg/connection"
)

// DocFromNative translates a backend-native document into canonical
// form: `_id` and `_rev` become the reserved id/revision fields, every
// other field is copied verbatim. Pure function; the input map is not
// modified.
func DocFromNative(native map[string]any) Document {
	doc := make(Document, len(native))
	for k, v := range native {
		switch k {
		case nativeID:
			doc[FieldID] = v
		case nativeRev:
			doc[FieldRevision] = v
		default:
			doc[k] = v
		}
	}
	return doc
}

// DocFromAck reduces a write acknowledgment to the canonical identity
// pair. The transient ok flag is dropped.
func DocFromAck(ack connection.Ack) Document {
	return Document{
		FieldID:       ack.ID,
		FieldRevision: ack.Rev,
	}
}

// DocFromRow normalizes one enumeration row. With includeDocs the row's
// embedded body is normalized like any native document; without it the
// result carries exactly id and revision, the revision recovered from
// the row's value wrapper.
func DocFromRow(row connection.Row, includeDocs bool) Document {
	if includeDocs && row.Doc != nil {
		return DocFromNative(row.Doc)
	}
	return Document{
		FieldID:       row.ID,
		FieldRevision: row.Value.Rev,
	}
}

// DocsFromNative normalizes a batch of native documents, preserving
// order.
func DocsFromNative(natives []map[string]any) []Document {
	docs := make([]Document, 0, len(natives))
	for _, n := range natives {
		docs = append(docs, DocFromNative(n))
	}
	return docs
}

// ToNative is the inverse translation used on the write path: the
// reserved id/revision fields become `_id`/`_rev`, everything else is
// copied verbatim. An absent or empty revision is omitted rather than
// sent as an empty token. The input document is not modified.
func ToNative(doc Document) map[string]any {
	native := make(map[string]any, len(doc))
	for k, v := range doc {
		switch k {
		case FieldID:
			native[nativeID] = v
		case FieldRevision:
			if rev, ok := v.(string); ok && rev != "" {
				native[nativeRev] = rev
			}
		default:
			native[k] = v
		}
	}
	return native
}

// ToBulkRefs maps canonical refs into the backend-native `{id, rev}`
// naming used by batched fetches.
func ToBulkRefs(refs []DocRef) []connection.BulkRef {
	out := make([]connection.BulkRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, connection.BulkRef{ID: ref.ID, Rev: ref.Revision})
	}
	return out
}

// RemoveAckFrom carries a native removal acknowledgment across the
// boundary unchanged.
func RemoveAckFrom(ack connection.Ack) RemoveAck {
	return RemoveAck{OK: ack.OK, ID: ack.ID, Rev: ack.Rev}
}

// IndexResultFrom carries a native index outcome across the boundary.
func IndexResultFrom(res connection.IndexResult) IndexResult {
	return IndexResult{Result: res.Result, ID: res.ID, Name: res.Name}
}
