// Package models defines the canonical document shapes settee hands to
// callers, and the normalizer that translates backend-native responses
// into them.
//
// A canonical [Document] always carries its identity under the reserved
// fields "id" and "revision". The backend-native names (`_id`, `_rev`)
// and the transient wrapper fields of enumeration rows and write
// acknowledgments never leak out of this package: normalization is
// centralized here so that no other layer has to know both namings.
package models

// Reserved field names of a canonical Document.
const (
	FieldID       = "id"
	FieldRevision = "revision"
)

// Backend-native counterparts, only ever seen on the wire.
const (
	nativeID  = "_id"
	nativeRev = "_rev"
)

// Document is a canonical document: arbitrary fields plus the reserved
// id/revision pair. The zero value is not useful; build documents as
// ordinary map literals.
type Document map[string]any

// ID returns the document's identifier, or "" when unset or not a
// string.
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Revision returns the document's revision token, or "" when unset.
func (d Document) Revision() string {
	rev, _ := d[FieldRevision].(string)
	return rev
}

// SetID stores id under the reserved identifier field.
func (d Document) SetID(id string) { d[FieldID] = id }

// SetRevision stores rev under the reserved revision field.
func (d Document) SetRevision(rev string) { d[FieldRevision] = rev }

// HasID reports whether the identifier field is present at all,
// regardless of its value. Save relies on this to distinguish an
// update-style write carrying id "" from an insert with no id.
func (d Document) HasID() bool {
	_, ok := d[FieldID]
	return ok
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// DocRef addresses an existing document for bulk retrieval or mutation.
// It is lookup input only and is never persisted as-is.
type DocRef struct {
	ID       string `json:"id"`
	Revision string `json:"revision,omitempty"`
}

// RemoveAck is a removal acknowledgment, passed through in the
// backend's native shape: a removed document has no further content to
// normalize.
type RemoveAck struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// IndexResult reports the outcome of an index creation. Result is
// "created" the first time and "exists" on idempotent repeats.
type IndexResult struct {
	Result string `json:"result"`
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Ack acknowledges a lifecycle operation such as destroy.
type Ack struct {
	OK bool `json:"ok"`
}
