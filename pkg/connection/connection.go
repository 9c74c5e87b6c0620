// Package connection defines the boundary between the settee façade and
// the document-storage backends it wraps.
//
// A backend is anything that can satisfy the [Connection] interface:
// point reads and writes addressed by id and revision, a batched fetch,
// a structured find query, full enumeration, index creation, and an
// irreversible destroy. Implementations in the subpackages cover an
// embedded in-memory store ([github.com/setteedb/settee/pkg/connection/memory]),
// Couch-compatible HTTP servers
// ([github.com/setteedb/settee/pkg/connection/couchhttp]) and Couchbase
// clusters ([github.com/setteedb/settee/pkg/connection/couchbase]).
//
// Connections speak the backend's native document shape: maps carrying
// `_id`/`_rev`, enumeration rows wrapping stubs in `value`, bulk results
// split into ok/error legs. Translating those shapes into the canonical
// form callers see is the façade's job, not the connection's.
//
// Error contract: implementations map "no such document" to
// [constants.ErrNotFound], revision/identifier conflicts to
// [constants.ErrConflict] and "index already exists" to
// [constants.ErrIndexExists]; every other backend failure is returned
// as-is (wrapped only for call-site context).
package connection

import (
	"context"
)

// Connection is the call surface settee requires from a backend.
//
// Implementations must be safe for concurrent use; the façade issues
// operations from independent goroutines without serializing them.
type Connection interface {
	// Connect verifies the backend is reachable and prepares the target
	// database, creating it when the backend supports that and it does
	// not exist yet.
	Connect(ctx context.Context) error

	// Close releases the connection without touching stored data.
	Close(ctx context.Context) error

	// Get returns the native document stored under id.
	Get(ctx context.Context, id string) (map[string]any, error)

	// Put writes doc under its `_id`, requiring `_rev` to match the
	// stored revision when the document already exists.
	Put(ctx context.Context, doc map[string]any) (Ack, error)

	// Post writes doc under a fresh backend-assigned identifier.
	Post(ctx context.Context, doc map[string]any) (Ack, error)

	// Remove deletes the document addressed by id and rev.
	Remove(ctx context.Context, id, rev string) (Ack, error)

	// AllDocs enumerates every document as rows in the backend's own
	// order. With includeDocs the rows carry full document bodies,
	// otherwise only id/revision stubs.
	AllDocs(ctx context.Context, includeDocs bool) ([]Row, error)

	// BulkGet fetches a batch of documents in one backend round trip.
	// Each requested ref yields one result whose docs hold either a
	// document or a per-ref error; a missing document is reported
	// inside the result, not as a call failure.
	BulkGet(ctx context.Context, refs []BulkRef) ([]BulkResult, error)

	// Find forwards a structured query to the backend's query engine.
	Find(ctx context.Context, query Query) (FindResult, error)

	// CreateIndex asks the backend to maintain a secondary index over
	// the given fields. An index that already exists is reported as
	// constants.ErrIndexExists alongside a {Result: "exists"} outcome.
	CreateIndex(ctx context.Context, fields []string) (IndexResult, error)

	// Destroy irreversibly removes the backing database. Whether a
	// second Destroy is an error is backend-defined.
	Destroy(ctx context.Context) error
}
