// The [settee] package is a convenience façade over Couch-style document
// stores: point reads and writes, enumeration, batched fetches, find
// queries, index creation and database destruction behind one small API.
//
// # Connections
//
// A [Store] talks to its backend through the
// [github.com/setteedb/settee/pkg/connection.Connection] interface.
// Three implementations ship with the module: an embedded in-memory
// store, a Couch-compatible HTTP client and a Couchbase adapter.
//
// Provide a connection URL to [OpenURL] so that it chooses the right
// backend for you ("memory:", "http(s)://", "couchbase(s)://"), or
// construct a connection yourself and hand it to [Open].
//
// # Data model
//
// Documents are plain maps. Settee reserves the fields "id" and
// "revision" for document identity; the backend-native names (_id,
// _rev) never appear in results. See
// [github.com/setteedb/settee/pkg/models] for the canonical shapes.
//
// # Futures and callbacks
//
// Every store operation returns a [github.com/setteedb/settee/pkg/futures.Future]
// immediately and runs in its own goroutine. Block on it with Await,
// select on Done, or register completion callbacks with Subscribe;
// both styles observe the same single settlement.
//
// # Replication-aware destruction
//
// A store can carry one [github.com/setteedb/settee/pkg/replication.Session].
// [Store.Destroy] cancels a live session and waits for its completion
// event before touching the backend, so an in-flight replication run
// is never destroyed out from under. [Store.DeleteDB] skips the
// coordination and destroys unconditionally.
package settee
