// Package constants holds the sentinel errors and defaults shared by the
// settee façade and its connection implementations.
//
// Errors are deliberately plain sentinels so that callers can classify
// failures with [errors.Is] regardless of which backend produced them.
package constants

import (
	"errors"
	"fmt"
	"time"
)

// Errors surfaced by the façade and mapped by every connection
// implementation. Anything a backend raises that does not fit one of
// these classes is propagated unmodified.
var (
	// ErrNotFound reports that the backend has no document for the
	// requested id (or that one member of a bulk fetch is missing).
	ErrNotFound = errors.New("document not found")

	// ErrConflict reports a revision or identifier conflict on a write.
	ErrConflict = errors.New("document update conflict")

	// ErrInvalidArgument reports malformed call input, detected before
	// the backend is contacted.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexExists is the backend's "index already exists" conflict.
	// It wraps ErrConflict; the index manager tolerates exactly this one.
	ErrIndexExists = fmt.Errorf("%w: index already exists", ErrConflict)

	// ErrDestroyed reports an operation against a store whose backing
	// database has already been destroyed.
	ErrDestroyed = errors.New("database has been destroyed")
)

// Connection configuration errors.
var (
	ErrNoBaseURL  = errors.New("base url not set")
	ErrNoDatabase = errors.New("database name not set")
	ErrNoCodec    = errors.New("codec is not set")
)

const (
	// DesignDocPrefix marks backend-internal design/system documents,
	// hidden from ordinary enumeration.
	DesignDocPrefix = "_design/"

	// DefaultHTTPTimeout bounds requests made by the HTTP connection
	// when the caller's context carries no deadline of its own.
	DefaultHTTPTimeout = 10 * time.Second
)
