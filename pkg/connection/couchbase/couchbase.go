// Package couchbase implements the connection interface on a Couchbase
// cluster. Documents keep their couch shape: `_id` and `_rev` live in
// the stored body, and revision checks pair the `_rev` match with a CAS
// guard so interleaved writers cannot slip between read and write.
package couchbase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/gofrs/uuid"

	"github.com/setteedb/settee/internal/codec"
	"github.com/setteedb/settee/internal/revision"
	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/logger"
)

// revCodec produces the canonical bytes hashed into revision digests.
var revCodec = codec.JSON{}

// Config configures a Couchbase connection.
type Config struct {
	// ConnString is the cluster connection string, e.g.
	// "couchbase://db-host".
	ConnString string

	Username string
	Password string

	// Bucket is required. Scope and Collection default to "_default".
	Bucket     string
	Scope      string
	Collection string

	// WaitTimeout bounds the readiness wait in Connect. Defaults to 30
	// seconds.
	WaitTimeout time.Duration

	Logger logger.Logger
}

// Couchbase implements [connection.Connection] on a gocb cluster.
type Couchbase struct {
	conf Config
	log  logger.Logger

	cluster   *gocb.Cluster
	bucket    *gocb.Bucket
	col       *gocb.Collection
	destroyed atomic.Bool
}

var _ connection.Connection = (*Couchbase)(nil)

// New validates conf and returns an unconnected Couchbase.
func New(conf Config) (*Couchbase, error) {
	if conf.ConnString == "" {
		return nil, constants.ErrNoBaseURL
	}
	if conf.Bucket == "" {
		return nil, constants.ErrNoDatabase
	}
	if conf.Scope == "" {
		conf.Scope = "_default"
	}
	if conf.Collection == "" {
		conf.Collection = "_default"
	}
	if conf.WaitTimeout == 0 {
		conf.WaitTimeout = 30 * time.Second
	}
	log := conf.Logger
	if log == nil {
		log = logger.Nop{}
	}
	return &Couchbase{conf: conf, log: log}, nil
}

// Connect dials the cluster and waits for the key-value and query
// services to come up on the bucket.
func (c *Couchbase) Connect(ctx context.Context) error {
	if err := c.alive(ctx); err != nil {
		return err
	}
	cluster, err := gocb.Connect(c.conf.ConnString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: c.conf.Username,
			Password: c.conf.Password,
		},
	})
	if err != nil {
		return fmt.Errorf("connect cluster: %w", err)
	}

	bucket := cluster.Bucket(c.conf.Bucket)
	err = bucket.WaitUntilReady(c.conf.WaitTimeout, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue, gocb.ServiceTypeQuery},
	})
	if err != nil {
		return fmt.Errorf("bucket not ready: %w", err)
	}

	c.cluster = cluster
	c.bucket = bucket
	c.col = bucket.Scope(c.conf.Scope).Collection(c.conf.Collection)
	c.log.Info("couchbase connected",
		"bucket", c.conf.Bucket, "scope", c.conf.Scope, "collection", c.conf.Collection)
	return nil
}

func (c *Couchbase) Close(ctx context.Context) error {
	if c.cluster == nil {
		return nil
	}
	if err := c.cluster.Close(nil); err != nil {
		return fmt.Errorf("close cluster: %w", err)
	}
	return nil
}

func (c *Couchbase) alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.destroyed.Load() {
		return constants.ErrDestroyed
	}
	return nil
}

func (c *Couchbase) Get(ctx context.Context, id string) (map[string]any, error) {
	if err := c.alive(ctx); err != nil {
		return nil, err
	}
	res, err := c.col.Get(id, &gocb.GetOptions{Context: ctx})
	if err != nil {
		return nil, mapKVError(id, err)
	}
	var doc map[string]any
	if err := res.Content(&doc); err != nil {
		return nil, &connection.BackendError{Err: fmt.Errorf("decode document %q: %w", id, err)}
	}
	return doc, nil
}

func (c *Couchbase) Put(ctx context.Context, doc map[string]any) (connection.Ack, error) {
	if err := c.alive(ctx); err != nil {
		return connection.Ack{}, err
	}
	id, _ := doc["_id"].(string)
	if id == "" {
		return connection.Ack{}, fmt.Errorf("document has no _id: %w", constants.ErrInvalidArgument)
	}
	return c.store(ctx, id, doc)
}

func (c *Couchbase) Post(ctx context.Context, doc map[string]any) (connection.Ack, error) {
	if err := c.alive(ctx); err != nil {
		return connection.Ack{}, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return connection.Ack{}, fmt.Errorf("generate id: %w", err)
	}
	next := copyDoc(doc)
	next["_id"] = id.String()
	return c.store(ctx, id.String(), next)
}

// store writes one revision-checked generation. The revision match
// decides correctness; the CAS guard turns read-modify-write races into
// conflicts instead of lost updates.
func (c *Couchbase) store(ctx context.Context, id string, doc map[string]any) (connection.Ack, error) {
	givenRev, _ := doc["_rev"].(string)

	body := copyDoc(doc)
	body["_id"] = id
	delete(body, "_rev")
	encoded, err := revCodec.Marshal(body)
	if err != nil {
		return connection.Ack{}, fmt.Errorf("encode document: %w", err)
	}

	res, err := c.col.Get(id, &gocb.GetOptions{Context: ctx})
	switch {
	case errors.Is(err, gocb.ErrDocumentNotFound):
		if givenRev != "" {
			return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrConflict)
		}
		body["_rev"] = revision.Next("", encoded)
		_, err := c.col.Insert(id, body, &gocb.InsertOptions{Context: ctx})
		if errors.Is(err, gocb.ErrDocumentExists) {
			return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrConflict)
		}
		if err != nil {
			return connection.Ack{}, mapKVError(id, err)
		}
	case err != nil:
		return connection.Ack{}, mapKVError(id, err)
	default:
		var current map[string]any
		if err := res.Content(&current); err != nil {
			return connection.Ack{}, &connection.BackendError{Err: fmt.Errorf("decode document %q: %w", id, err)}
		}
		currentRev, _ := current["_rev"].(string)
		if givenRev != currentRev {
			return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrConflict)
		}
		body["_rev"] = revision.Next(currentRev, encoded)
		_, err := c.col.Replace(id, body, &gocb.ReplaceOptions{Cas: res.Cas(), Context: ctx})
		if errors.Is(err, gocb.ErrCasMismatch) || errors.Is(err, gocb.ErrDocumentExists) {
			return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrConflict)
		}
		if err != nil {
			return connection.Ack{}, mapKVError(id, err)
		}
	}

	rev, _ := body["_rev"].(string)
	return connection.Ack{OK: true, ID: id, Rev: rev}, nil
}

func (c *Couchbase) Remove(ctx context.Context, id, rev string) (connection.Ack, error) {
	if err := c.alive(ctx); err != nil {
		return connection.Ack{}, err
	}
	res, err := c.col.Get(id, &gocb.GetOptions{Context: ctx})
	if err != nil {
		return connection.Ack{}, mapKVError(id, err)
	}
	var current map[string]any
	if err := res.Content(&current); err != nil {
		return connection.Ack{}, &connection.BackendError{Err: fmt.Errorf("decode document %q: %w", id, err)}
	}
	currentRev, _ := current["_rev"].(string)
	if rev != currentRev {
		return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrConflict)
	}
	_, err = c.col.Remove(id, &gocb.RemoveOptions{Cas: res.Cas(), Context: ctx})
	if errors.Is(err, gocb.ErrCasMismatch) {
		return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrConflict)
	}
	if err != nil {
		return connection.Ack{}, mapKVError(id, err)
	}
	return connection.Ack{OK: true, ID: id, Rev: revision.Next(currentRev, nil)}, nil
}

func (c *Couchbase) BulkGet(ctx context.Context, refs []connection.BulkRef) ([]connection.BulkResult, error) {
	if err := c.alive(ctx); err != nil {
		return nil, err
	}

	ops := make([]gocb.BulkOp, len(refs))
	for i, ref := range refs {
		ops[i] = &gocb.GetOp{ID: ref.ID}
	}
	opts := &gocb.BulkOpOptions{}
	if deadline, ok := ctx.Deadline(); ok {
		opts.Timeout = time.Until(deadline)
	}
	if err := c.col.Do(ops, opts); err != nil {
		return nil, &connection.BackendError{Err: fmt.Errorf("bulk get: %w", err)}
	}

	results := make([]connection.BulkResult, 0, len(refs))
	for i, ref := range refs {
		op := ops[i].(*gocb.GetOp)
		result := connection.BulkResult{ID: ref.ID}

		var doc map[string]any
		ok := op.Err == nil
		if ok {
			ok = op.Result.Content(&doc) == nil
		}
		if ok && ref.Rev != "" {
			// Only the current revision is retained.
			if rev, _ := doc["_rev"].(string); rev != ref.Rev {
				ok = false
			}
		}
		if ok {
			result.Docs = []connection.BulkDoc{{OK: doc}}
		} else {
			result.Docs = []connection.BulkDoc{{Error: &connection.BulkError{
				ID:     ref.ID,
				Rev:    ref.Rev,
				Err:    "not_found",
				Reason: "missing",
			}}}
		}
		results = append(results, result)
	}
	return results, nil
}

// Destroy deletes every document in the keyspace and poisons the
// handle. Couchbase has no per-collection database drop that matches
// couch semantics, so destroy is a keyspace flush.
func (c *Couchbase) Destroy(ctx context.Context) error {
	if err := c.alive(ctx); err != nil {
		return err
	}
	statement := fmt.Sprintf("DELETE FROM %s", c.keyspace())
	res, err := c.cluster.Query(statement, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return &connection.BackendError{Err: fmt.Errorf("destroy: %w", err)}
	}
	if err := res.Close(); err != nil {
		return &connection.BackendError{Err: fmt.Errorf("destroy: %w", err)}
	}
	c.destroyed.Store(true)
	c.log.Info("keyspace destroyed", "keyspace", c.keyspace())
	return nil
}

// mapKVError translates gocb key-value errors onto the sentinel
// taxonomy.
func mapKVError(id string, err error) error {
	switch {
	case errors.Is(err, gocb.ErrDocumentNotFound):
		return fmt.Errorf("%q: %w", id, constants.ErrNotFound)
	case errors.Is(err, gocb.ErrDocumentExists), errors.Is(err, gocb.ErrCasMismatch):
		return fmt.Errorf("%q: %w", id, constants.ErrConflict)
	default:
		return &connection.BackendError{Err: err}
	}
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
