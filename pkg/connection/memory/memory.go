// Package memory provides an in-process connection backed by a
// concurrent map. It keeps full fidelity with the remote backends:
// revision-checked writes, couch-shaped acks, and optional snapshot
// persistence, so code written against it ports to an HTTP or Couchbase
// connection unchanged.
package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gofrs/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/setteedb/settee/internal/codec"
	"github.com/setteedb/settee/internal/revision"
	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/logger"
)

// revCodec produces the canonical bytes hashed into revision digests.
// It is fixed to JSON so digests do not depend on the snapshot codec.
var revCodec = codec.JSON{}

// Config configures a Memory connection. The zero value is a valid
// volatile store.
type Config struct {
	// SnapshotPath, when set, is loaded on Connect (if present) and
	// written on Close.
	SnapshotPath string

	// Codec encodes snapshot payloads. Defaults to CBOR; Msgpack is the
	// supported alternative.
	Codec codec.Codec

	Logger logger.Logger
}

// Memory implements [connection.Connection] over an in-process map.
type Memory struct {
	conf Config
	log  logger.Logger

	docs      *xsync.MapOf[string, map[string]any]
	indexes   *xsync.MapOf[string, []string]
	destroyed atomic.Bool
}

var _ connection.Connection = (*Memory)(nil)

// New returns an unconnected Memory backend.
func New(conf Config) *Memory {
	if conf.Codec == nil {
		conf.Codec = codec.CBOR{}
	}
	log := conf.Logger
	if log == nil {
		log = logger.Nop{}
	}
	return &Memory{
		conf:    conf,
		log:     log,
		docs:    xsync.NewMapOf[string, map[string]any](),
		indexes: xsync.NewMapOf[string, []string](),
	}
}

// Connect loads the snapshot file when one is configured and present.
func (m *Memory) Connect(ctx context.Context) error {
	if err := m.alive(ctx); err != nil {
		return err
	}
	if m.conf.SnapshotPath == "" {
		return nil
	}
	if err := m.LoadSnapshot(m.conf.SnapshotPath); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	return nil
}

// Close writes the snapshot file when one is configured. A destroyed
// store is not snapshotted.
func (m *Memory) Close(ctx context.Context) error {
	if m.conf.SnapshotPath == "" || m.destroyed.Load() {
		return nil
	}
	if err := m.SaveSnapshot(m.conf.SnapshotPath); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (m *Memory) alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.destroyed.Load() {
		return constants.ErrDestroyed
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (map[string]any, error) {
	if err := m.alive(ctx); err != nil {
		return nil, err
	}
	doc, ok := m.docs.Load(id)
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, constants.ErrNotFound)
	}
	return copyDoc(doc), nil
}

func (m *Memory) Put(ctx context.Context, doc map[string]any) (connection.Ack, error) {
	if err := m.alive(ctx); err != nil {
		return connection.Ack{}, err
	}
	id, _ := doc["_id"].(string)
	if id == "" {
		return connection.Ack{}, fmt.Errorf("document has no _id: %w", constants.ErrInvalidArgument)
	}
	return m.store(id, doc)
}

func (m *Memory) Post(ctx context.Context, doc map[string]any) (connection.Ack, error) {
	if err := m.alive(ctx); err != nil {
		return connection.Ack{}, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return connection.Ack{}, fmt.Errorf("generate id: %w", err)
	}
	doc = copyDoc(doc)
	doc["_id"] = id.String()
	return m.store(id.String(), doc)
}

// store applies a revision-checked upsert. A write with a stale or
// missing revision against an existing document conflicts, as does a
// write carrying a revision for a document that does not exist.
func (m *Memory) store(id string, doc map[string]any) (connection.Ack, error) {
	givenRev, _ := doc["_rev"].(string)

	body := copyDoc(doc)
	delete(body, "_rev")
	encoded, err := revCodec.Marshal(body)
	if err != nil {
		return connection.Ack{}, fmt.Errorf("encode document: %w", err)
	}

	var conflict bool
	stored, _ := m.docs.Compute(id, func(old map[string]any, loaded bool) (map[string]any, bool) {
		currentRev := ""
		if loaded {
			currentRev, _ = old["_rev"].(string)
		}
		if givenRev != currentRev {
			conflict = true
			return old, !loaded
		}
		next := copyDoc(body)
		next["_rev"] = revision.Next(currentRev, encoded)
		return next, false
	})
	if conflict {
		return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrConflict)
	}

	rev, _ := stored["_rev"].(string)
	return connection.Ack{OK: true, ID: id, Rev: rev}, nil
}

func (m *Memory) Remove(ctx context.Context, id, rev string) (connection.Ack, error) {
	if err := m.alive(ctx); err != nil {
		return connection.Ack{}, err
	}

	var (
		missing  bool
		conflict bool
		tombRev  string
	)
	m.docs.Compute(id, func(old map[string]any, loaded bool) (map[string]any, bool) {
		if !loaded {
			missing = true
			return old, true
		}
		currentRev, _ := old["_rev"].(string)
		if rev != currentRev {
			conflict = true
			return old, false
		}
		tombRev = revision.Next(currentRev, nil)
		return old, true
	})
	switch {
	case missing:
		return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrNotFound)
	case conflict:
		return connection.Ack{}, fmt.Errorf("%q: %w", id, constants.ErrConflict)
	}
	return connection.Ack{OK: true, ID: id, Rev: tombRev}, nil
}

func (m *Memory) CreateIndex(ctx context.Context, fields []string) (connection.IndexResult, error) {
	if err := m.alive(ctx); err != nil {
		return connection.IndexResult{}, err
	}
	name := indexName(fields)
	if _, loaded := m.indexes.LoadOrStore(name, fields); loaded {
		return connection.IndexResult{}, fmt.Errorf("%q: %w", name, constants.ErrIndexExists)
	}
	m.log.Debug("index created", "name", name, "fields", fields)
	return connection.IndexResult{
		Result: "created",
		ID:     "_design/" + name,
		Name:   name,
	}, nil
}

// Destroy drops every document and index and poisons the handle. All
// later operations fail with [constants.ErrDestroyed].
func (m *Memory) Destroy(ctx context.Context) error {
	if err := m.alive(ctx); err != nil {
		return err
	}
	m.destroyed.Store(true)
	m.docs.Clear()
	m.indexes.Clear()
	m.log.Info("store destroyed")
	return nil
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
