package settee

import (
	"context"
	"fmt"

	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/futures"
	"github.com/setteedb/settee/pkg/models"
)

// Get fetches the document stored under id. A missing document fails
// the future with [ErrNotFound].
func (s *Store) Get(ctx context.Context, id string) *futures.Future[Document] {
	return run(ctx, s, "get", func(ctx context.Context) (Document, error) {
		if id == "" {
			return nil, fmt.Errorf("%w: empty document id", constants.ErrInvalidArgument)
		}
		native, err := s.conn.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return models.DocFromNative(native), nil
	})
}

// Save writes doc and resolves it with its identity updated.
//
// The write style is decided by key presence, not value: a doc whose
// map carries the "id" key, whatever its value, is written update-style
// against the stored revision; a doc without the key is inserted under
// a backend-assigned id.
//
// On success the caller's map is mutated in place with the canonical
// id and revision, and that same map resolves the future.
func (s *Store) Save(ctx context.Context, doc Document) *futures.Future[Document] {
	return run(ctx, s, "save", func(ctx context.Context) (Document, error) {
		return s.save(ctx, doc)
	})
}

// Update is Save restricted to existing documents: a doc without the
// "id" key fails the future with [ErrInvalidArgument]. It shares
// Save's in-place mutation contract.
func (s *Store) Update(ctx context.Context, doc Document) *futures.Future[Document] {
	return run(ctx, s, "update", func(ctx context.Context) (Document, error) {
		if doc == nil || !doc.HasID() {
			return nil, fmt.Errorf("%w: document has no id", constants.ErrInvalidArgument)
		}
		return s.save(ctx, doc)
	})
}

func (s *Store) save(ctx context.Context, doc Document) (Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", constants.ErrInvalidArgument)
	}

	var (
		ack connection.Ack
		err error
	)
	if doc.HasID() {
		ack, err = s.conn.Put(ctx, models.ToNative(doc))
	} else {
		ack, err = s.conn.Post(ctx, models.ToNative(doc))
	}
	if err != nil {
		return nil, err
	}

	doc.SetID(ack.ID)
	doc.SetRevision(ack.Rev)
	return doc, nil
}

// Delete removes the document addressed by doc's id and revision and
// resolves the backend's acknowledgment unmodified.
func (s *Store) Delete(ctx context.Context, doc Document) *futures.Future[RemoveAck] {
	return run(ctx, s, "delete", func(ctx context.Context) (RemoveAck, error) {
		return s.remove(ctx, doc)
	})
}

func (s *Store) remove(ctx context.Context, doc Document) (RemoveAck, error) {
	if doc == nil || doc.ID() == "" {
		return RemoveAck{}, fmt.Errorf("%w: document has no id", constants.ErrInvalidArgument)
	}
	ack, err := s.conn.Remove(ctx, doc.ID(), doc.Revision())
	if err != nil {
		return RemoveAck{}, err
	}
	return models.RemoveAckFrom(ack), nil
}

// Find forwards query to the backend's query engine and resolves the
// matching documents. Settee does no planning of its own; a backend
// warning about missing index support is logged, not returned.
func (s *Store) Find(ctx context.Context, query Query) *futures.Future[[]Document] {
	return run(ctx, s, "find", func(ctx context.Context) ([]Document, error) {
		res, err := s.conn.Find(ctx, query)
		if err != nil {
			return nil, err
		}
		if res.Warning != "" {
			s.log.Warn("find ran unindexed", "warning", res.Warning)
		}
		return models.DocsFromNative(res.Docs), nil
	})
}
