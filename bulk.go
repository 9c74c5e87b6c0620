package settee

import (
	"context"
	"fmt"

	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/futures"
	"github.com/setteedb/settee/pkg/models"
)

// BulkGet fetches all referenced documents in one backend round trip.
//
// The call is all-or-nothing: each ref must yield at least one
// successful result, and the first such result is returned for it, in
// request order. A ref with no successful result fails the whole
// future with [ErrNotFound] naming that id.
//
// A nil refs slice fails with [ErrInvalidArgument]; an empty non-nil
// slice resolves to an empty result without contacting the backend.
func (s *Store) BulkGet(ctx context.Context, refs []DocRef) *futures.Future[[]Document] {
	return run(ctx, s, "bulk_get", func(ctx context.Context) ([]Document, error) {
		if refs == nil {
			return nil, fmt.Errorf("%w: nil refs", constants.ErrInvalidArgument)
		}
		if len(refs) == 0 {
			return []Document{}, nil
		}

		results, err := s.conn.BulkGet(ctx, models.ToBulkRefs(refs))
		if err != nil {
			return nil, err
		}

		docs := make([]Document, 0, len(results))
		for _, res := range results {
			native, ok := firstOK(res)
			if !ok {
				return nil, fmt.Errorf("%q: %w", res.ID, constants.ErrNotFound)
			}
			docs = append(docs, models.DocFromNative(native))
		}
		return docs, nil
	})
}

func firstOK(res connection.BulkResult) (map[string]any, bool) {
	for _, leg := range res.Docs {
		if leg.OK != nil {
			return leg.OK, true
		}
	}
	return nil, false
}
