package settee

import (
	"context"
	"errors"
	"fmt"

	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/futures"
	"github.com/setteedb/settee/pkg/models"
)

// CreateIndices asks the backend to maintain a secondary index over
// fields. Duplicated field names collapse to their first occurrence;
// zero fields fail with [ErrInvalidArgument]. Creating an index that
// already exists is not an error: the future resolves with Result
// "exists".
func (s *Store) CreateIndices(ctx context.Context, fields ...string) *futures.Future[IndexResult] {
	return run(ctx, s, "create_indices", func(ctx context.Context) (IndexResult, error) {
		if len(fields) == 0 {
			return IndexResult{}, fmt.Errorf("%w: no index fields given", constants.ErrInvalidArgument)
		}

		res, err := s.conn.CreateIndex(ctx, dedupeFields(fields))
		if err != nil {
			if errors.Is(err, constants.ErrIndexExists) {
				out := models.IndexResultFrom(res)
				out.Result = "exists"
				return out, nil
			}
			return IndexResult{}, err
		}
		return models.IndexResultFrom(res), nil
	})
}

// CreateIndex is an alias for [Store.CreateIndices].
func (s *Store) CreateIndex(ctx context.Context, fields ...string) *futures.Future[IndexResult] {
	return s.CreateIndices(ctx, fields...)
}

// dedupeFields drops repeated field names, keeping first occurrences
// in order.
func dedupeFields(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
