package settee

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/setteedb/settee/pkg/futures"
)

// DeleteAll removes every ordinary document in the database. The
// removals run concurrently and unordered; one failure does not stop
// the others. The future resolves only after every removal settled,
// with the acknowledgments in listing order, and fails with the joined
// errors when any removal failed.
func (s *Store) DeleteAll(ctx context.Context) *futures.Future[[]RemoveAck] {
	return run(ctx, s, "delete_all", func(ctx context.Context) ([]RemoveAck, error) {
		docs, err := s.list(ctx, allConfig{includeDocs: true})
		if err != nil {
			return nil, err
		}

		acks := make([]RemoveAck, len(docs))
		errs := make([]error, len(docs))

		var wg sync.WaitGroup
		for i, doc := range docs {
			wg.Add(1)
			go func(i int, doc Document) {
				defer wg.Done()
				acks[i], errs[i] = s.remove(ctx, doc)
			}(i, doc)
		}
		wg.Wait()

		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("delete all: %w", err)
		}
		return acks, nil
	})
}

// Clear is an alias for [Store.DeleteAll].
func (s *Store) Clear(ctx context.Context) *futures.Future[[]RemoveAck] {
	return s.DeleteAll(ctx)
}
