package settee

import (
	"context"
	"strings"

	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/futures"
	"github.com/setteedb/settee/pkg/models"
)

// All enumerates the database in the backend's own order. By default
// it resolves full ordinary documents; design documents are excluded
// unless [OnlyDesignDocs] is given, and [WithoutDocs] reduces rows to
// id/revision stubs. A caller wanting both populations composes two
// calls.
func (s *Store) All(ctx context.Context, opts ...AllOption) *futures.Future[[]Document] {
	conf := allConfig{includeDocs: true}
	for _, opt := range opts {
		opt(&conf)
	}
	return run(ctx, s, "all", func(ctx context.Context) ([]Document, error) {
		return s.list(ctx, conf)
	})
}

func (s *Store) list(ctx context.Context, conf allConfig) ([]Document, error) {
	rows, err := s.conn.AllDocs(ctx, conf.includeDocs)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		// A row survives only when its design-ness matches the
		// requested population.
		if strings.HasPrefix(row.ID, constants.DesignDocPrefix) != conf.designDocs {
			continue
		}
		docs = append(docs, models.DocFromRow(row, conf.includeDocs))
	}
	return docs, nil
}
