package settee_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setteedb/settee"
	"github.com/setteedb/settee/internal/mock"
	"github.com/setteedb/settee/pkg/connection"
)

func TestCreateIndices(t *testing.T) {
	ctx := context.Background()

	t.Run("zero fields are invalid", func(t *testing.T) {
		conn := mock.Create()
		st, err := settee.Open(ctx, conn)
		require.NoError(t, err)

		_, err = st.CreateIndices(ctx).Await(ctx)
		assert.ErrorIs(t, err, settee.ErrInvalidArgument)
		assert.Zero(t, conn.CreateIndexCalls.Load())
	})

	t.Run("duplicates collapse to first occurrences", func(t *testing.T) {
		var got []string
		conn := mock.Create()
		conn.CreateIndexFunc = func(ctx context.Context, fields []string) (connection.IndexResult, error) {
			got = fields
			return connection.IndexResult{Result: "created"}, nil
		}
		st, err := settee.Open(ctx, conn)
		require.NoError(t, err)

		_, err = st.CreateIndices(ctx, "kind", "strength", "kind").Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"kind", "strength"}, got)
	})

	t.Run("repeat creation resolves exists", func(t *testing.T) {
		st := newStore(t)

		first, err := st.CreateIndices(ctx, "kind").Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "created", first.Result)
		assert.NotEmpty(t, first.Name)

		second, err := st.CreateIndices(ctx, "kind").Await(ctx)
		require.NoError(t, err, "an existing index is not a failure")
		assert.Equal(t, "exists", second.Result)
	})

	t.Run("alias behaves identically", func(t *testing.T) {
		st := newStore(t)

		res, err := st.CreateIndex(ctx, "strength").Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "created", res.Result)
	})
}
