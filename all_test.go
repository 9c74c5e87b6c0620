package settee_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setteedb/settee"
)

func TestAll(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	for _, doc := range []settee.Document{
		{"id": "b", "n": 2},
		{"id": "a", "n": 1},
		{"id": "_design/by-n", "views": map[string]any{}},
		{"id": "c", "n": 3},
	} {
		_, err := st.Save(ctx, doc).Await(ctx)
		require.NoError(t, err)
	}

	t.Run("default excludes design docs", func(t *testing.T) {
		docs, err := st.All(ctx).Await(ctx)
		require.NoError(t, err)

		require.Len(t, docs, 3)
		assert.Equal(t, "a", docs[0].ID())
		assert.Equal(t, "b", docs[1].ID())
		assert.Equal(t, "c", docs[2].ID())
		assert.Equal(t, 1, docs[0]["n"], "default listing carries full documents")
	})

	t.Run("only design docs", func(t *testing.T) {
		docs, err := st.All(ctx, settee.OnlyDesignDocs()).Await(ctx)
		require.NoError(t, err)

		require.Len(t, docs, 1)
		assert.Equal(t, "_design/by-n", docs[0].ID())
	})

	t.Run("without docs yields bare stubs", func(t *testing.T) {
		docs, err := st.All(ctx, settee.WithoutDocs()).Await(ctx)
		require.NoError(t, err)

		require.Len(t, docs, 3)
		for _, doc := range docs {
			assert.Len(t, doc, 2, "a stub carries exactly id and revision")
			assert.NotEmpty(t, doc.ID())
			assert.NotEmpty(t, doc.Revision())
		}
	})

	t.Run("empty store lists empty", func(t *testing.T) {
		empty := newStore(t)
		docs, err := empty.All(ctx).Await(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}
