package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setteedb/settee/internal/codec"
	"github.com/setteedb/settee/pkg/connection"
)

func TestSnapshotRoundTrip(t *testing.T) {
	for name, c := range map[string]codec.Codec{
		"CBOR":    codec.CBOR{},
		"Msgpack": codec.Msgpack{},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "store.settee")

			src := New(Config{SnapshotPath: path, Codec: c})
			require.NoError(t, src.Connect(ctx))
			seed(t, src,
				map[string]any{"_id": "a", "n": 1, "nested": map[string]any{"deep": "x"}},
				map[string]any{"_id": "b", "tags": []any{"one", "two"}},
			)
			_, err := src.CreateIndex(ctx, []string{"n"})
			require.NoError(t, err)
			require.NoError(t, src.Close(ctx))

			dst := New(Config{SnapshotPath: path, Codec: c})
			require.NoError(t, dst.Connect(ctx))

			doc, err := dst.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"deep": "x"}, doc["nested"])

			rows, err := dst.AllDocs(ctx, false)
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			// The index survived too, so the advisory warning is gone.
			res, err := dst.Find(ctx, connection.Query{Selector: map[string]any{"n": 1}})
			require.NoError(t, err)
			assert.Empty(t, res.Warning)
			require.Len(t, res.Docs, 1)
		})
	}
}

func TestSnapshotMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.settee")
	m := New(Config{SnapshotPath: path})
	require.NoError(t, m.Connect(context.Background()))
}

func TestSnapshotRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.settee")
	require.NoError(t, os.WriteFile(path, []byte("GARBAGEGARBAGE"), 0o644))

	m := New(Config{SnapshotPath: path})
	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a snapshot file")
}

func TestDestroyedStoreIsNotSnapshotted(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.settee")

	m := New(Config{SnapshotPath: path})
	require.NoError(t, m.Connect(ctx))
	seed(t, m, map[string]any{"_id": "a"})
	require.NoError(t, m.Destroy(ctx))
	require.NoError(t, m.Close(ctx))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
