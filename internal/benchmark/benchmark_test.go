package benchmark_test

import (
	"context"
	"testing"

	"github.com/setteedb/settee"
	"github.com/setteedb/settee/internal/mock"
	"github.com/setteedb/settee/internal/rand"
	"github.com/setteedb/settee/pkg/connection/memory"
)

// setupMockStore wires the façade to a no-op backend, so the numbers
// measure the façade and future machinery alone.
func setupMockStore(b *testing.B) *settee.Store {
	b.Helper()
	st, err := settee.Open(context.Background(), mock.Create())
	if err != nil {
		b.Fatal(err)
	}
	return st
}

func setupMemoryStore(b *testing.B) *settee.Store {
	b.Helper()
	st, err := settee.Open(context.Background(), memory.New(memory.Config{}))
	if err != nil {
		b.Fatal(err)
	}
	return st
}

func BenchmarkSaveOverhead(b *testing.B) {
	ctx := context.Background()
	st := setupMockStore(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc := settee.Document{"id": "bench", "n": i}
		st.Save(ctx, doc).Result() //nolint:errcheck
	}
}

func BenchmarkSaveMemory(b *testing.B) {
	ctx := context.Background()
	st := setupMemoryStore(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc := settee.Document{"id": rand.RequestID(16), "n": i}
		st.Save(ctx, doc).Result() //nolint:errcheck
	}
}

func BenchmarkGetMemory(b *testing.B) {
	ctx := context.Background()
	st := setupMemoryStore(b)
	if _, err := st.Save(ctx, settee.Document{"id": "hot", "n": 0}).Await(ctx); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st.Get(ctx, "hot").Result() //nolint:errcheck
	}
}

func BenchmarkBulkGetMemory(b *testing.B) {
	ctx := context.Background()
	st := setupMemoryStore(b)

	refs := make([]settee.DocRef, 0, 64)
	for i := 0; i < 64; i++ {
		id := rand.RequestID(16)
		if _, err := st.Save(ctx, settee.Document{"id": id, "n": i}).Await(ctx); err != nil {
			b.Fatal(err)
		}
		refs = append(refs, settee.DocRef{ID: id})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st.BulkGet(ctx, refs).Result() //nolint:errcheck
	}
}
