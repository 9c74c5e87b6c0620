package couchhttp_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setteedb/settee/internal/fakecouch"
	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/connection/couchhttp"
	"github.com/setteedb/settee/pkg/constants"
)

func newClient(t *testing.T, server *fakecouch.Server) *couchhttp.CouchHTTP {
	t.Helper()
	h, err := couchhttp.New(couchhttp.Config{
		BaseURL:  server.URL(),
		Database: "pets",
	})
	require.NoError(t, err)
	require.NoError(t, h.Connect(context.Background()))
	return h
}

func TestNewValidation(t *testing.T) {
	_, err := couchhttp.New(couchhttp.Config{Database: "pets"})
	assert.ErrorIs(t, err, constants.ErrNoBaseURL)

	_, err = couchhttp.New(couchhttp.Config{BaseURL: "http://localhost:5984"})
	assert.ErrorIs(t, err, constants.ErrNoDatabase)
}

func TestConnectIsIdempotent(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()

	h := newClient(t, server)
	require.True(t, server.HasDB("pets"))

	// The database already exists; the 412 is swallowed.
	require.NoError(t, h.Connect(context.Background()))
}

func TestDocumentLifecycle(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)
	ctx := context.Background()

	ack, err := h.Put(ctx, map[string]any{"_id": "rex", "kind": "dog"})
	require.NoError(t, err)
	require.True(t, ack.OK)
	require.Equal(t, "rex", ack.ID)

	doc, err := h.Get(ctx, "rex")
	require.NoError(t, err)
	assert.Equal(t, "dog", doc["kind"])
	assert.Equal(t, ack.Rev, doc["_rev"])

	t.Run("stale write conflicts", func(t *testing.T) {
		_, err := h.Put(ctx, map[string]any{"_id": "rex", "_rev": "1-bogus", "kind": "cat"})
		assert.ErrorIs(t, err, constants.ErrConflict)
	})

	t.Run("post assigns an id", func(t *testing.T) {
		posted, err := h.Post(ctx, map[string]any{"kind": "goldfish"})
		require.NoError(t, err)
		assert.NotEmpty(t, posted.ID)
	})

	t.Run("remove", func(t *testing.T) {
		removed, err := h.Remove(ctx, "rex", ack.Rev)
		require.NoError(t, err)
		assert.True(t, removed.OK)

		_, err = h.Get(ctx, "rex")
		assert.ErrorIs(t, err, constants.ErrNotFound)
	})
}

func TestDesignDocPath(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)
	ctx := context.Background()

	ack, err := h.Put(ctx, map[string]any{"_id": "_design/views", "language": "query"})
	require.NoError(t, err)
	assert.Equal(t, "_design/views", ack.ID)

	doc, err := h.Get(ctx, "_design/views")
	require.NoError(t, err)
	assert.Equal(t, "query", doc["language"])
}

func TestAllDocs(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		_, err := h.Put(ctx, map[string]any{"_id": id})
		require.NoError(t, err)
	}

	rows, err := h.AllDocs(ctx, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
	assert.Nil(t, rows[0].Doc)

	rows, err = h.AllDocs(ctx, true)
	require.NoError(t, err)
	require.NotNil(t, rows[0].Doc)
	assert.Equal(t, "a", rows[0].Doc["_id"])
}

func TestBulkGet(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)
	ctx := context.Background()

	_, err := h.Put(ctx, map[string]any{"_id": "a", "n": float64(1)})
	require.NoError(t, err)

	results, err := h.BulkGet(ctx, []connection.BulkRef{{ID: "a"}, {ID: "ghost"}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NotNil(t, results[0].Docs[0].OK)
	assert.Equal(t, float64(1), results[0].Docs[0].OK["n"])
	require.NotNil(t, results[1].Docs[0].Error)
	assert.Equal(t, "not_found", results[1].Docs[0].Error.Err)
}

func TestFind(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)
	ctx := context.Background()

	_, err := h.Put(ctx, map[string]any{"_id": "a", "kind": "dog"})
	require.NoError(t, err)
	_, err = h.Put(ctx, map[string]any{"_id": "b", "kind": "cat"})
	require.NoError(t, err)

	res, err := h.Find(ctx, connection.Query{Selector: map[string]any{"kind": "dog"}})
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	assert.Equal(t, "a", res.Docs[0]["_id"])
	assert.NotEmpty(t, res.Warning, "no index covers kind yet")
}

func TestCreateIndex(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)
	ctx := context.Background()

	res, err := h.CreateIndex(ctx, []string{"kind"})
	require.NoError(t, err)
	assert.Equal(t, "created", res.Result)

	res, err = h.CreateIndex(ctx, []string{"kind"})
	assert.ErrorIs(t, err, constants.ErrIndexExists)
	assert.Equal(t, "exists", res.Result, "result travels with the sentinel")
}

func TestDestroy(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)
	ctx := context.Background()

	require.NoError(t, h.Destroy(ctx))
	assert.False(t, server.HasDB("pets"))

	_, err := h.Get(ctx, "anything")
	assert.ErrorIs(t, err, constants.ErrNotFound)

	err = h.Destroy(ctx)
	assert.ErrorIs(t, err, constants.ErrNotFound, "second destroy has nothing to delete")
}

func TestBackendErrorCarriesEnvelope(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)

	server.AddStub(fakecouch.Stub{
		Method: http.MethodGet,
		Path:   "/pets/rex",
		Status: http.StatusInternalServerError,
		Body:   `{"error":"internal_server_error","reason":"disk on fire"}`,
	})

	_, err := h.Get(context.Background(), "rex")
	require.Error(t, err)
	var be *connection.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusInternalServerError, be.Status)
	assert.Equal(t, "internal_server_error", be.Name)
	assert.Equal(t, "disk on fire", be.Reason)
}

func TestRequestTimeout(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	h := newClient(t, server)

	server.AddStub(fakecouch.Stub{
		Method: http.MethodGet,
		Path:   "/pets/slow",
		Status: http.StatusOK,
		Body:   `{}`,
		Delay:  200 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.Get(ctx, "slow")
	require.Error(t, err)
	var be *connection.BackendError
	assert.ErrorAs(t, err, &be, "transport failures surface as backend errors")
}

func TestBasicAuth(t *testing.T) {
	server := fakecouch.NewServer()
	defer server.Close()
	server.Username = "admin"
	server.Password = "sofa"

	h, err := couchhttp.New(couchhttp.Config{
		BaseURL:  server.URL(),
		Database: "pets",
		Username: "admin",
		Password: "sofa",
	})
	require.NoError(t, err)
	require.NoError(t, h.Connect(context.Background()))

	bad, err := couchhttp.New(couchhttp.Config{
		BaseURL:  server.URL(),
		Database: "pets",
		Username: "admin",
		Password: "wrong",
	})
	require.NoError(t, err)
	err = bad.Connect(context.Background())
	require.Error(t, err)
	var be *connection.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusUnauthorized, be.Status)
}
