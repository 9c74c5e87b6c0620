package fakecouch

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doReq(t *testing.T, method, url string, body []byte) (int, []byte) {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestServerSpeaksCouch(t *testing.T) {
	s := NewServer()
	defer s.Close()

	status, _ := doReq(t, http.MethodPut, s.URL()+"/pets", nil)
	require.Equal(t, http.StatusCreated, status)

	status, _ = doReq(t, http.MethodPut, s.URL()+"/pets", nil)
	assert.Equal(t, http.StatusPreconditionFailed, status, "second create conflicts")

	status, body := doReq(t, http.MethodPut, s.URL()+"/pets/rex", []byte(`{"kind":"dog"}`))
	require.Equal(t, http.StatusCreated, status)
	var ack struct {
		OK  bool   `json:"ok"`
		ID  string `json:"id"`
		Rev string `json:"rev"`
	}
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.True(t, ack.OK)
	assert.Equal(t, "rex", ack.ID)
	assert.NotEmpty(t, ack.Rev)

	status, body = doReq(t, http.MethodGet, s.URL()+"/pets/rex", nil)
	require.Equal(t, http.StatusOK, status)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "dog", doc["kind"])
	assert.Equal(t, ack.Rev, doc["_rev"])

	status, body = doReq(t, http.MethodGet, s.URL()+"/pets/ghost", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "not_found")

	assert.Equal(t, 1, s.DocCount("pets"))
	assert.True(t, s.HasDB("pets"))

	status, _ = doReq(t, http.MethodDelete, s.URL()+"/pets", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, s.HasDB("pets"))
}

func TestStubShortCircuits(t *testing.T) {
	s := NewServer()
	defer s.Close()

	s.AddStub(Stub{
		Method: http.MethodGet,
		Path:   "/pets/rex",
		Status: http.StatusInternalServerError,
		Body:   `{"error":"internal_server_error","reason":"boom"}`,
		Once:   true,
	})

	status, body := doReq(t, http.MethodGet, s.URL()+"/pets/rex", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, string(body), "boom")

	// Stub was Once; the real handler answers now (db missing -> 404).
	status, _ = doReq(t, http.MethodGet, s.URL()+"/pets/rex", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBasicAuthRequired(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.Username = "admin"
	s.Password = "sofa"

	status, body := doReq(t, http.MethodPut, s.URL()+"/pets", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "unauthorized")

	req, err := http.NewRequest(http.MethodPut, s.URL()+"/pets", http.NoBody)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "sofa")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
