// Package couchhttp implements the connection interface against
// Couch-compatible HTTP servers: CouchDB itself, PouchDB Server, or the
// in-repo fake used in tests.
package couchhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/setteedb/settee/internal/codec"
	"github.com/setteedb/settee/internal/rand"
	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/logger"
)

// Config configures a CouchHTTP connection.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:5984".
	BaseURL string

	// Database is the database name under BaseURL.
	Database string

	// Username and Password enable basic auth when both are set.
	Username string
	Password string

	// Token is sent as a bearer Authorization header when set. Tokens
	// are passed through verbatim; settee never mints or refreshes
	// them.
	Token string

	// HTTPClient overrides the default client, which uses
	// [constants.DefaultHTTPTimeout].
	HTTPClient *http.Client

	// Codec encodes request and response bodies. Defaults to JSON,
	// which is what Couch servers speak.
	Codec codec.Codec

	Logger logger.Logger
}

// CouchHTTP implements [connection.Connection] over the Couch REST
// dialect.
type CouchHTTP struct {
	conf   Config
	client *http.Client
	codec  codec.Codec
	log    logger.Logger
}

var _ connection.Connection = (*CouchHTTP)(nil)

// New validates conf and returns an unconnected CouchHTTP.
func New(conf Config) (*CouchHTTP, error) {
	if conf.BaseURL == "" {
		return nil, constants.ErrNoBaseURL
	}
	if conf.Database == "" {
		return nil, constants.ErrNoDatabase
	}
	conf.BaseURL = strings.TrimRight(conf.BaseURL, "/")

	client := conf.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: constants.DefaultHTTPTimeout}
	}
	c := conf.Codec
	if c == nil {
		c = codec.JSON{}
	}
	log := conf.Logger
	if log == nil {
		log = logger.Nop{}
	}
	return &CouchHTTP{conf: conf, client: client, codec: c, log: log}, nil
}

// Connect creates the database, treating "already exists" as success.
func (h *CouchHTTP) Connect(ctx context.Context) error {
	err := h.do(ctx, http.MethodPut, h.dbPath(), nil, nil, nil)
	if err == nil {
		return nil
	}
	var be *connection.BackendError
	if errors.As(err, &be) && be.Status == http.StatusPreconditionFailed {
		return nil
	}
	return fmt.Errorf("create database %q: %w", h.conf.Database, err)
}

// Close releases idle transport connections. Stored data is untouched.
func (h *CouchHTTP) Close(ctx context.Context) error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *CouchHTTP) Get(ctx context.Context, id string) (map[string]any, error) {
	var doc map[string]any
	if err := h.do(ctx, http.MethodGet, h.docPath(id), nil, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (h *CouchHTTP) Put(ctx context.Context, doc map[string]any) (connection.Ack, error) {
	id, _ := doc["_id"].(string)
	if id == "" {
		return connection.Ack{}, fmt.Errorf("document has no _id: %w", constants.ErrInvalidArgument)
	}
	var ack connection.Ack
	if err := h.do(ctx, http.MethodPut, h.docPath(id), nil, doc, &ack); err != nil {
		return connection.Ack{}, err
	}
	return ack, nil
}

func (h *CouchHTTP) Post(ctx context.Context, doc map[string]any) (connection.Ack, error) {
	var ack connection.Ack
	if err := h.do(ctx, http.MethodPost, h.dbPath(), nil, doc, &ack); err != nil {
		return connection.Ack{}, err
	}
	return ack, nil
}

func (h *CouchHTTP) Remove(ctx context.Context, id, rev string) (connection.Ack, error) {
	query := url.Values{"rev": []string{rev}}
	var ack connection.Ack
	if err := h.do(ctx, http.MethodDelete, h.docPath(id), query, nil, &ack); err != nil {
		return connection.Ack{}, err
	}
	return ack, nil
}

func (h *CouchHTTP) AllDocs(ctx context.Context, includeDocs bool) ([]connection.Row, error) {
	query := url.Values{}
	if includeDocs {
		query.Set("include_docs", "true")
	}
	var out struct {
		TotalRows int              `json:"total_rows"`
		Offset    int              `json:"offset"`
		Rows      []connection.Row `json:"rows"`
	}
	if err := h.do(ctx, http.MethodGet, h.dbPath()+"/_all_docs", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (h *CouchHTTP) BulkGet(ctx context.Context, refs []connection.BulkRef) ([]connection.BulkResult, error) {
	body := map[string]any{"docs": refs}
	var out struct {
		Results []connection.BulkResult `json:"results"`
	}
	if err := h.do(ctx, http.MethodPost, h.dbPath()+"/_bulk_get", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (h *CouchHTTP) Find(ctx context.Context, query connection.Query) (connection.FindResult, error) {
	var out connection.FindResult
	if err := h.do(ctx, http.MethodPost, h.dbPath()+"/_find", nil, query, &out); err != nil {
		return connection.FindResult{}, err
	}
	return out, nil
}

// CreateIndex posts an index definition. The server decides the name
// and reports "exists" for idempotent repeats, which is surfaced as
// [constants.ErrIndexExists] with the result still populated.
func (h *CouchHTTP) CreateIndex(ctx context.Context, fields []string) (connection.IndexResult, error) {
	body := map[string]any{
		"index": map[string]any{"fields": fields},
	}
	var out connection.IndexResult
	if err := h.do(ctx, http.MethodPost, h.dbPath()+"/_index", nil, body, &out); err != nil {
		return connection.IndexResult{}, err
	}
	if out.Result == "exists" {
		return out, fmt.Errorf("%q: %w", out.Name, constants.ErrIndexExists)
	}
	return out, nil
}

// Destroy deletes the database on the server.
func (h *CouchHTTP) Destroy(ctx context.Context) error {
	if err := h.do(ctx, http.MethodDelete, h.dbPath(), nil, nil, nil); err != nil {
		return fmt.Errorf("delete database %q: %w", h.conf.Database, err)
	}
	return nil
}

func (h *CouchHTTP) dbPath() string {
	return "/" + url.PathEscape(h.conf.Database)
}

func (h *CouchHTTP) docPath(id string) string {
	// Design doc ids keep their slash so the server routes them; all
	// other ids are escaped wholesale.
	if name, ok := strings.CutPrefix(id, constants.DesignDocPrefix); ok {
		return h.dbPath() + "/_design/" + url.PathEscape(name)
	}
	return h.dbPath() + "/" + url.PathEscape(id)
}

// do performs one request and decodes the response into out when out is
// non-nil. Non-2xx responses are sniffed for couch error envelopes and
// mapped onto the sentinel taxonomy.
func (h *CouchHTTP) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqID := rand.RequestID(12)

	var reqBody io.Reader = http.NoBody
	if body != nil {
		encoded, err := h.codec.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	target := h.conf.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", h.codec.ContentType())
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", h.codec.ContentType())
	}
	if h.conf.Username != "" && h.conf.Password != "" {
		req.SetBasicAuth(h.conf.Username, h.conf.Password)
	}
	if h.conf.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.conf.Token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &connection.BackendError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &connection.BackendError{Status: resp.StatusCode, Err: err}
	}

	h.log.Debug("couch request",
		"req", reqID, "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return h.asError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := h.codec.Unmarshal(respBody, out); err != nil {
		return &connection.BackendError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// asError maps a couch error envelope onto the sentinel taxonomy. The
// envelope fields are sniffed with jsonparser so malformed bodies still
// produce a usable error.
func (h *CouchHTTP) asError(status int, body []byte) error {
	name, _ := jsonparser.GetString(body, "error")
	reason, _ := jsonparser.GetString(body, "reason")

	switch status {
	case http.StatusNotFound:
		if reason != "" {
			return fmt.Errorf("%s: %w", reason, constants.ErrNotFound)
		}
		return constants.ErrNotFound
	case http.StatusConflict:
		if reason != "" {
			return fmt.Errorf("%s: %w", reason, constants.ErrConflict)
		}
		return constants.ErrConflict
	case http.StatusBadRequest:
		return fmt.Errorf("%s %s: %w", name, reason, constants.ErrInvalidArgument)
	}
	return &connection.BackendError{Status: status, Name: name, Reason: reason}
}
