// Package fakecouch provides a fake Couch-dialect HTTP server for
// testing. It serves the subset of the REST surface settee speaks,
// backed by the in-memory connection so revision and conflict semantics
// match a real server.
//
// Failure injection works through stubbed responses: a [Stub] matching
// a request short-circuits the real handler and answers with a canned
// status, body and optional delay.
package fakecouch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/connection/memory"
	"github.com/setteedb/settee/pkg/constants"
)

// Stub is a canned response for matching requests.
type Stub struct {
	// Method matches the request method; empty matches any.
	Method string
	// Path suffix-matches the request path; empty matches any.
	Path string
	// Status and Body form the response.
	Status int
	Body   string
	// Delay is applied before responding.
	Delay time.Duration
	// Once removes the stub after its first hit.
	Once bool
}

// Server is a fake Couch server bound to an ephemeral port.
type Server struct {
	// Username and Password, when both set, require basic auth on
	// every request.
	Username string
	Password string

	mu    sync.Mutex
	dbs   map[string]*memory.Memory
	stubs []Stub

	httpServer *httptest.Server
}

// NewServer starts a fake server on an ephemeral localhost port.
func NewServer() *Server {
	s := &Server{dbs: make(map[string]*memory.Memory)}

	r := mux.NewRouter()
	r.Use(s.stubMiddleware, s.authMiddleware)
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/{db}", s.handleCreateDB).Methods(http.MethodPut)
	r.HandleFunc("/{db}", s.handleDeleteDB).Methods(http.MethodDelete)
	r.HandleFunc("/{db}", s.handlePostDoc).Methods(http.MethodPost)
	r.HandleFunc("/{db}/_all_docs", s.handleAllDocs).Methods(http.MethodGet)
	r.HandleFunc("/{db}/_bulk_get", s.handleBulkGet).Methods(http.MethodPost)
	r.HandleFunc("/{db}/_find", s.handleFind).Methods(http.MethodPost)
	r.HandleFunc("/{db}/_index", s.handleCreateIndex).Methods(http.MethodPost)
	r.HandleFunc("/{db}/{docid:.*}", s.handleGetDoc).Methods(http.MethodGet)
	r.HandleFunc("/{db}/{docid:.*}", s.handlePutDoc).Methods(http.MethodPut)
	r.HandleFunc("/{db}/{docid:.*}", s.handleDeleteDoc).Methods(http.MethodDelete)

	s.httpServer = httptest.NewServer(r)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// AddStub registers a canned response. Stubs are checked in order and
// win over real handlers.
func (s *Server) AddStub(st Stub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = append(s.stubs, st)
}

// ResetStubs drops all registered stubs.
func (s *Server) ResetStubs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = nil
}

// DocCount reports how many documents a database holds, for assertions.
func (s *Server) DocCount(db string) int {
	s.mu.Lock()
	m, ok := s.dbs[db]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	rows, err := m.AllDocs(context.Background(), false)
	if err != nil {
		return 0
	}
	return len(rows)
}

// HasDB reports whether the database exists.
func (s *Server) HasDB(db string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dbs[db]
	return ok
}

func (s *Server) stubMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var (
			stub Stub
			hit  bool
		)
		for i := range s.stubs {
			st := &s.stubs[i]
			if st.Method != "" && st.Method != r.Method {
				continue
			}
			if st.Path != "" && !strings.HasSuffix(r.URL.Path, st.Path) {
				continue
			}
			// Copy before a Once removal shifts the backing array.
			stub = *st
			hit = true
			if st.Once {
				s.stubs = append(s.stubs[:i], s.stubs[i+1:]...)
			}
			break
		}
		s.mu.Unlock()

		if !hit {
			next.ServeHTTP(w, r)
			return
		}
		if stub.Delay > 0 {
			time.Sleep(stub.Delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stub.Status)
		_, _ = w.Write([]byte(stub.Body))
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username != "" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.Username || pass != s.Password {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Name or password is incorrect.")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) db(r *http.Request) (*memory.Memory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.dbs[mux.Vars(r)["db"]]
	return m, ok
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"couchdb": "Welcome", "vendor": map[string]any{"name": "fakecouch"}})
}

func (s *Server) handleCreateDB(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["db"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dbs[name]; ok {
		writeError(w, http.StatusPreconditionFailed, "file_exists",
			"The database could not be created, the file already exists.")
		return
	}
	m := memory.New(memory.Config{})
	_ = m.Connect(r.Context())
	s.dbs[name] = m
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

func (s *Server) handleDeleteDB(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["db"]
	s.mu.Lock()
	m, ok := s.dbs[name]
	if ok {
		delete(s.dbs, name)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	_ = m.Destroy(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	m, ok := s.db(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	doc, err := m.Get(r.Context(), mux.Vars(r)["docid"])
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutDoc(w http.ResponseWriter, r *http.Request) {
	m, ok := s.db(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid UTF-8 JSON")
		return
	}
	doc["_id"] = mux.Vars(r)["docid"]
	if rev := r.URL.Query().Get("rev"); rev != "" {
		doc["_rev"] = rev
	}
	ack, err := m.Put(r.Context(), doc)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ack)
}

func (s *Server) handlePostDoc(w http.ResponseWriter, r *http.Request) {
	m, ok := s.db(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid UTF-8 JSON")
		return
	}
	var (
		ack connection.Ack
		err error
	)
	if id, _ := doc["_id"].(string); id != "" {
		ack, err = m.Put(r.Context(), doc)
	} else {
		ack, err = m.Post(r.Context(), doc)
	}
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ack)
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	m, ok := s.db(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	rev := r.URL.Query().Get("rev")
	if rev == "" {
		rev = strings.Trim(r.Header.Get("If-Match"), `"`)
	}
	ack, err := m.Remove(r.Context(), mux.Vars(r)["docid"], rev)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (s *Server) handleAllDocs(w http.ResponseWriter, r *http.Request) {
	m, ok := s.db(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	includeDocs := r.URL.Query().Get("include_docs") == "true"
	rows, err := m.AllDocs(r.Context(), includeDocs)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_rows": len(rows),
		"offset":     0,
		"rows":       rows,
	})
}

func (s *Server) handleBulkGet(w http.ResponseWriter, r *http.Request) {
	m, ok := s.db(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	var body struct {
		Docs []connection.BulkRef `json:"docs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid UTF-8 JSON")
		return
	}
	results, err := m.BulkGet(r.Context(), body.Docs)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	m, ok := s.db(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	var query connection.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid UTF-8 JSON")
		return
	}
	res, err := m.Find(r.Context(), query)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateIndex(w http.ResponseWriter, r *http.Request) {
	m, ok := s.db(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
		return
	}
	var body struct {
		Index struct {
			Fields []string `json:"fields"`
		} `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid UTF-8 JSON")
		return
	}
	res, err := m.CreateIndex(r.Context(), body.Index.Fields)
	if err != nil {
		if errors.Is(err, constants.ErrIndexExists) {
			name := "idx-" + strings.Join(body.Index.Fields, "-")
			writeJSON(w, http.StatusOK, connection.IndexResult{
				Result: "exists",
				ID:     "_design/" + name,
				Name:   name,
			})
			return
		}
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeMappedError translates memory-backend sentinels into couch error
// envelopes.
func writeMappedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, constants.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "missing")
	case errors.Is(err, constants.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
	case errors.Is(err, constants.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, constants.ErrDestroyed):
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
	default:
		writeError(w, http.StatusInternalServerError, "internal_server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, name, reason string) {
	writeJSON(w, status, map[string]any{"error": name, "reason": reason})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
