package settee

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/setteedb/settee/internal/metrics"
	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/connection/couchbase"
	"github.com/setteedb/settee/pkg/connection/couchhttp"
	"github.com/setteedb/settee/pkg/connection/memory"
	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/futures"
	"github.com/setteedb/settee/pkg/logger"
	"github.com/setteedb/settee/pkg/models"
	"github.com/setteedb/settee/pkg/replication"
)

// Canonical shapes, re-exported so that most programs only import
// settee itself.
type (
	Document    = models.Document
	DocRef      = models.DocRef
	RemoveAck   = models.RemoveAck
	IndexResult = models.IndexResult
	Ack         = models.Ack
	Query       = connection.Query
)

// Store is the document store façade. It owns its connection
// exclusively and at most one replication session. All methods are
// safe for concurrent use; the store does not serialize operations,
// so concurrent writes to one document race at the backend's revision
// check.
type Store struct {
	conn connection.Connection
	log  logger.Logger
	met  *metrics.Metrics

	mu   sync.Mutex
	sess *replication.Session
}

// Open connects conn and wraps it in a Store.
func Open(ctx context.Context, conn connection.Connection, opts ...Option) (*Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: nil connection", constants.ErrInvalidArgument)
	}

	s, err := newStore(opts)
	if err != nil {
		return nil, err
	}
	s.conn = conn

	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return s, nil
}

// OpenURL selects a backend from the URL scheme, connects it and wraps
// it in a Store:
//
//	memory:                     embedded store, no persistence
//	memory:/path/to/snapshot    embedded store persisted on Close
//	http://host:5984/db         Couch-style HTTP server
//	couchbase://host/bucket     Couchbase cluster (bucket[/scope[/collection]])
//
// Credentials embedded in the URL become the connection's basic-auth
// pair.
func OpenURL(ctx context.Context, rawURL string, opts ...Option) (*Store, error) {
	s, err := newStore(opts)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrInvalidArgument, err)
	}

	conn, err := dial(u, s.log)
	if err != nil {
		return nil, err
	}
	s.conn = conn

	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", u.Redacted(), err)
	}
	return s, nil
}

func newStore(opts []Option) (*Store, error) {
	s := &Store{log: logger.Nop{}}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func dial(u *url.URL, log logger.Logger) (connection.Connection, error) {
	switch u.Scheme {
	case "memory":
		path := u.Opaque
		if path == "" {
			path = u.Path
		}
		return memory.New(memory.Config{SnapshotPath: path, Logger: log}), nil

	case "http", "https":
		db := strings.Trim(u.Path, "/")
		if strings.Contains(db, "/") {
			return nil, fmt.Errorf("%w: url must name exactly one database", constants.ErrInvalidArgument)
		}
		conf := couchhttp.Config{
			BaseURL:  u.Scheme + "://" + u.Host,
			Database: db,
			Logger:   log,
		}
		if user := u.User; user != nil {
			conf.Username = user.Username()
			conf.Password, _ = user.Password()
		}
		return couchhttp.New(conf)

	case "couchbase", "couchbases":
		connStr := u.Scheme + "://" + u.Host
		if u.RawQuery != "" {
			connStr += "?" + u.RawQuery
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		conf := couchbase.Config{
			ConnString: connStr,
			Bucket:     parts[0],
			Logger:     log,
		}
		if len(parts) > 1 {
			conf.Scope = parts[1]
		}
		if len(parts) > 2 {
			conf.Collection = parts[2]
		}
		if user := u.User; user != nil {
			conf.Username = user.Username()
			conf.Password, _ = user.Password()
		}
		return couchbase.New(conf)

	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", constants.ErrInvalidArgument, u.Scheme)
	}
}

// Close releases the connection without touching stored data. A memory
// store configured with a snapshot path persists itself here.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// AttachSession hands the store a replication session for Destroy to
// coordinate with. Attaching replaces any previous session; attach nil
// to detach.
func (s *Store) AttachSession(sess *replication.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
}

// Session returns the currently attached replication session, or nil.
func (s *Store) Session() *replication.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// run launches one store operation on its own goroutine and settles
// the returned future with its outcome, recording metrics and logging
// failures on the way out.
func run[T any](ctx context.Context, s *Store, op string, fn func(context.Context) (T, error)) *futures.Future[T] {
	start := time.Now()
	return futures.Go(ctx, func(ctx context.Context) (T, error) {
		out, err := fn(ctx)
		s.met.Observe(op, start, err)
		if err != nil {
			s.log.Debug("operation failed", "op", op, "err", err)
		}
		return out, err
	})
}
