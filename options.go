package settee

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/setteedb/settee/internal/metrics"
	"github.com/setteedb/settee/pkg/constants"
	"github.com/setteedb/settee/pkg/logger"
	"github.com/setteedb/settee/pkg/replication"
)

// Option configures a Store during Open or OpenURL.
type Option func(*Store) error

// WithLogger routes the store's log output to log. The default
// discards everything.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		if log == nil {
			return fmt.Errorf("%w: nil logger", constants.ErrInvalidArgument)
		}
		s.log = log
		return nil
	}
}

// WithMetrics registers the store's operation collectors with reg and
// records every operation against them.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Store) error {
		if reg == nil {
			return fmt.Errorf("%w: nil registerer", constants.ErrInvalidArgument)
		}
		s.met = metrics.New(reg)
		return nil
	}
}

// WithSession attaches a replication session at construction time;
// equivalent to calling [Store.AttachSession] afterwards.
func WithSession(sess *replication.Session) Option {
	return func(s *Store) error {
		s.sess = sess
		return nil
	}
}

// allConfig is the resolved listing mode; see All.
type allConfig struct {
	includeDocs bool
	designDocs  bool
}

// AllOption adjusts what All enumerates.
type AllOption func(*allConfig)

// WithoutDocs lists id/revision stubs instead of full documents.
func WithoutDocs() AllOption {
	return func(c *allConfig) { c.includeDocs = false }
}

// OnlyDesignDocs lists only design documents, which the default mode
// excludes. The two populations never mix in one listing.
func OnlyDesignDocs() AllOption {
	return func(c *allConfig) { c.designDocs = true }
}
