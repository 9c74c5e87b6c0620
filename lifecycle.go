package settee

import (
	"context"

	"github.com/setteedb/settee/pkg/futures"
)

// Destroy irreversibly removes the backing database.
//
// When a live replication session is attached, Destroy first registers
// for its completion event, then cancels it, and destroys the backend
// only after the event arrives (or fails with the context's error if
// it expires first). A missing or already-finished session destroys
// immediately. Destroying twice is backend-defined and not guarded
// here.
func (s *Store) Destroy(ctx context.Context) *futures.Future[Ack] {
	return run(ctx, s, "destroy", func(ctx context.Context) (Ack, error) {
		if err := s.drainSession(ctx); err != nil {
			return Ack{}, err
		}
		if err := s.conn.Destroy(ctx); err != nil {
			return Ack{}, err
		}
		return Ack{OK: true}, nil
	})
}

// DeleteDB destroys the backend unconditionally, without replication
// coordination. It is the forceful low-level form of [Store.Destroy].
func (s *Store) DeleteDB(ctx context.Context) *futures.Future[Ack] {
	return run(ctx, s, "delete_db", func(ctx context.Context) (Ack, error) {
		if err := s.conn.Destroy(ctx); err != nil {
			return Ack{}, err
		}
		return Ack{OK: true}, nil
	})
}

func (s *Store) drainSession(ctx context.Context) error {
	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()

	if sess == nil || !sess.Live() {
		return nil
	}

	// The completion waiter must exist before cancellation; a feed
	// finishing right after Cancel would otherwise be missed.
	done := sess.NotifyComplete()
	sess.Cancel()
	s.log.Info("waiting for replication to wind down before destroy")

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
