// Package replication provides the session handle the store coordinates
// with during destroy. Settee does not implement the replication
// protocol itself; a session is the contract between whatever drives a
// replication (the changes feed in the subpackage, or external code)
// and the store's lifecycle operations.
//
// The ordering that matters: callers who need the completion signal
// must obtain the channel from [Session.NotifyComplete] BEFORE calling
// [Session.Cancel]. Registering first makes the handoff race-free; the
// signal cannot fire between the two calls and get lost.
package replication

import (
	"sync"
	"time"
)

// Info summarizes a finished replication session.
type Info struct {
	// DocsRead counts change events consumed from the feed.
	DocsRead int64
	// DocsWritten counts documents applied locally.
	DocsWritten int64

	StartedAt time.Time
	EndedAt   time.Time

	// Err is the feed failure that ended the session, nil for a clean
	// end or a cancellation.
	Err error
}

// Session is a live replication handle. The driver side calls
// [Session.Complete] exactly once when the replication winds down; the
// store side observes [Session.Live], cancels, and waits on the
// completion channels.
type Session struct {
	mu        sync.Mutex
	cancelled chan struct{}
	completed chan struct{}
	info      Info
	waiters   []chan Info
}

// NewSession returns a live session.
func NewSession() *Session {
	return &Session{
		cancelled: make(chan struct{}),
		completed: make(chan struct{}),
	}
}

// Live reports whether the session is still actively replicating. A
// cancelled session is no longer live even before the driver completes
// it.
func (s *Session) Live() bool {
	select {
	case <-s.cancelled:
		return false
	case <-s.completed:
		return false
	default:
		return true
	}
}

// Cancel asks the driver to stop. It is idempotent and returns without
// waiting; pair it with a channel from [Session.NotifyComplete]
// obtained beforehand to observe the actual end.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.cancelled:
	default:
		close(s.cancelled)
	}
}

// Cancelled returns the channel the driver watches for cancellation.
func (s *Session) Cancelled() <-chan struct{} {
	return s.cancelled
}

// NotifyComplete returns a channel that receives the session's [Info]
// once and is then closed. Calling it after completion yields a channel
// that delivers immediately.
func (s *Session) NotifyComplete() <-chan Info {
	ch := make(chan Info, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.completed:
		ch <- s.info
		close(ch)
	default:
		s.waiters = append(s.waiters, ch)
	}
	return ch
}

// Complete marks the session finished and fans info out to every
// registered waiter. Only the first call has any effect.
func (s *Session) Complete(info Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.completed:
		return
	default:
	}
	s.info = info
	close(s.completed)
	for _, ch := range s.waiters {
		ch <- info
		close(ch)
	}
	s.waiters = nil
}
