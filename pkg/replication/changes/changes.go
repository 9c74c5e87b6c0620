// Package changes drives a replication session from a continuous
// changes feed delivered over a WebSocket. It is boundary plumbing, not
// a replicator: every event is handed to the caller's handler, and the
// session is completed exactly once when the feed ends, fails, or is
// cancelled.
package changes

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/setteedb/settee/pkg/logger"
	"github.com/setteedb/settee/pkg/replication"
)

// closeGrace bounds how long a cancelled feed waits for the server's
// close handshake before the read loop is forced out.
const closeGrace = 5 * time.Second

// Change is one event from a continuous changes feed.
type Change struct {
	Seq     string         `json:"seq"`
	ID      string         `json:"id"`
	Deleted bool           `json:"deleted,omitempty"`
	Changes []ChangeRev    `json:"changes"`
	Doc     map[string]any `json:"doc,omitempty"`
}

// ChangeRev names one revision leaf carried by a change event.
type ChangeRev struct {
	Rev string `json:"rev"`
}

// Config configures a feed subscription.
type Config struct {
	// URL is the WebSocket endpoint of the changes feed.
	URL string

	// Dialer overrides the default WebSocket dialer.
	Dialer *websocket.Dialer

	// Handler receives each change in feed order, from the feed's own
	// goroutine. A nil handler counts events without applying them.
	Handler func(Change)

	Logger logger.Logger
}

// Feed is a running subscription bound to a session.
type Feed struct {
	conn    *websocket.Conn
	sess    *replication.Session
	handler func(Change)
	log     logger.Logger
	done    chan struct{}
	closing atomic.Bool
}

// Subscribe dials the feed and starts consuming it, driving sess. The
// session completes when the feed ends for any reason; cancelling the
// session or ctx shuts the feed down cleanly.
func Subscribe(ctx context.Context, conf Config, sess *replication.Session) (*Feed, error) {
	if conf.URL == "" {
		return nil, fmt.Errorf("changes feed url not set")
	}
	dialer := conf.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	log := conf.Logger
	if log == nil {
		log = logger.Nop{}
	}

	conn, resp, err := dialer.DialContext(ctx, conf.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial changes feed: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial changes feed: %w", err)
	}

	f := &Feed{
		conn:    conn,
		sess:    sess,
		handler: conf.Handler,
		log:     log,
		done:    make(chan struct{}),
	}
	go f.shutdownWatcher(ctx)
	go f.run()
	log.Info("changes feed subscribed", "url", conf.URL)
	return f, nil
}

// Done is closed once the feed has fully stopped and the session is
// completed.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// shutdownWatcher turns a session cancel or ctx cancel into a close
// handshake, bounded by closeGrace.
func (f *Feed) shutdownWatcher(ctx context.Context) {
	select {
	case <-f.done:
		return
	case <-ctx.Done():
	case <-f.sess.Cancelled():
	}
	f.closing.Store(true)
	_ = f.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = f.conn.SetReadDeadline(time.Now().Add(closeGrace))
}

func (f *Feed) run() {
	info := replication.Info{StartedAt: time.Now()}
	defer func() {
		_ = f.conn.Close()
		info.EndedAt = time.Now()
		f.sess.Complete(info)
		close(f.done)
		f.log.Info("changes feed stopped",
			"read", info.DocsRead, "written", info.DocsWritten, "err", info.Err)
	}()

	for {
		var change Change
		if err := f.conn.ReadJSON(&change); err != nil {
			if f.teardownInduced() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			info.Err = err
			return
		}
		info.DocsRead++
		if f.handler != nil {
			f.handler(change)
			info.DocsWritten++
		}
	}
}

// teardownInduced reports whether the read loop's error was caused by
// our own shutdown rather than the feed failing.
func (f *Feed) teardownInduced() bool {
	return f.closing.Load()
}
