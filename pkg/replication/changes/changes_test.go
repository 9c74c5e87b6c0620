package changes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setteedb/settee/pkg/replication"
)

var upgrader = websocket.Upgrader{}

// feedServer serves a ws endpoint that emits the given changes, then
// behaves per mode: "close" performs a clean close handshake, "hang"
// waits for the client to close, "drop" kills the TCP connection.
func feedServer(t *testing.T, events []Change, mode string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, ev := range events {
			data, err := json.Marshal(ev)
			require.NoError(t, err)
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
		}

		switch mode {
		case "close":
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			// Drain until the client echoes the close.
			_ = conn.SetReadDeadline(time.Now().Add(time.Second))
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		case "hang":
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		case "drop":
			// Returning without a close frame severs the connection.
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestFeedDeliversChangesAndCompletes(t *testing.T) {
	events := []Change{
		{Seq: "1", ID: "a", Changes: []ChangeRev{{Rev: "1-x"}}},
		{Seq: "2", ID: "b", Changes: []ChangeRev{{Rev: "1-y"}}, Deleted: true},
	}
	server := feedServer(t, events, "close")
	defer server.Close()

	var got atomic.Int64
	sess := replication.NewSession()
	done := sess.NotifyComplete()

	_, err := Subscribe(context.Background(), Config{
		URL:     wsURL(server),
		Handler: func(c Change) { got.Add(1) },
	}, sess)
	require.NoError(t, err)

	select {
	case info := <-done:
		assert.NoError(t, info.Err)
		assert.Equal(t, int64(2), info.DocsRead)
		assert.Equal(t, int64(2), info.DocsWritten)
		assert.Equal(t, int64(2), got.Load())
		assert.False(t, info.EndedAt.Before(info.StartedAt))
	case <-time.After(5 * time.Second):
		t.Fatal("session never completed")
	}
	assert.False(t, sess.Live())
}

func TestCancelStopsTheFeed(t *testing.T) {
	server := feedServer(t, []Change{{Seq: "1", ID: "a"}}, "hang")
	defer server.Close()

	sess := replication.NewSession()
	feed, err := Subscribe(context.Background(), Config{URL: wsURL(server)}, sess)
	require.NoError(t, err)

	// Register the waiter before cancelling, then cancel.
	done := sess.NotifyComplete()
	sess.Cancel()

	select {
	case info := <-done:
		assert.NoError(t, info.Err, "cancellation is not a failure")
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled feed never completed")
	}

	select {
	case <-feed.Done():
	case <-time.After(time.Second):
		t.Fatal("feed did not report done")
	}
}

func TestDroppedFeedReportsError(t *testing.T) {
	server := feedServer(t, []Change{{Seq: "1", ID: "a"}}, "drop")
	defer server.Close()

	sess := replication.NewSession()
	done := sess.NotifyComplete()
	_, err := Subscribe(context.Background(), Config{URL: wsURL(server)}, sess)
	require.NoError(t, err)

	select {
	case info := <-done:
		assert.Error(t, info.Err)
		assert.Equal(t, int64(1), info.DocsRead)
	case <-time.After(5 * time.Second):
		t.Fatal("session never completed")
	}
}

func TestSubscribeValidatesURL(t *testing.T) {
	_, err := Subscribe(context.Background(), Config{}, replication.NewSession())
	assert.Error(t, err)
}
