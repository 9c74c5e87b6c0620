package replication

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	sess := NewSession()
	require.True(t, sess.Live())

	sess.Cancel()
	assert.False(t, sess.Live(), "cancelled session is no longer live")

	// Cancel is idempotent.
	sess.Cancel()

	sess.Complete(Info{DocsRead: 3})
	assert.False(t, sess.Live())
}

func TestNotifyBeforeCancel(t *testing.T) {
	sess := NewSession()

	// The driver: waits for cancellation, then completes.
	go func() {
		<-sess.Cancelled()
		sess.Complete(Info{DocsRead: 7})
	}()

	// Register first, cancel second. The signal cannot be lost.
	done := sess.NotifyComplete()
	sess.Cancel()

	select {
	case info := <-done:
		assert.Equal(t, int64(7), info.DocsRead)
	case <-time.After(time.Second):
		t.Fatal("completion never arrived")
	}
}

func TestNotifyAfterCompletionDeliversImmediately(t *testing.T) {
	sess := NewSession()
	boom := errors.New("feed dropped")
	sess.Complete(Info{DocsRead: 1, Err: boom})

	select {
	case info := <-sess.NotifyComplete():
		assert.Equal(t, int64(1), info.DocsRead)
		assert.ErrorIs(t, info.Err, boom)
	default:
		t.Fatal("late waiter must be served from the buffer")
	}
}

func TestCompleteIsExactlyOnce(t *testing.T) {
	sess := NewSession()
	first := sess.NotifyComplete()

	sess.Complete(Info{DocsRead: 1})
	sess.Complete(Info{DocsRead: 99})

	info := <-first
	assert.Equal(t, int64(1), info.DocsRead, "second Complete is ignored")

	info = <-sess.NotifyComplete()
	assert.Equal(t, int64(1), info.DocsRead)
}

func TestEveryWaiterIsServed(t *testing.T) {
	sess := NewSession()
	a := sess.NotifyComplete()
	b := sess.NotifyComplete()

	sess.Complete(Info{DocsRead: 2})

	for _, ch := range []<-chan Info{a, b} {
		select {
		case info := <-ch:
			assert.Equal(t, int64(2), info.DocsRead)
		case <-time.After(time.Second):
			t.Fatal("waiter starved")
		}
	}
}
