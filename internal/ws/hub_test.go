package ws_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelio-backend/internal/ws"
)

type fakeConn struct {
	mu      sync.Mutex
	written []ws.Event
	failing bool
	closed  bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return assert.AnError
	}
	c.written = append(c.written, v.(ws.Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events() []ws.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ws.Event(nil), c.written...)
}

// overlapConn counts WriteJSON calls that enter while another is still in
// flight. It takes no lock of its own so overlapping callers are observed
// rather than serialized.
type overlapConn struct {
	active   int32
	overlaps int32
	writes   int32
}

func (c *overlapConn) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&c.active, 1) != 1 {
		atomic.AddInt32(&c.overlaps, 1)
	}
	time.Sleep(time.Millisecond) // widen the overlap window
	atomic.AddInt32(&c.active, -1)
	atomic.AddInt32(&c.writes, 1)
	return nil
}

func (c *overlapConn) Close() error { return nil }

func TestHubRegister(t *testing.T) {
	t.Run("TracksConnectionsPerUser", func(t *testing.T) {
		hub := ws.NewHub()
		hub.Register(1, "c1", &fakeConn{})
		hub.Register(1, "c2", &fakeConn{})
		hub.Register(2, "c3", &fakeConn{})

		assert.Equal(t, 2, hub.ConnectionCount(1))
		assert.Equal(t, 1, hub.ConnectionCount(2))
	})

	t.Run("IdempotentOnConnectionID", func(t *testing.T) {
		hub := ws.NewHub()
		conn := &fakeConn{}
		hub.Register(1, "c1", conn)
		hub.Register(1, "c1", conn)

		assert.Equal(t, 1, hub.ConnectionCount(1))
	})
}

func TestHubUnregister(t *testing.T) {
	hub := ws.NewHub()
	hub.Register(1, "c1", &fakeConn{})
	hub.Register(1, "c2", &fakeConn{})

	hub.Unregister("c1")
	assert.Equal(t, 1, hub.ConnectionCount(1))

	hub.Unregister("c2")
	assert.Equal(t, 0, hub.ConnectionCount(1))

	// unknown ids are a no-op
	hub.Unregister("c1")
	hub.Unregister("never-registered")
}

func TestHubBroadcast(t *testing.T) {
	t.Run("FansOutToAllUserConnections", func(t *testing.T) {
		hub := ws.NewHub()
		phone := &fakeConn{}
		laptop := &fakeConn{}
		other := &fakeConn{}
		hub.Register(1, "phone", phone)
		hub.Register(1, "laptop", laptop)
		hub.Register(2, "other", other)

		hub.Broadcast(1, "newMessage", map[string]string{"content": "hi"})

		for _, c := range []*fakeConn{phone, laptop} {
			events := c.events()
			require.Len(t, events, 1)
			assert.Equal(t, "newMessage", events[0].Type)
		}
		assert.Empty(t, other.events())
	})

	t.Run("SilentDropWhenOffline", func(t *testing.T) {
		hub := ws.NewHub()
		hub.Broadcast(42, "newNotification", nil)
		assert.Equal(t, 0, hub.ConnectionCount(42))
	})

	t.Run("ClosesFailingConnection", func(t *testing.T) {
		hub := ws.NewHub()
		healthy := &fakeConn{}
		broken := &fakeConn{failing: true}
		hub.Register(1, "healthy", healthy)
		hub.Register(1, "broken", broken)

		hub.Broadcast(1, "updateUnreadCount", map[string]int{"count": 1})

		assert.True(t, broken.closed)
		assert.Len(t, healthy.events(), 1)
	})

	t.Run("ConcurrentBroadcastsNeverOverlapWrites", func(t *testing.T) {
		hub := ws.NewHub()
		conn := &overlapConn{}
		hub.Register(1, "c1", conn)

		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				hub.Broadcast(1, "newMessage", nil)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(0), atomic.LoadInt32(&conn.overlaps))
		assert.Equal(t, int32(32), atomic.LoadInt32(&conn.writes))
	})
}
