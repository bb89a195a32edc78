package realtime_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kumpul/internal/realtime"
)

type fakeConn struct {
	mu      sync.Mutex
	sent    [][]byte
	sendErr error
	closed  bool
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events(t *testing.T) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, raw := range c.sent {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(raw, &ev))
		out = append(out, ev)
	}
	return out
}

func newHub() *realtime.Hub {
	return realtime.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHub_ConnectDisconnect(t *testing.T) {
	hub := newHub()
	userID := uuid.New()
	conn := &fakeConn{}

	t.Run("Connect is idempotent", func(t *testing.T) {
		hub.Connect(userID, conn)
		hub.Connect(userID, conn)

		assert.True(t, hub.IsOnline(userID))
		channels, users := hub.Stats()
		assert.Equal(t, 1, channels)
		assert.Equal(t, 1, users)
	})

	t.Run("Disconnect is idempotent", func(t *testing.T) {
		hub.Disconnect(userID, conn)
		hub.Disconnect(userID, conn)
		hub.Disconnect(uuid.New(), conn)

		assert.False(t, hub.IsOnline(userID))
		assert.Empty(t, hub.OnlineUsers())
	})
}

func TestHub_StaysOnlineUntilLastChannelCloses(t *testing.T) {
	hub := newHub()
	userID := uuid.New()
	tab1, tab2 := &fakeConn{}, &fakeConn{}

	hub.Connect(userID, tab1)
	hub.Connect(userID, tab2)

	hub.Disconnect(userID, tab1)
	assert.True(t, hub.IsOnline(userID))

	hub.Disconnect(userID, tab2)
	assert.False(t, hub.IsOnline(userID))
}

func TestHub_Push(t *testing.T) {
	t.Run("Offline user is a silent no-op", func(t *testing.T) {
		hub := newHub()

		delivered, err := hub.Push(uuid.New(), realtime.Event{Type: realtime.EventNotification, Data: "x"})

		assert.NoError(t, err)
		assert.False(t, delivered)
	})

	t.Run("Fans out to every channel", func(t *testing.T) {
		hub := newHub()
		userID := uuid.New()
		tab1, tab2 := &fakeConn{}, &fakeConn{}
		hub.Connect(userID, tab1)
		hub.Connect(userID, tab2)

		delivered, err := hub.Push(userID, realtime.Event{Type: realtime.EventMessage, Data: map[string]string{"content": "hi"}})

		require.NoError(t, err)
		assert.True(t, delivered)
		for _, conn := range []*fakeConn{tab1, tab2} {
			events := conn.events(t)
			require.Len(t, events, 1)
			assert.Equal(t, "message", events[0]["event"])
			assert.Equal(t, "hi", events[0]["data"].(map[string]any)["content"])
		}
	})

	t.Run("One healthy channel is enough", func(t *testing.T) {
		hub := newHub()
		userID := uuid.New()
		hub.Connect(userID, &fakeConn{sendErr: realtime.ErrSendBufferFull})
		healthy := &fakeConn{}
		hub.Connect(userID, healthy)

		delivered, err := hub.Push(userID, realtime.Event{Type: realtime.EventNotification})

		assert.NoError(t, err)
		assert.True(t, delivered)
		assert.Len(t, healthy.events(t), 1)
	})

	t.Run("All channels failing is an error", func(t *testing.T) {
		hub := newHub()
		userID := uuid.New()
		hub.Connect(userID, &fakeConn{sendErr: realtime.ErrConnClosed})

		delivered, err := hub.Push(userID, realtime.Event{Type: realtime.EventNotification})

		assert.False(t, delivered)
		assert.True(t, errors.Is(err, realtime.ErrConnClosed))
	})
}

func TestHub_DisconnectUserAndClose(t *testing.T) {
	hub := newHub()
	alice, bob := uuid.New(), uuid.New()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	hub.Connect(alice, aliceConn)
	hub.Connect(bob, bobConn)

	hub.DisconnectUser(alice)
	assert.False(t, hub.IsOnline(alice))
	assert.True(t, aliceConn.closed)
	assert.True(t, hub.IsOnline(bob))

	hub.Close()
	assert.False(t, hub.IsOnline(bob))
	assert.True(t, bobConn.closed)

	// late disconnect from the closed channel's reader
	hub.Disconnect(bob, bobConn)
	channels, users := hub.Stats()
	assert.Zero(t, channels)
	assert.Zero(t, users)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := newHub()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &fakeConn{}
			hub.Connect(userID, conn)
			_, _ = hub.Push(userID, realtime.Event{Type: realtime.EventNotification})
			_ = hub.OnlineUsers()
			hub.Disconnect(userID, conn)
		}()
	}
	wg.Wait()

	assert.False(t, hub.IsOnline(userID))
}
