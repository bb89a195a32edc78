package realtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"kumpul/internal/metrics"
)

// Hub tracks the open channels of each connected user. A user is online
// while at least one channel is registered.
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[Conn]struct{}
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		users: make(map[uuid.UUID]map[Conn]struct{}),
		log:   log,
	}
}

var _ Pusher = (*Hub)(nil)

// Connect registers conn for userID. Registering the same conn twice is a
// no-op.
func (h *Hub) Connect(userID uuid.UUID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.users[userID]
	if !ok {
		conns = make(map[Conn]struct{})
		h.users[userID] = conns
	}
	if _, exists := conns[conn]; exists {
		return
	}
	conns[conn] = struct{}{}
	metrics.ActiveConnections.Inc()

	h.log.Debug("channel connected", "user_id", userID, "channels", len(conns))
}

// Disconnect removes conn. Unknown users and conns are ignored.
func (h *Hub) Disconnect(userID uuid.UUID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.users[userID]
	if !ok {
		return
	}
	if _, exists := conns[conn]; !exists {
		return
	}
	delete(conns, conn)
	metrics.ActiveConnections.Dec()
	if len(conns) == 0 {
		delete(h.users, userID)
	}

	h.log.Debug("channel disconnected", "user_id", userID, "channels", len(conns))
}

// DisconnectUser closes and forgets every channel of userID.
func (h *Hub) DisconnectUser(userID uuid.UUID) {
	h.mu.Lock()
	conns := h.users[userID]
	delete(h.users, userID)
	h.mu.Unlock()

	for conn := range conns {
		metrics.ActiveConnections.Dec()
		_ = conn.Close()
	}
}

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// OnlineUsers returns a snapshot of connected user ids.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) Push(userID uuid.UUID, event Event) (bool, error) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.users[userID]))
	for conn := range h.users[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return false, nil
	}

	payload, err := event.encode()
	if err != nil {
		return false, fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	var errs []error
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(conns) {
		return false, errors.Join(errs...)
	}
	if len(errs) > 0 {
		h.log.Warn("push partially failed", "user_id", userID, "event", event.Type, "failed", len(errs), "channels", len(conns))
	}
	return true, nil
}

// Close drops every channel. The hub stays usable afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	users := h.users
	h.users = make(map[uuid.UUID]map[Conn]struct{})
	h.mu.Unlock()

	for _, conns := range users {
		for conn := range conns {
			metrics.ActiveConnections.Dec()
			_ = conn.Close()
		}
	}
}

// Stats returns the number of open channels and online users.
func (h *Hub) Stats() (channels, users int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.users {
		channels += len(conns)
	}
	return channels, len(h.users)
}
