package realtime

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

const (
	EventNotification        = "notification"
	EventNotificationSummary = "notification_summary"
	EventMessage             = "message"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Event is the envelope written to a client channel.
type Event struct {
	Type string `json:"event"`
	Data any    `json:"data"`
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

// Conn is one open push channel. Send must not block.
type Conn interface {
	Send(payload []byte) error
	Close() error
}

// Pusher is the part of the hub the services depend on.
type Pusher interface {
	IsOnline(userID uuid.UUID) bool
	OnlineUsers() []uuid.UUID
	// Push reports whether at least one of the user's channels accepted the
	// event. An offline user is not an error.
	Push(userID uuid.UUID, event Event) (bool, error)
}
