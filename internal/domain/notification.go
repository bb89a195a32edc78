package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifLike    NotificationType = "like"
	NotifComment NotificationType = "comment"
	NotifFollow  NotificationType = "follow"
	NotifMessage NotificationType = "message"
	NotifMention NotificationType = "mention"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotifLike, NotifComment, NotifFollow, NotifMessage, NotifMention:
		return true
	default:
		return false
	}
}

func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(s)
	if !t.IsValid() {
		return "", NewValidationError("type", fmt.Sprintf("unrecognized notification type %q", s))
	}
	return t, nil
}

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

func (p NotificationPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ParseNotificationPriority treats an empty value as medium.
func ParseNotificationPriority(s string) (NotificationPriority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	p := NotificationPriority(s)
	if !p.IsValid() {
		return "", NewValidationError("priority", fmt.Sprintf("unrecognized notification priority %q", s))
	}
	return p, nil
}

// NotificationStatus only moves forward: active -> read -> deleted, or
// active -> deleted.
type NotificationStatus string

const (
	StatusActive  NotificationStatus = "active"
	StatusRead    NotificationStatus = "read"
	StatusDeleted NotificationStatus = "deleted"
)

var ErrNotificationDeleted = errors.New("notification has been deleted")

type Notification struct {
	ID         uuid.UUID            `json:"id" db:"notification_id"`
	SenderID   *uuid.UUID           `json:"sender_id,omitempty" db:"sender_id"`
	Type       NotificationType     `json:"type" db:"type"`
	Priority   NotificationPriority `json:"priority" db:"priority"`
	Title      string               `json:"title" db:"title"`
	Message    string               `json:"message" db:"message"`
	EntityID   *uuid.UUID           `json:"entity_id,omitempty" db:"entity_id"`
	EntityType *string              `json:"entity_type,omitempty" db:"entity_type"`
	Link       *string              `json:"link,omitempty" db:"link"`
	Status     NotificationStatus   `json:"status" db:"status"`
	ReadAt     *time.Time           `json:"read_at,omitempty" db:"read_at"`
	DeletedAt  *time.Time           `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt  time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" db:"updated_at"`

	ReceiverIDs []uuid.UUID `json:"receiver_ids,omitempty" db:"-"`
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

func (n *Notification) IsDeleted() bool {
	return n.Status == StatusDeleted
}

func (n *Notification) HasReceiver(userID uuid.UUID) bool {
	for _, id := range n.ReceiverIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// MarkRead reports whether the notification changed.
func (n *Notification) MarkRead(now time.Time) (bool, error) {
	switch n.Status {
	case StatusActive:
		n.Status = StatusRead
		n.ReadAt = &now
		return true, nil
	case StatusRead:
		return false, nil
	default:
		return false, ErrNotificationDeleted
	}
}

// MarkDeleted reports whether the notification changed.
func (n *Notification) MarkDeleted(now time.Time) bool {
	if n.Status == StatusDeleted {
		return false
	}
	n.Status = StatusDeleted
	n.DeletedAt = &now
	return true
}

func (n Notification) MarshalJSON() ([]byte, error) {
	type alias Notification
	return json.Marshal(struct {
		alias
		IsRead    bool `json:"is_read"`
		IsDeleted bool `json:"is_deleted"`
	}{
		alias:     alias(n),
		IsRead:    n.IsRead(),
		IsDeleted: n.IsDeleted(),
	})
}

type CreateNotificationInput struct {
	SenderID    *uuid.UUID
	ReceiverIDs []uuid.UUID
	Title       string
	Message     string
	Type        NotificationType
	Priority    NotificationPriority
	EntityID    *uuid.UUID
	EntityType  *string
	Link        *string
}

// Normalize validates the input and returns a copy with the default
// priority applied and receivers deduplicated in first-seen order.
func (in CreateNotificationInput) Normalize() (CreateNotificationInput, error) {
	if !in.Type.IsValid() {
		return in, NewValidationError("type", fmt.Sprintf("unrecognized notification type %q", in.Type))
	}

	priority, err := ParseNotificationPriority(string(in.Priority))
	if err != nil {
		return in, err
	}
	in.Priority = priority

	seen := make(map[uuid.UUID]struct{}, len(in.ReceiverIDs))
	receivers := make([]uuid.UUID, 0, len(in.ReceiverIDs))
	for _, id := range in.ReceiverIDs {
		if id == uuid.Nil {
			return in, NewValidationError("receiver_ids", "receiver id must not be empty")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		receivers = append(receivers, id)
	}
	if len(receivers) == 0 {
		return in, NewValidationError("receiver_ids", "at least one receiver is required")
	}
	in.ReceiverIDs = receivers

	return in, nil
}

// NotificationGroup is one (receiver, type) bucket of pending low priority
// notifications.
type NotificationGroup struct {
	ReceiverID uuid.UUID        `db:"receiver_id"`
	Type       NotificationType `db:"type"`
	Count      int              `db:"count"`
}

// PendingFilter bounds a batching pass: rows created in [Since, Until] that
// have not yet been surfaced to one of ReceiverIDs.
type PendingFilter struct {
	Since       time.Time
	Until       time.Time
	ReceiverIDs []uuid.UUID
}

// NotificationSummary replaces a burst of same-type notifications in a push.
type NotificationSummary struct {
	Type    NotificationType `json:"type"`
	Count   int              `json:"count"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}
