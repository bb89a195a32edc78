package domain

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	ID        uuid.UUID  `json:"id" db:"chat_id"`
	Name      *string    `json:"name,omitempty" db:"name"`
	IsGroup   bool       `json:"is_group" db:"is_group"`
	DirectKey *string    `json:"-" db:"direct_key"`
	CreatedBy uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`

	Members     []ChatMember `json:"members,omitempty" db:"-"`
	LastMessage *Message     `json:"last_message,omitempty" db:"-"`
}

type ChatMember struct {
	ChatID   uuid.UUID `json:"chat_id" db:"chat_id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`

	User *UserSummary `json:"user,omitempty" db:"-"`
}

type Message struct {
	ID        uuid.UUID  `json:"id" db:"message_id"`
	ChatID    uuid.UUID  `json:"chat_id" db:"chat_id"`
	SenderID  uuid.UUID  `json:"sender_id" db:"sender_id"`
	Content   string     `json:"content" db:"content"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

type CreateChatInput struct {
	ParticipantIDs []uuid.UUID `json:"participant_ids" validate:"required,min=1,max=100"`
	Name           *string     `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	IsGroup        bool        `json:"is_group"`
	FirstMessage   *string     `json:"first_message,omitempty" validate:"omitempty,min=1,max=4000"`
}

type SendMessageInput struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// MemberIDs lists the user ids of the loaded members.
func (c *Chat) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

func (c *Chat) HasMember(userID uuid.UUID) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// DirectChatKey identifies the one direct chat allowed between two users,
// independent of who started it.
func DirectChatKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}
