package domain

import (
	"time"

	"github.com/google/uuid"
)

type Follow struct {
	FollowerID uuid.UUID `json:"follower_id" db:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id" db:"followee_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Block struct {
	BlockerID uuid.UUID `json:"blocker_id" db:"blocker_id"`
	BlockedID uuid.UUID `json:"blocked_id" db:"blocked_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type FollowCounts struct {
	Followers int64 `json:"followers" db:"followers"`
	Following int64 `json:"following" db:"following"`
}
