package domain

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID           uuid.UUID  `json:"id" db:"post_id"`
	AuthorID     uuid.UUID  `json:"author_id" db:"author_id"`
	Content      string     `json:"content" db:"content"`
	LikeCount    int64      `json:"like_count" db:"like_count"`
	CommentCount int64      `json:"comment_count" db:"comment_count"`
	ViewCount    int64      `json:"view_count" db:"view_count"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`

	Author *UserSummary `json:"author,omitempty" db:"-"`
	Media  []Media      `json:"media,omitempty" db:"-"`
}

type CreatePostInput struct {
	Content  string      `json:"content" validate:"required,min=1,max=5000"`
	MediaIDs []uuid.UUID `json:"media_ids" validate:"omitempty,max=10"`
}

type UpdatePostInput struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

type Like struct {
	PostID    uuid.UUID `json:"post_id" db:"post_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type PostView struct {
	PostID    uuid.UUID `json:"post_id" db:"post_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Bookmark struct {
	PostID    uuid.UUID `json:"post_id" db:"post_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
