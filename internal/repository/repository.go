package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Follow       FollowRepository
	Block        BlockRepository
	Post         PostRepository
	Like         LikeRepository
	View         ViewRepository
	Bookmark     BookmarkRepository
	Comment      CommentRepository
	Media        MediaRepository
	Chat         ChatRepository
	Message      MessageRepository
	Notification NotificationRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Follow:       NewFollowRepository(db),
		Block:        NewBlockRepository(db),
		Post:         NewPostRepository(db),
		Like:         NewLikeRepository(db),
		View:         NewViewRepository(db),
		Bookmark:     NewBookmarkRepository(db),
		Comment:      NewCommentRepository(db),
		Media:        NewMediaRepository(db),
		Chat:         NewChatRepository(db),
		Message:      NewMessageRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func notFoundAsNil(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func uuidArray(ids []uuid.UUID) interface{} {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return pq.Array(strs)
}
