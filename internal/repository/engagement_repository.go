package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type LikeRepository interface {
	// Create reports false when the user already liked the post.
	Create(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	CountByPost(ctx context.Context, postID uuid.UUID) (int64, error)
}

type ViewRepository interface {
	// Create records at most one view per user and post.
	Create(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	CountByPost(ctx context.Context, postID uuid.UUID) (int64, error)
}

type BookmarkRepository interface {
	Create(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error)
}

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return insertPair(ctx, r.db, `INSERT INTO likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
}

func (r *likeRepository) Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return insertPair(ctx, r.db, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
}

func (r *likeRepository) Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`, postID, userID)
	return exists, err
}

func (r *likeRepository) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID)
	return count, err
}

type viewRepository struct {
	db *sqlx.DB
}

func NewViewRepository(db *sqlx.DB) ViewRepository {
	return &viewRepository{db: db}
}

func (r *viewRepository) Create(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return insertPair(ctx, r.db, `INSERT INTO post_views (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
}

func (r *viewRepository) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM post_views WHERE post_id = $1`, postID)
	return count, err
}

type bookmarkRepository struct {
	db *sqlx.DB
}

func NewBookmarkRepository(db *sqlx.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) Create(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return insertPair(ctx, r.db, `INSERT INTO bookmarks (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
}

func (r *bookmarkRepository) Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return insertPair(ctx, r.db, `DELETE FROM bookmarks WHERE post_id = $1 AND user_id = $2`, postID, userID)
}

// insertPair runs a single-row statement keyed by (post, user) and reports
// whether a row changed.
func insertPair(ctx context.Context, db *sqlx.DB, query string, postID, userID uuid.UUID) (bool, error) {
	res, err := db.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
