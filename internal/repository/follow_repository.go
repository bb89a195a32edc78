package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kumpul/internal/domain"
)

type FollowRepository interface {
	// Create reports false when the edge already existed.
	Create(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error)
	Counts(ctx context.Context, userID uuid.UUID) (*domain.FollowCounts, error)
}

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	res, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	err := r.db.GetContext(ctx, &exists, query, followerID, followeeID)
	return exists, err
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	return r.listEdge(ctx, "followee_id", "follower_id", userID, params)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	return r.listEdge(ctx, "follower_id", "followee_id", userID, params)
}

// listEdge lists the users on the other end of follow edges where matchCol
// equals userID. Column names are internal constants, never user input.
func (r *followRepository) listEdge(ctx context.Context, matchCol, otherCol string, userID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	params.Validate()

	var total int64
	countQuery := `
		SELECT COUNT(*) FROM follows f
		INNER JOIN users u ON u.user_id = f.` + otherCol + `
		WHERE f.` + matchCol + ` = $1 AND u.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, err
	}

	var users []domain.UserSummary
	query := `
		SELECT u.user_id, u.username, u.full_name, u.avatar_url
		FROM follows f
		INNER JOIN users u ON u.user_id = f.` + otherCol + `
		WHERE f.` + matchCol + ` = $1 AND u.deleted_at IS NULL
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`
	err := r.db.SelectContext(ctx, &users, query, userID, params.PageSize, params.Offset())
	return users, total, err
}

func (r *followRepository) Counts(ctx context.Context, userID uuid.UUID) (*domain.FollowCounts, error) {
	var counts domain.FollowCounts
	query := `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1) AS followers,
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1) AS following`
	err := r.db.GetContext(ctx, &counts, query, userID)
	return &counts, err
}
