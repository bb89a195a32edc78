package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kumpul/internal/domain"
)

type BlockRepository interface {
	// Create stores the block and drops follow edges in both directions.
	Create(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	// IsBlockedEither reports a block in either direction.
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
	// BlockedAmong returns the subset of ids with a block in either direction
	// against userID.
	BlockedAmong(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	ListBlocked(ctx context.Context, blockerID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error)
}

type blockRepository struct {
	db *sqlx.DB
}

func NewBlockRepository(db *sqlx.DB) BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) Create(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	var created bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO blocks (blocker_id, blocked_id)
			VALUES ($1, $2)
			ON CONFLICT (blocker_id, blocked_id) DO NOTHING`, blockerID, blockedID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0

		_, err = tx.ExecContext(ctx, `
			DELETE FROM follows
			WHERE (follower_id = $1 AND followee_id = $2) OR (follower_id = $2 AND followee_id = $1)`,
			blockerID, blockedID)
		return err
	})
	return created, err
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`, blockerID, blockedID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *blockRepository) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var blocked bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1)
		)`
	err := r.db.GetContext(ctx, &blocked, query, a, b)
	return blocked, err
}

func (r *blockRepository) BlockedAmong(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}

	var blocked []uuid.UUID
	query := `
		SELECT blocked_id FROM blocks WHERE blocker_id = $1 AND blocked_id = ANY($2::uuid[])
		UNION
		SELECT blocker_id FROM blocks WHERE blocked_id = $1 AND blocker_id = ANY($2::uuid[])`
	err := r.db.SelectContext(ctx, &blocked, query, userID, uuidArray(ids))
	return blocked, err
}

func (r *blockRepository) ListBlocked(ctx context.Context, blockerID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	params.Validate()

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM blocks WHERE blocker_id = $1`, blockerID); err != nil {
		return nil, 0, err
	}

	var users []domain.UserSummary
	query := `
		SELECT u.user_id, u.username, u.full_name, u.avatar_url
		FROM blocks b
		INNER JOIN users u ON u.user_id = b.blocked_id
		WHERE b.blocker_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`
	err := r.db.SelectContext(ctx, &users, query, blockerID, params.PageSize, params.Offset())
	return users, total, err
}
