package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kumpul/internal/domain"
)

var ErrMediaNotAttachable = errors.New("media not found or not owned by author")

type PostRepository interface {
	// Create inserts the post and attaches the author's unattached media.
	Create(ctx context.Context, post *domain.Post, mediaIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	// GetVisible hides posts when viewer and author block each other.
	GetVisible(ctx context.Context, id, viewerID uuid.UUID) (*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByAuthor(ctx context.Context, authorID, viewerID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error)
	Feed(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error)
	ListBookmarked(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error)
	CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

type postRow struct {
	domain.Post
	AuthorUsername  string  `db:"author_username"`
	AuthorFullName  string  `db:"author_full_name"`
	AuthorAvatarURL *string `db:"author_avatar_url"`
}

func (r postRow) toPost() domain.Post {
	p := r.Post
	p.Author = &domain.UserSummary{
		ID:        p.AuthorID,
		Username:  r.AuthorUsername,
		FullName:  r.AuthorFullName,
		AvatarURL: r.AuthorAvatarURL,
	}
	return p
}

const postSelect = `
	SELECT p.post_id, p.author_id, p.content, p.created_at, p.updated_at, p.deleted_at,
		(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.post_id) AS like_count,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.post_id AND c.deleted_at IS NULL) AS comment_count,
		(SELECT COUNT(*) FROM post_views v WHERE v.post_id = p.post_id) AS view_count,
		u.username AS author_username, u.full_name AS author_full_name, u.avatar_url AS author_avatar_url
	FROM posts p
	INNER JOIN users u ON u.user_id = p.author_id`

// notBlocked filters posts whose author and the viewer ($viewer) block each
// other. The placeholder index is substituted by the caller.
const notBlocked = `
	NOT EXISTS (
		SELECT 1 FROM blocks b
		WHERE (b.blocker_id = p.author_id AND b.blocked_id = %[1]s)
		   OR (b.blocker_id = %[1]s AND b.blocked_id = p.author_id)
	)`

func (r *postRepository) Create(ctx context.Context, post *domain.Post, mediaIDs []uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO posts (post_id, author_id, content)
			VALUES ($1, $2, $3)
			RETURNING created_at, updated_at`,
			post.ID, post.AuthorID, post.Content,
		).Scan(&post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return err
		}

		if len(mediaIDs) == 0 {
			return nil
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE media SET post_id = $1
			WHERE media_id = ANY($2::uuid[]) AND uploaded_by = $3 AND post_id IS NULL AND deleted_at IS NULL`,
			post.ID, uuidArray(mediaIDs), post.AuthorID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if int(n) != len(mediaIDs) {
			return ErrMediaNotAttachable
		}
		return nil
	})
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var row postRow
	query := postSelect + ` WHERE p.post_id = $1 AND p.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFoundAsNil(err)
	}
	post := row.toPost()
	return &post, nil
}

func (r *postRepository) GetVisible(ctx context.Context, id, viewerID uuid.UUID) (*domain.Post, error) {
	var row postRow
	query := postSelect + ` WHERE p.post_id = $1 AND p.deleted_at IS NULL AND` + sprintfPlaceholder(notBlocked, "$2")
	if err := r.db.GetContext(ctx, &row, query, id, viewerID); err != nil {
		return nil, notFoundAsNil(err)
	}
	post := row.toPost()
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	query := `
		UPDATE posts
		SET content = $2, updated_at = NOW()
		WHERE post_id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query, post.ID, post.Content).Scan(&post.UpdatedAt)
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE posts SET deleted_at = NOW() WHERE post_id = $1 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID, viewerID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error) {
	where := ` WHERE p.author_id = $1 AND p.deleted_at IS NULL AND` + sprintfPlaceholder(notBlocked, "$2")
	return r.list(ctx, where, params, authorID, viewerID)
}

func (r *postRepository) Feed(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error) {
	where := `
		WHERE p.deleted_at IS NULL AND u.deleted_at IS NULL
		AND (p.author_id = $1 OR p.author_id IN (SELECT followee_id FROM follows WHERE follower_id = $1))`
	return r.list(ctx, where, params, userID)
}

func (r *postRepository) ListBookmarked(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Post, int64, error) {
	where := `
		WHERE p.deleted_at IS NULL
		AND p.post_id IN (SELECT post_id FROM bookmarks WHERE user_id = $1)
		AND` + sprintfPlaceholder(notBlocked, "$1")
	return r.list(ctx, where, params, userID)
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts WHERE author_id = $1 AND deleted_at IS NULL`, authorID)
	return count, err
}

func (r *postRepository) list(ctx context.Context, where string, params domain.PaginationParams, args ...interface{}) ([]domain.Post, int64, error) {
	params.Validate()

	var total int64
	countQuery := `SELECT COUNT(*) FROM posts p INNER JOIN users u ON u.user_id = p.author_id` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := postSelect + where + ` ORDER BY p.created_at DESC LIMIT $` + itoa(n+1) + ` OFFSET $` + itoa(n+2)
	args = append(args, params.PageSize, params.Offset())

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toPost())
	}
	return posts, total, nil
}
