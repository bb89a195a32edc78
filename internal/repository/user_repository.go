package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kumpul/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByUsernames(ctx context.Context, usernames []string) ([]domain.User, error)
	Search(ctx context.Context, query string, params domain.PaginationParams) ([]domain.UserSummary, int64, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	SetPasswordResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetUserByResetToken(ctx context.Context, token string) (*domain.User, error)
	ClearPasswordResetToken(ctx context.Context, userID uuid.UUID) error
	SetEmailVerificationToken(ctx context.Context, userID uuid.UUID, token string, sentAt time.Time) error
	GetUserByEmailVerificationToken(ctx context.Context, token string) (*domain.User, error)
	VerifyEmail(ctx context.Context, userID uuid.UUID) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, username, email, password_hash, full_name, avatar_url, bio, locale, is_active, is_email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FullName,
		user.AvatarURL, user.Bio, user.Locale, user.IsActive, user.IsEmailVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE user_id = $1 AND deleted_at IS NULL`, id)
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}

	var users []domain.User
	query := `SELECT * FROM users WHERE user_id = ANY($1::uuid[]) AND deleted_at IS NULL`
	err := r.db.SelectContext(ctx, &users, query, uuidArray(ids))
	return users, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE email = $1 AND deleted_at IS NULL`, email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE username = $1 AND deleted_at IS NULL`, username)
}

func (r *userRepository) GetByUsernames(ctx context.Context, usernames []string) ([]domain.User, error) {
	if len(usernames) == 0 {
		return []domain.User{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM users WHERE username IN (?) AND deleted_at IS NULL`, usernames)
	if err != nil {
		return nil, err
	}

	var users []domain.User
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

func (r *userRepository) Search(ctx context.Context, q string, params domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	params.Validate()
	pattern := q + "%"

	var total int64
	countQuery := `
		SELECT COUNT(*) FROM users
		WHERE deleted_at IS NULL AND (username ILIKE $1 OR full_name ILIKE $1)`
	if err := r.db.GetContext(ctx, &total, countQuery, pattern); err != nil {
		return nil, 0, err
	}

	var users []domain.UserSummary
	query := `
		SELECT user_id, username, full_name, avatar_url FROM users
		WHERE deleted_at IS NULL AND (username ILIKE $1 OR full_name ILIKE $1)
		ORDER BY username
		LIMIT $2 OFFSET $3`
	err := r.db.SelectContext(ctx, &users, query, pattern, params.PageSize, params.Offset())
	return users, total, err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = :username, email = :email, password_hash = :password_hash, full_name = :full_name,
			avatar_url = :avatar_url, bio = :bio, locale = :locale, updated_at = NOW()
		WHERE user_id = :user_id AND deleted_at IS NULL`

	_, err := r.db.NamedExecContext(ctx, query, user)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE user_id = $1 AND deleted_at IS NULL`
	return r.execOne(ctx, query, userID, avatarURL)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET deleted_at = NOW(), is_active = FALSE WHERE user_id = $1 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`
	err := r.db.GetContext(ctx, &exists, query, email)
	return exists, err
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	err := r.db.GetContext(ctx, &exists, query, username)
	return exists, err
}

func (r *userRepository) SetPasswordResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires_at = $3, updated_at = NOW()
		WHERE user_id = $1 AND deleted_at IS NULL`
	return r.execOne(ctx, query, userID, token, expiresAt)
}

func (r *userRepository) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE password_reset_token = $1 AND deleted_at IS NULL`, token)
}

func (r *userRepository) ClearPasswordResetToken(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires_at = NULL, updated_at = NOW()
		WHERE user_id = $1 AND deleted_at IS NULL`
	return r.execOne(ctx, query, userID)
}

func (r *userRepository) SetEmailVerificationToken(ctx context.Context, userID uuid.UUID, token string, sentAt time.Time) error {
	query := `
		UPDATE users
		SET email_verification_token = $2, email_verification_sent_at = $3, updated_at = NOW()
		WHERE user_id = $1 AND deleted_at IS NULL`
	return r.execOne(ctx, query, userID, token, sentAt)
}

func (r *userRepository) GetUserByEmailVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE email_verification_token = $1 AND deleted_at IS NULL`, token)
}

func (r *userRepository) VerifyEmail(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET is_email_verified = TRUE, email_verification_token = NULL, email_verification_sent_at = NULL, updated_at = NOW()
		WHERE user_id = $1 AND deleted_at IS NULL`
	return r.execOne(ctx, query, userID)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		return nil, notFoundAsNil(err)
	}
	return &user, nil
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
