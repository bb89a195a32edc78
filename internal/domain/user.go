package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                      uuid.UUID  `json:"id" db:"user_id"`
	Username                string     `json:"username" db:"username"`
	Email                   string     `json:"email" db:"email"`
	PasswordHash            string     `json:"-" db:"password_hash"`
	FullName                string     `json:"full_name" db:"full_name"`
	AvatarURL               *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio                     *string    `json:"bio,omitempty" db:"bio"`
	Locale                  string     `json:"locale" db:"locale"`
	IsActive                bool       `json:"is_active" db:"is_active"`
	IsEmailVerified         bool       `json:"is_email_verified" db:"is_email_verified"`
	EmailVerificationToken  *string    `json:"-" db:"email_verification_token"`
	EmailVerificationSentAt *time.Time `json:"-" db:"email_verification_sent_at"`
	PasswordResetToken      *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpiresAt  *time.Time `json:"-" db:"password_reset_expires_at"`
	CreatedAt               time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt               *time.Time `json:"-" db:"deleted_at"`
}

// UserSummary is the public projection embedded in posts, comments and chats.
type UserSummary struct {
	ID        uuid.UUID `json:"id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	FullName  string    `json:"full_name" db:"full_name"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

// DisplayName is what other users see in notification text.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

type UserProfile struct {
	User
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	PostsCount     int64 `json:"posts_count"`
	IsFollowing    bool  `json:"is_following"`
	IsBlocked      bool  `json:"is_blocked"`
}

type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
}

type UpdateUserInput struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Locale   *string `json:"locale,omitempty" validate:"omitempty,oneof=en id"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}
