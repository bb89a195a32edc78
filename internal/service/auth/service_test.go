package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kumpul/internal/config"
	"kumpul/internal/domain"
	"kumpul/internal/mocks"
	"kumpul/internal/repository"
	"kumpul/internal/service/auth"
)

type authFixture struct {
	users    *mocks.UserRepository
	sessions *mocks.SessionRepository
	email    *mocks.EmailService
	svc      auth.Service
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    new(mocks.UserRepository),
		sessions: new(mocks.SessionRepository),
		email:    new(mocks.EmailService),
	}
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		DefaultLocale:    "en",
	}
	f.email.On("SendEmailVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.email.On("SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = auth.NewService(f.users, f.sessions, f.email, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	input := domain.CreateUserInput{
		Username: "Ana.K",
		Email:    "Ana@Example.com",
		Password: "password123",
		FullName: "Ana K",
	}

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("ExistsByEmail", ctx, "ana@example.com").Return(false, nil).Once()
		f.users.On("ExistsByUsername", ctx, "ana.k").Return(false, nil).Once()
		f.users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "ana.k" && u.Email == "ana@example.com" && !u.IsEmailVerified &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
		})).Return(nil).Once()
		f.users.On("SetEmailVerificationToken", ctx, mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil).Once()

		user, err := f.svc.Register(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, "en", user.Locale)
		f.users.AssertExpectations(t)
	})

	t.Run("Email taken", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("ExistsByEmail", ctx, "ana@example.com").Return(true, nil).Once()

		_, err := f.svc.Register(ctx, input)

		assert.ErrorIs(t, err, auth.ErrEmailExists)
	})

	t.Run("Username taken", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("ExistsByEmail", ctx, "ana@example.com").Return(false, nil).Once()
		f.users.On("ExistsByUsername", ctx, "ana.k").Return(true, nil).Once()

		_, err := f.svc.Register(ctx, input)

		assert.ErrorIs(t, err, auth.ErrUsernameExists)
	})

	t.Run("Bad username", func(t *testing.T) {
		f := newAuthFixture()
		bad := input
		bad.Username = "no spaces!"

		_, err := f.svc.Register(ctx, bad)

		assert.ErrorIs(t, err, auth.ErrInvalidUsername)
		f.users.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	})
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:              uuid.New(),
		Username:        "ana",
		Email:           "ana@example.com",
		PasswordHash:    string(hash),
		IsActive:        true,
		IsEmailVerified: true,
	}

	t.Run("Issues a token the gateway can validate", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByEmail", ctx, "ana@example.com").Return(user, nil).Once()
		f.sessions.On("Create", ctx, mock.MatchedBy(func(s *repository.Session) bool {
			return s.UserID == user.ID && s.TokenHash != ""
		})).Return(nil).Once()

		_, tokens, err := f.svc.Login(ctx, domain.LoginInput{Email: "ana@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, int64(900), tokens.ExpiresIn)

		claims, err := f.svc.ValidateAccessToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "ana", claims.Username)
	})

	t.Run("Wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByEmail", ctx, "ana@example.com").Return(user, nil).Once()

		_, _, err := f.svc.Login(ctx, domain.LoginInput{Email: "ana@example.com", Password: "nope"})

		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("Unverified", func(t *testing.T) {
		f := newAuthFixture()
		unverified := *user
		unverified.IsEmailVerified = false
		f.users.On("GetByEmail", ctx, "ana@example.com").Return(&unverified, nil).Once()

		_, _, err := f.svc.Login(ctx, domain.LoginInput{Email: "ana@example.com", Password: "password123"})

		assert.ErrorIs(t, err, auth.ErrEmailNotVerified)
	})

	t.Run("Garbage token", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.ValidateAccessToken("not-a-jwt")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Username: "ana", IsActive: true}

	t.Run("Rotates the session", func(t *testing.T) {
		f := newAuthFixture()
		session := &repository.Session{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
		f.sessions.On("GetByTokenHash", ctx, mock.AnythingOfType("string")).Return(session, nil).Once()
		f.users.On("GetByID", ctx, user.ID).Return(user, nil).Once()
		f.sessions.On("Revoke", ctx, session.ID).Return(nil).Once()
		f.sessions.On("Create", ctx, mock.Anything).Return(nil).Once()

		tokens, err := f.svc.RefreshToken(ctx, "raw-refresh")

		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		f.sessions.AssertExpectations(t)
	})

	t.Run("Expired session", func(t *testing.T) {
		f := newAuthFixture()
		session := &repository.Session{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(-time.Minute)}
		f.sessions.On("GetByTokenHash", ctx, mock.Anything).Return(session, nil).Once()

		_, err := f.svc.RefreshToken(ctx, "raw-refresh")

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Expired token", func(t *testing.T) {
		f := newAuthFixture()
		sent := time.Now().Add(-25 * time.Hour)
		f.users.On("GetUserByEmailVerificationToken", ctx, "tok").
			Return(&domain.User{ID: uuid.New(), EmailVerificationSentAt: &sent}, nil).Once()

		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "tok"), auth.ErrVerificationTokenExpired)
	})

	t.Run("Unknown token", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetUserByEmailVerificationToken", ctx, "tok").Return(nil, nil).Once()

		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "tok"), auth.ErrInvalidToken)
	})
}
