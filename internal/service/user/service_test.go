package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kumpul/internal/domain"
	"kumpul/internal/mocks"
	"kumpul/internal/service/media"
	"kumpul/internal/service/user"
)

type avatarUploader struct {
	media.Service
	url string
	err error
}

func (a *avatarUploader) UploadAvatar(_ context.Context, _ uuid.UUID, _ media.Upload) (string, error) {
	return a.url, a.err
}

type disconnects struct {
	ids []uuid.UUID
}

func (d *disconnects) DisconnectUser(id uuid.UUID) { d.ids = append(d.ids, id) }

type userFixture struct {
	users    *mocks.UserRepository
	follows  *mocks.FollowRepository
	blocks   *mocks.BlockRepository
	posts    *mocks.PostRepository
	sessions *mocks.SessionRepository
	avatars  *avatarUploader
	conns    *disconnects
	svc      user.Service
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:    new(mocks.UserRepository),
		follows:  new(mocks.FollowRepository),
		blocks:   new(mocks.BlockRepository),
		posts:    new(mocks.PostRepository),
		sessions: new(mocks.SessionRepository),
		avatars:  &avatarUploader{url: "https://cdn.example.com/avatars/a.png"},
		conns:    &disconnects{},
	}
	f.svc = user.NewService(f.users, f.follows, f.blocks, f.posts, f.sessions, f.avatars, f.conns)
	return f
}

func TestUserService_GetProfile(t *testing.T) {
	ctx := context.Background()
	viewer := uuid.New()
	target := &domain.User{ID: uuid.New(), Username: "rina"}

	t.Run("Counts and relationship flags", func(t *testing.T) {
		f := newUserFixture()
		f.users.On("GetByUsername", ctx, "rina").Return(target, nil).Once()
		f.follows.On("Counts", ctx, target.ID).Return(&domain.FollowCounts{Followers: 4, Following: 2}, nil).Once()
		f.posts.On("CountByAuthor", ctx, target.ID).Return(int64(9), nil).Once()
		f.follows.On("Exists", ctx, viewer, target.ID).Return(true, nil).Once()
		f.blocks.On("IsBlockedEither", ctx, viewer, target.ID).Return(false, nil).Once()

		profile, err := f.svc.GetProfile(ctx, viewer, "Rina")
		require.NoError(t, err)
		assert.Equal(t, int64(4), profile.FollowersCount)
		assert.Equal(t, int64(2), profile.FollowingCount)
		assert.Equal(t, int64(9), profile.PostsCount)
		assert.True(t, profile.IsFollowing)
		assert.False(t, profile.IsBlocked)
	})

	t.Run("Own profile skips relationship lookups", func(t *testing.T) {
		f := newUserFixture()
		f.users.On("GetByUsername", ctx, "rina").Return(target, nil).Once()
		f.follows.On("Counts", ctx, target.ID).Return(&domain.FollowCounts{}, nil).Once()
		f.posts.On("CountByAuthor", ctx, target.ID).Return(int64(0), nil).Once()

		_, err := f.svc.GetProfile(ctx, target.ID, "rina")
		require.NoError(t, err)
		f.follows.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown", func(t *testing.T) {
		f := newUserFixture()
		f.users.On("GetByUsername", ctx, "ghost").Return(nil, nil).Once()

		_, err := f.svc.GetProfile(ctx, viewer, "ghost")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Taken username", func(t *testing.T) {
		f := newUserFixture()
		f.users.On("GetByID", ctx, id).Return(&domain.User{ID: id, Username: "old"}, nil).Once()
		f.users.On("ExistsByUsername", ctx, "new_name").Return(true, nil).Once()

		name := "New_Name"
		_, err := f.svc.Update(ctx, id, domain.UpdateUserInput{Username: &name})
		assert.ErrorIs(t, err, user.ErrUsernameExists)
	})

	t.Run("Invalid username", func(t *testing.T) {
		f := newUserFixture()
		f.users.On("GetByID", ctx, id).Return(&domain.User{ID: id, Username: "old"}, nil).Once()

		name := "no spaces"
		_, err := f.svc.Update(ctx, id, domain.UpdateUserInput{Username: &name})
		assert.ErrorIs(t, err, user.ErrInvalidUsername)
	})

	t.Run("Bio password and locale", func(t *testing.T) {
		f := newUserFixture()
		u := &domain.User{ID: id, Username: "old", Locale: "en"}
		f.users.On("GetByID", ctx, id).Return(u, nil).Once()
		f.users.On("Update", ctx, u).Return(nil).Once()

		bio, password, locale := "hello", "supersecret", "id"
		got, err := f.svc.Update(ctx, id, domain.UpdateUserInput{Bio: &bio, Password: &password, Locale: &locale})
		require.NoError(t, err)
		assert.Equal(t, "hello", *got.Bio)
		assert.Equal(t, "id", got.Locale)
		assert.True(t, strings.HasPrefix(got.PasswordHash, "$2"))
	})
}

func TestUserService_UploadAvatar(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	f := newUserFixture()
	f.users.On("GetByID", ctx, id).Return(&domain.User{ID: id}, nil).Once()
	f.users.On("UpdateAvatar", ctx, id, f.avatars.url).Return(nil).Once()

	got, err := f.svc.UploadAvatar(ctx, id, media.Upload{FileName: "a.png", MimeType: "image/png"})
	require.NoError(t, err)
	require.NotNil(t, got.AvatarURL)
	assert.Equal(t, f.avatars.url, *got.AvatarURL)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	f := newUserFixture()
	f.users.On("GetByID", ctx, id).Return(&domain.User{ID: id}, nil).Once()
	f.users.On("Delete", ctx, id).Return(nil).Once()
	f.sessions.On("RevokeAllForUser", ctx, id).Return(nil).Once()

	require.NoError(t, f.svc.Delete(ctx, id))
	assert.Equal(t, []uuid.UUID{id}, f.conns.ids)
	f.users.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}
