package post_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kumpul/internal/config"
	"kumpul/internal/domain"
	"kumpul/internal/mocks"
	"kumpul/internal/repository"
	"kumpul/internal/service/media"
	"kumpul/internal/service/post"
)

type postFixture struct {
	posts     *mocks.PostRepository
	likes     *mocks.PairRepository
	views     *mocks.PairRepository
	bookmarks *mocks.PairRepository
	media     *mocks.MediaRepository
	users     *mocks.UserRepository
	notifier  *mocks.Emitter
	svc       post.Service
}

func newPostFixture() *postFixture {
	f := &postFixture{
		posts:     new(mocks.PostRepository),
		likes:     new(mocks.PairRepository),
		views:     new(mocks.PairRepository),
		bookmarks: new(mocks.PairRepository),
		media:     new(mocks.MediaRepository),
		users:     new(mocks.UserRepository),
		notifier:  new(mocks.Emitter),
	}
	f.notifier.On("Emit", mock.Anything, mock.Anything).Return()

	cfg := &config.Config{MinIOPublicEndpoint: "cdn.example.com", MinIOBucket: "media", MinIOPublicUseSSL: true}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.svc = post.NewService(post.Deps{
		Posts:     f.posts,
		Likes:     f.likes,
		Views:     f.views,
		Bookmarks: f.bookmarks,
		Media:     f.media,
		Users:     f.users,
		MediaSvc:  media.NewService(f.media, nil, cfg, log),
		Notifier:  f.notifier,
		Log:       log,
	})
	return f
}

func TestPostService_Create(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()

	t.Run("Success attaches media urls", func(t *testing.T) {
		f := newPostFixture()
		mediaID := uuid.New()
		created := &domain.Post{AuthorID: authorID, Content: "hello"}

		f.posts.On("Create", ctx, mock.AnythingOfType("*domain.Post"), []uuid.UUID{mediaID}).
			Run(func(args mock.Arguments) { created.ID = args.Get(1).(*domain.Post).ID }).
			Return(nil).Once()
		f.posts.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).Return(created, nil).Once()
		f.media.On("ListByPosts", ctx, mock.Anything).
			Return([]domain.Media{{ID: mediaID, PostID: &created.ID, StoragePath: "media/2026/10/a.png"}}, nil).Once()

		got, err := f.svc.Create(ctx, authorID, domain.CreatePostInput{Content: "hello", MediaIDs: []uuid.UUID{mediaID}})
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		require.Len(t, got.Media, 1)
		assert.Equal(t, "https://cdn.example.com/media/media/2026/10/a.png", got.Media[0].URL)
	})

	t.Run("Foreign media", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("Create", ctx, mock.Anything, mock.Anything).Return(repository.ErrMediaNotAttachable).Once()

		_, err := f.svc.Create(ctx, authorID, domain.CreatePostInput{Content: "x", MediaIDs: []uuid.UUID{uuid.New()}})
		assert.ErrorIs(t, err, post.ErrInvalidMedia)
	})
}

func TestPostService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	p := &domain.Post{ID: uuid.New(), AuthorID: owner, Content: "before"}

	t.Run("Owner updates", func(t *testing.T) {
		f := newPostFixture()
		cp := *p
		f.posts.On("GetByID", ctx, p.ID).Return(&cp, nil).Once()
		f.posts.On("Update", ctx, &cp).Return(nil).Once()

		got, err := f.svc.Update(ctx, owner, p.ID, domain.UpdatePostInput{Content: "after"})
		require.NoError(t, err)
		assert.Equal(t, "after", got.Content)
		f.posts.AssertExpectations(t)
	})

	t.Run("Non-owner cannot delete", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		assert.ErrorIs(t, f.svc.Delete(ctx, other, p.ID), post.ErrNotOwner)
		f.posts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Missing post", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("GetByID", ctx, p.ID).Return(nil, nil).Once()

		assert.ErrorIs(t, f.svc.Delete(ctx, owner, p.ID), post.ErrPostNotFound)
	})
}

func TestPostService_Like(t *testing.T) {
	ctx := context.Background()
	owner := &domain.User{ID: uuid.New(), Username: "owner"}
	liker := &domain.User{ID: uuid.New(), Username: "liker", FullName: "Liker"}
	p := &domain.Post{ID: uuid.New(), AuthorID: owner.ID}

	t.Run("Notifies the owner with low priority", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("GetVisible", ctx, p.ID, liker.ID).Return(p, nil).Once()
		f.likes.On("Create", ctx, p.ID, liker.ID).Return(true, nil).Once()
		f.users.On("GetByID", ctx, liker.ID).Return(liker, nil).Once()

		require.NoError(t, f.svc.Like(ctx, liker.ID, p.ID))

		emitted := f.notifier.Emitted()
		require.Len(t, emitted, 1)
		assert.Equal(t, domain.NotifLike, emitted[0].Type)
		assert.Equal(t, domain.PriorityLow, emitted[0].Priority)
		assert.Equal(t, []uuid.UUID{owner.ID}, emitted[0].ReceiverIDs)
		assert.Equal(t, "Liker liked your post.", emitted[0].Message)
	})

	t.Run("Own post is silent", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("GetVisible", ctx, p.ID, owner.ID).Return(p, nil).Once()
		f.likes.On("Create", ctx, p.ID, owner.ID).Return(true, nil).Once()

		require.NoError(t, f.svc.Like(ctx, owner.ID, p.ID))
		assert.Empty(t, f.notifier.Emitted())
	})

	t.Run("Twice", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("GetVisible", ctx, p.ID, liker.ID).Return(p, nil).Once()
		f.likes.On("Create", ctx, p.ID, liker.ID).Return(false, nil).Once()

		assert.ErrorIs(t, f.svc.Like(ctx, liker.ID, p.ID), post.ErrAlreadyLiked)
		assert.Empty(t, f.notifier.Emitted())
	})

	t.Run("Hidden post", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("GetVisible", ctx, p.ID, liker.ID).Return(nil, nil).Once()

		assert.ErrorIs(t, f.svc.Like(ctx, liker.ID, p.ID), post.ErrPostNotFound)
	})

	t.Run("Unlike without like", func(t *testing.T) {
		f := newPostFixture()
		f.likes.On("Delete", ctx, p.ID, liker.ID).Return(false, nil).Once()

		assert.ErrorIs(t, f.svc.Unlike(ctx, liker.ID, p.ID), post.ErrNotLiked)
	})
}

func TestPostService_ViewsAndBookmarks(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	p := &domain.Post{ID: uuid.New(), AuthorID: uuid.New()}

	t.Run("First view counts once", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("GetVisible", ctx, p.ID, userID).Return(p, nil).Twice()
		f.views.On("Create", ctx, p.ID, userID).Return(true, nil).Once()
		f.views.On("Create", ctx, p.ID, userID).Return(false, nil).Once()

		first, err := f.svc.RecordView(ctx, userID, p.ID)
		require.NoError(t, err)
		assert.True(t, first)

		again, err := f.svc.RecordView(ctx, userID, p.ID)
		require.NoError(t, err)
		assert.False(t, again)
	})

	t.Run("Bookmark twice", func(t *testing.T) {
		f := newPostFixture()
		f.posts.On("GetVisible", ctx, p.ID, userID).Return(p, nil).Twice()
		f.bookmarks.On("Create", ctx, p.ID, userID).Return(true, nil).Once()
		f.bookmarks.On("Create", ctx, p.ID, userID).Return(false, nil).Once()

		require.NoError(t, f.svc.Bookmark(ctx, userID, p.ID))
		assert.ErrorIs(t, f.svc.Bookmark(ctx, userID, p.ID), post.ErrAlreadyBookmark)
	})

	t.Run("Bookmarked list is paginated", func(t *testing.T) {
		f := newPostFixture()
		params := domain.PaginationParams{Page: 1, PageSize: 2}
		posts := []domain.Post{{ID: uuid.New()}, {ID: uuid.New()}}
		f.posts.On("ListBookmarked", ctx, userID, params).Return(posts, int64(3), nil).Once()
		f.media.On("ListByPosts", ctx, mock.Anything).Return([]domain.Media{}, nil).Once()

		page, err := f.svc.ListBookmarked(ctx, userID, params)
		require.NoError(t, err)
		assert.Len(t, page.Data, 2)
		assert.Equal(t, 2, page.TotalPages)
		assert.True(t, page.HasNext)
	})
}
