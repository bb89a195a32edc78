package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kumpul/internal/domain"
	"kumpul/internal/repository"
	"kumpul/internal/service/media"
	"kumpul/internal/service/notification"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotOwner        = errors.New("insufficient permissions")
	ErrInvalidMedia    = errors.New("media cannot be attached to this post")
	ErrAlreadyLiked    = errors.New("post already liked")
	ErrNotLiked        = errors.New("post not liked")
	ErrAlreadyBookmark = errors.New("post already bookmarked")
	ErrNotBookmarked   = errors.New("post not bookmarked")
)

// viewDedupeWindow is how long a repeat view by the same user is answered
// from Redis without touching the database.
const viewDedupeWindow = 24 * time.Hour

type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, input domain.CreatePostInput) (*domain.Post, error)
	GetByID(ctx context.Context, viewerID, id uuid.UUID) (*domain.Post, error)
	Update(ctx context.Context, userID, id uuid.UUID, input domain.UpdatePostInput) (*domain.Post, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ListByAuthor(ctx context.Context, authorID, viewerID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Post], error)
	Feed(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Post], error)

	Like(ctx context.Context, userID, postID uuid.UUID) error
	Unlike(ctx context.Context, userID, postID uuid.UUID) error
	// RecordView reports whether this was the user's first view of the post.
	RecordView(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Bookmark(ctx context.Context, userID, postID uuid.UUID) error
	Unbookmark(ctx context.Context, userID, postID uuid.UUID) error
	ListBookmarked(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Post], error)
}

type service struct {
	postRepo     repository.PostRepository
	likeRepo     repository.LikeRepository
	viewRepo     repository.ViewRepository
	bookmarkRepo repository.BookmarkRepository
	mediaRepo    repository.MediaRepository
	userRepo     repository.UserRepository
	mediaSvc     media.Service
	notifier     notification.Emitter
	redis        *redis.Client
	log          *slog.Logger
}

type Deps struct {
	Posts     repository.PostRepository
	Likes     repository.LikeRepository
	Views     repository.ViewRepository
	Bookmarks repository.BookmarkRepository
	Media     repository.MediaRepository
	Users     repository.UserRepository
	MediaSvc  media.Service
	Notifier  notification.Emitter
	Redis     *redis.Client
	Log       *slog.Logger
}

func NewService(d Deps) Service {
	return &service{
		postRepo:     d.Posts,
		likeRepo:     d.Likes,
		viewRepo:     d.Views,
		bookmarkRepo: d.Bookmarks,
		mediaRepo:    d.Media,
		userRepo:     d.Users,
		mediaSvc:     d.MediaSvc,
		notifier:     d.Notifier,
		redis:        d.Redis,
		log:          d.Log,
	}
}

func (s *service) Create(ctx context.Context, authorID uuid.UUID, input domain.CreatePostInput) (*domain.Post, error) {
	post := &domain.Post{
		ID:       uuid.New(),
		AuthorID: authorID,
		Content:  input.Content,
	}

	if err := s.postRepo.Create(ctx, post, input.MediaIDs); err != nil {
		if errors.Is(err, repository.ErrMediaNotAttachable) {
			return nil, ErrInvalidMedia
		}
		return nil, err
	}

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil || created == nil {
		return post, err
	}
	if err := s.attachMedia(ctx, []*domain.Post{created}); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, viewerID, id uuid.UUID) (*domain.Post, error) {
	post, err := s.visible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachMedia(ctx, []*domain.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *service) visible(ctx context.Context, viewerID, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetVisible(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *service) owned(ctx context.Context, userID, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.AuthorID != userID {
		return nil, ErrNotOwner
	}
	return post, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input domain.UpdatePostInput) (*domain.Post, error) {
	post, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	post.Content = input.Content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, id)
}

func (s *service) ListByAuthor(ctx context.Context, authorID, viewerID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Post], error) {
	params.Validate()
	return s.page(ctx, params, func() ([]domain.Post, int64, error) {
		return s.postRepo.ListByAuthor(ctx, authorID, viewerID, params)
	})
}

func (s *service) Feed(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Post], error) {
	params.Validate()
	return s.page(ctx, params, func() ([]domain.Post, int64, error) {
		return s.postRepo.Feed(ctx, userID, params)
	})
}

func (s *service) ListBookmarked(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Post], error) {
	params.Validate()
	return s.page(ctx, params, func() ([]domain.Post, int64, error) {
		return s.postRepo.ListBookmarked(ctx, userID, params)
	})
}

func (s *service) page(ctx context.Context, params domain.PaginationParams, list func() ([]domain.Post, int64, error)) (domain.PaginatedResponse[domain.Post], error) {
	posts, total, err := list()
	if err != nil {
		return domain.PaginatedResponse[domain.Post]{}, err
	}

	ptrs := make([]*domain.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	if err := s.attachMedia(ctx, ptrs); err != nil {
		return domain.PaginatedResponse[domain.Post]{}, err
	}

	return domain.NewPaginatedResponse(posts, params.Page, params.PageSize, total), nil
}

func (s *service) attachMedia(ctx context.Context, posts []*domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(posts))
	byID := make(map[uuid.UUID]*domain.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	items, err := s.mediaRepo.ListByPosts(ctx, ids)
	if err != nil {
		return err
	}
	s.mediaSvc.FillURLs(items)

	for _, item := range items {
		if item.PostID == nil {
			continue
		}
		if p, ok := byID[*item.PostID]; ok {
			p.Media = append(p.Media, item)
		}
	}
	return nil
}

func (s *service) Like(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.visible(ctx, userID, postID)
	if err != nil {
		return err
	}

	created, err := s.likeRepo.Create(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyLiked
	}

	if post.AuthorID == userID {
		return nil
	}
	liker, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || liker == nil {
		s.log.Warn("Skipping like notification, liker not loaded", slog.String("user_id", userID.String()), slog.Any("error", err))
		return nil
	}
	s.notifier.Emit(ctx, notification.NewLikeInput(liker, post))
	return nil
}

func (s *service) Unlike(ctx context.Context, userID, postID uuid.UUID) error {
	deleted, err := s.likeRepo.Delete(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotLiked
	}
	return nil
}

func (s *service) RecordView(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	if _, err := s.visible(ctx, userID, postID); err != nil {
		return false, err
	}

	if s.redis != nil {
		key := fmt.Sprintf("post:view:%s:%s", postID, userID)
		fresh, err := s.redis.SetNX(ctx, key, 1, viewDedupeWindow).Result()
		if err == nil && !fresh {
			return false, nil
		}
	}

	return s.viewRepo.Create(ctx, postID, userID)
}

func (s *service) Bookmark(ctx context.Context, userID, postID uuid.UUID) error {
	if _, err := s.visible(ctx, userID, postID); err != nil {
		return err
	}

	created, err := s.bookmarkRepo.Create(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyBookmark
	}
	return nil
}

func (s *service) Unbookmark(ctx context.Context, userID, postID uuid.UUID) error {
	deleted, err := s.bookmarkRepo.Delete(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotBookmarked
	}
	return nil
}
