package comment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kumpul/internal/domain"
	"kumpul/internal/repository"
	"kumpul/internal/service/notification"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrInvalidParent   = errors.New("parent comment does not belong to this post")
	ErrNotOwner        = errors.New("insufficient permissions")
)

const listCacheTTL = 5 * time.Minute

var mentionPattern = regexp.MustCompile(`(?:^|[^\w@])@([A-Za-z0-9_.]{3,30})`)

// ExtractMentions returns the distinct lowercased usernames mentioned with
// @username, in order of first appearance.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimRight(strings.ToLower(m[1]), ".")
		if !domain.IsValidUsername(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

type Service interface {
	Create(ctx context.Context, postID, userID uuid.UUID, input domain.CreateCommentInput) (*domain.Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	Update(ctx context.Context, userID, id uuid.UUID, input domain.UpdateCommentInput) (*domain.Comment, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ListByPost(ctx context.Context, viewerID, postID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Comment], error)
}

type service struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	blockRepo   repository.BlockRepository
	notifier    notification.Emitter
	redis       *redis.Client
	log         *slog.Logger
}

func NewService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	blockRepo repository.BlockRepository,
	notifier notification.Emitter,
	redisClient *redis.Client,
	log *slog.Logger,
) Service {
	return &service{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		blockRepo:   blockRepo,
		notifier:    notifier,
		redis:       redisClient,
		log:         log,
	}
}

func (s *service) Create(ctx context.Context, postID, userID uuid.UUID, input domain.CreateCommentInput) (*domain.Comment, error) {
	post, err := s.postRepo.GetVisible(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	if input.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.PostID != postID {
			return nil, ErrInvalidParent
		}
	}

	comment := &domain.Comment{
		ID:       uuid.New(),
		PostID:   postID,
		UserID:   userID,
		ParentID: input.ParentID,
		Content:  input.Content,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.invalidate(ctx, postID)

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || author == nil {
		s.log.Warn("Skipping comment notifications, author not loaded", slog.String("user_id", userID.String()), slog.Any("error", err))
		return comment, nil
	}
	summary := author.Summary()
	comment.Author = &summary

	if post.AuthorID != userID {
		s.notifier.Emit(ctx, notification.NewCommentInput(author, post, comment))
	}
	s.notifyMentions(ctx, author, post, comment)

	return comment, nil
}

func (s *service) notifyMentions(ctx context.Context, author *domain.User, post *domain.Post, comment *domain.Comment) {
	names := ExtractMentions(comment.Content)
	if len(names) == 0 {
		return
	}

	users, err := s.userRepo.GetByUsernames(ctx, names)
	if err != nil {
		s.log.Warn("Failed to resolve mentions", slog.Any("error", err))
		return
	}

	candidates := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		// the post author already gets the comment notification
		if u.ID == author.ID || u.ID == post.AuthorID {
			continue
		}
		candidates = append(candidates, u.ID)
	}
	if len(candidates) == 0 {
		return
	}

	blocked, err := s.blockRepo.BlockedAmong(ctx, author.ID, candidates)
	if err != nil {
		s.log.Warn("Failed to check blocks for mentions", slog.Any("error", err))
		return
	}
	excluded := make(map[uuid.UUID]struct{}, len(blocked))
	for _, id := range blocked {
		excluded[id] = struct{}{}
	}

	receivers := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if _, skip := excluded[id]; !skip {
			receivers = append(receivers, id)
		}
	}
	if len(receivers) > 0 {
		s.notifier.Emit(ctx, notification.NewMentionInput(author, receivers, comment))
	}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *service) owned(ctx context.Context, userID, id uuid.UUID) (*domain.Comment, error) {
	comment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrNotOwner
	}
	return comment, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input domain.UpdateCommentInput) (*domain.Comment, error) {
	comment, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	comment.Content = input.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	s.invalidate(ctx, comment.PostID)
	return comment, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	comment, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, comment.PostID)
	return nil
}

func (s *service) ListByPost(ctx context.Context, viewerID, postID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Comment], error) {
	params.Validate()

	post, err := s.postRepo.GetVisible(ctx, postID, viewerID)
	if err != nil {
		return domain.PaginatedResponse[domain.Comment]{}, err
	}
	if post == nil {
		return domain.PaginatedResponse[domain.Comment]{}, ErrPostNotFound
	}

	cacheKey := fmt.Sprintf("comments:%s:page:%d:size:%d", postID, params.Page, params.PageSize)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var result domain.PaginatedResponse[domain.Comment]
			if json.Unmarshal([]byte(cached), &result) == nil {
				return result, nil
			}
		}
	}

	comments, total, err := s.commentRepo.ListByPost(ctx, postID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Comment]{}, err
	}

	result := domain.NewPaginatedResponse(comments, params.Page, params.PageSize, total)

	if s.redis != nil {
		if resultJSON, err := json.Marshal(result); err == nil {
			_ = s.redis.Set(ctx, cacheKey, resultJSON, listCacheTTL).Err()
		}
	}

	return result, nil
}

func (s *service) invalidate(ctx context.Context, postID uuid.UUID) {
	if s.redis == nil {
		return
	}
	keys, _ := s.redis.Keys(ctx, fmt.Sprintf("comments:%s:*", postID)).Result()
	if len(keys) > 0 {
		_ = s.redis.Del(ctx, keys...).Err()
	}
}
