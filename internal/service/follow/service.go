package follow

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"kumpul/internal/domain"
	"kumpul/internal/repository"
	"kumpul/internal/service/notification"
)

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
	ErrUserNotFound     = errors.New("user not found")
	ErrBlocked          = errors.New("user is blocked")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

type Service interface {
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.UserSummary], error)
	ListFollowing(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.UserSummary], error)
	Counts(ctx context.Context, userID uuid.UUID) (*domain.FollowCounts, error)
}

type service struct {
	followRepo repository.FollowRepository
	blockRepo  repository.BlockRepository
	userRepo   repository.UserRepository
	notifier   notification.Emitter
}

func NewService(
	followRepo repository.FollowRepository,
	blockRepo repository.BlockRepository,
	userRepo repository.UserRepository,
	notifier notification.Emitter,
) Service {
	return &service{
		followRepo: followRepo,
		blockRepo:  blockRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

func (s *service) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return ErrCannotFollowSelf
	}

	followee, err := s.userRepo.GetByID(ctx, followeeID)
	if err != nil {
		return err
	}
	if followee == nil {
		return ErrUserNotFound
	}

	blocked, err := s.blockRepo.IsBlockedEither(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrBlocked
	}

	created, err := s.followRepo.Create(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyFollowing
	}

	follower, err := s.userRepo.GetByID(ctx, followerID)
	if err == nil && follower != nil {
		s.notifier.Emit(ctx, notification.NewFollowInput(follower, followeeID))
	}
	return nil
}

func (s *service) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	deleted, err := s.followRepo.Delete(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFollowing
	}
	return nil
}

func (s *service) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

func (s *service) ListFollowers(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.UserSummary], error) {
	params.Validate()
	users, total, err := s.followRepo.ListFollowers(ctx, userID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.UserSummary]{}, err
	}
	return domain.NewPaginatedResponse(users, params.Page, params.PageSize, total), nil
}

func (s *service) ListFollowing(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.UserSummary], error) {
	params.Validate()
	users, total, err := s.followRepo.ListFollowing(ctx, userID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.UserSummary]{}, err
	}
	return domain.NewPaginatedResponse(users, params.Page, params.PageSize, total), nil
}

func (s *service) Counts(ctx context.Context, userID uuid.UUID) (*domain.FollowCounts, error) {
	return s.followRepo.Counts(ctx, userID)
}
