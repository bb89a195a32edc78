package block

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"kumpul/internal/domain"
	"kumpul/internal/repository"
)

var (
	ErrCannotBlockSelf = errors.New("cannot block yourself")
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyBlocked  = errors.New("user already blocked")
	ErrNotBlocked      = errors.New("user is not blocked")
)

type Service interface {
	// Block also removes follow edges in both directions.
	Block(ctx context.Context, blockerID, blockedID uuid.UUID) error
	Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error
	// IsBlocked reports a block in either direction.
	IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListBlocked(ctx context.Context, blockerID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.UserSummary], error)
}

type service struct {
	blockRepo repository.BlockRepository
	userRepo  repository.UserRepository
}

func NewService(blockRepo repository.BlockRepository, userRepo repository.UserRepository) Service {
	return &service{blockRepo: blockRepo, userRepo: userRepo}
}

func (s *service) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrCannotBlockSelf
	}

	target, err := s.userRepo.GetByID(ctx, blockedID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}

	created, err := s.blockRepo.Create(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyBlocked
	}
	return nil
}

func (s *service) Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	deleted, err := s.blockRepo.Delete(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotBlocked
	}
	return nil
}

func (s *service) IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return s.blockRepo.IsBlockedEither(ctx, a, b)
}

func (s *service) ListBlocked(ctx context.Context, blockerID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.UserSummary], error) {
	params.Validate()
	users, total, err := s.blockRepo.ListBlocked(ctx, blockerID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.UserSummary]{}, err
	}
	return domain.NewPaginatedResponse(users, params.Page, params.PageSize, total), nil
}
