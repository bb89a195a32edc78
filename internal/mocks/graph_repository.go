package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"kumpul/internal/domain"
)

type FollowRepository struct {
	mock.Mock
}

func (m *FollowRepository) Create(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *FollowRepository) Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *FollowRepository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *FollowRepository) ListFollowers(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.UserSummary), args.Get(1).(int64), args.Error(2)
}

func (m *FollowRepository) ListFollowing(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.UserSummary), args.Get(1).(int64), args.Error(2)
}

func (m *FollowRepository) Counts(ctx context.Context, userID uuid.UUID) (*domain.FollowCounts, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FollowCounts), args.Error(1)
}

type BlockRepository struct {
	mock.Mock
}

func (m *BlockRepository) Create(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepository) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepository) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepository) BlockedAmong(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *BlockRepository) ListBlocked(ctx context.Context, blockerID uuid.UUID, params domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	args := m.Called(ctx, blockerID, params)
	return args.Get(0).([]domain.UserSummary), args.Get(1).(int64), args.Error(2)
}
