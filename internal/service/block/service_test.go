package block_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kumpul/internal/domain"
	"kumpul/internal/mocks"
	"kumpul/internal/service/block"
)

func TestBlockService(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	t.Run("Block", func(t *testing.T) {
		blocks, users := new(mocks.BlockRepository), new(mocks.UserRepository)
		svc := block.NewService(blocks, users)
		users.On("GetByID", ctx, b).Return(&domain.User{ID: b}, nil)
		blocks.On("Create", ctx, a, b).Return(true, nil).Once()
		blocks.On("Create", ctx, a, b).Return(false, nil).Once()

		require.NoError(t, svc.Block(ctx, a, b))
		assert.ErrorIs(t, svc.Block(ctx, a, b), block.ErrAlreadyBlocked)
		assert.ErrorIs(t, svc.Block(ctx, a, a), block.ErrCannotBlockSelf)
	})

	t.Run("Unknown user", func(t *testing.T) {
		blocks, users := new(mocks.BlockRepository), new(mocks.UserRepository)
		svc := block.NewService(blocks, users)
		users.On("GetByID", ctx, b).Return(nil, nil).Once()

		assert.ErrorIs(t, svc.Block(ctx, a, b), block.ErrUserNotFound)
	})

	t.Run("Unblock", func(t *testing.T) {
		blocks, users := new(mocks.BlockRepository), new(mocks.UserRepository)
		svc := block.NewService(blocks, users)
		blocks.On("Delete", ctx, a, b).Return(false, nil).Once()

		assert.ErrorIs(t, svc.Unblock(ctx, a, b), block.ErrNotBlocked)
	})

	t.Run("Either direction", func(t *testing.T) {
		blocks, users := new(mocks.BlockRepository), new(mocks.UserRepository)
		svc := block.NewService(blocks, users)
		blocks.On("IsBlockedEither", ctx, b, a).Return(true, nil).Once()

		blocked, err := svc.IsBlocked(ctx, b, a)
		require.NoError(t, err)
		assert.True(t, blocked)
	})
}
