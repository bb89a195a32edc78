package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"kumpul/internal/domain"
)

type ChatRepository struct {
	mock.Mock
}

func (m *ChatRepository) chat(args mock.Arguments) (*domain.Chat, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *ChatRepository) Create(ctx context.Context, chat *domain.Chat, memberIDs []uuid.UUID, first *domain.Message) error {
	args := m.Called(ctx, chat, memberIDs, first)
	return args.Error(0)
}

func (m *ChatRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	return m.chat(m.Called(ctx, id))
}

func (m *ChatRepository) GetDirect(ctx context.Context, directKey string) (*domain.Chat, error) {
	return m.chat(m.Called(ctx, directKey))
}

func (m *ChatRepository) ListByMember(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Chat, int64, error) {
	args := m.Called(ctx, userID, params)
	return args.Get(0).([]domain.Chat), args.Get(1).(int64), args.Error(2)
}

type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID, params domain.PaginationParams) ([]domain.Message, int64, error) {
	args := m.Called(ctx, chatID, params)
	return args.Get(0).([]domain.Message), args.Get(1).(int64), args.Error(2)
}
