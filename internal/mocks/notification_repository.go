package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"kumpul/internal/domain"
)

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, notif *domain.Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}

func (m *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *NotificationRepository) ListByReceiver(ctx context.Context, receiverID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	args := m.Called(ctx, receiverID, unreadOnly, params)
	return args.Get(0).([]domain.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *NotificationRepository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	args := m.Called(ctx, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) UpdateState(ctx context.Context, notif *domain.Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}

func (m *NotificationRepository) MarkAllAsRead(ctx context.Context, receiverID uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, receiverID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) MarkSurfaced(ctx context.Context, receiverIDs, notificationIDs []uuid.UUID) error {
	args := m.Called(ctx, receiverIDs, notificationIDs)
	return args.Error(0)
}

func (m *NotificationRepository) CountPendingLowPriority(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationGroup, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NotificationGroup), args.Error(1)
}

func (m *NotificationRepository) ListPendingLowPriority(ctx context.Context, receiverID uuid.UUID, notifType domain.NotificationType, filter domain.PendingFilter) ([]domain.Notification, error) {
	args := m.Called(ctx, receiverID, notifType, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *NotificationRepository) MarkGroupSurfaced(ctx context.Context, receiverID uuid.UUID, notifType domain.NotificationType, filter domain.PendingFilter) (int64, error) {
	args := m.Called(ctx, receiverID, notifType, filter)
	return args.Get(0).(int64), args.Error(1)
}
