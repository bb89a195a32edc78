package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kumpul/internal/domain"
	"kumpul/internal/metrics"
	"kumpul/internal/realtime"
	"kumpul/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Emitter is what producing services depend on. Emit never blocks the
// caller and never reports failure; failures are logged here.
type Emitter interface {
	Emit(ctx context.Context, input domain.CreateNotificationInput)
}

type Service interface {
	Emitter

	// Create persists a notification and pushes it right away to online
	// receivers unless it is low priority.
	Create(ctx context.Context, input domain.CreateNotificationInput) (*domain.Notification, error)
	// HandleLowPriorityNotifications runs one batching pass. Overlapping
	// calls return immediately.
	HandleLowPriorityNotifications(ctx context.Context)
	// Run calls HandleLowPriorityNotifications on every tick until ctx is done.
	Run(ctx context.Context) error
	// Wait blocks until every emitted notification has been handled.
	Wait()

	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type Config struct {
	BatchInterval    time.Duration
	BatchWindow      time.Duration
	SummaryThreshold int
	Workers          int
}

func (c Config) withDefaults() Config {
	if c.BatchInterval <= 0 {
		c.BatchInterval = 5 * time.Minute
	}
	if c.BatchWindow <= 0 {
		c.BatchWindow = 24 * time.Hour
	}
	if c.SummaryThreshold <= 0 {
		c.SummaryThreshold = 5
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	return c
}

type service struct {
	repo   repository.NotificationRepository
	pusher realtime.Pusher
	redis  *redis.Client
	cfg    Config
	log    *slog.Logger
	now    func() time.Time

	passMu   sync.Mutex
	inflight sync.WaitGroup
}

// NewService wires the dispatch core. redisClient may be nil, in which case
// the batching pass is only guarded within this process.
func NewService(
	repo repository.NotificationRepository,
	pusher realtime.Pusher,
	redisClient *redis.Client,
	cfg Config,
	log *slog.Logger,
) Service {
	return &service{
		repo:   repo,
		pusher: pusher,
		redis:  redisClient,
		cfg:    cfg.withDefaults(),
		log:    log,
		now:    time.Now,
	}
}

func (s *service) Create(ctx context.Context, input domain.CreateNotificationInput) (*domain.Notification, error) {
	input, err := input.Normalize()
	if err != nil {
		return nil, err
	}

	notif := &domain.Notification{
		ID:          uuid.New(),
		SenderID:    input.SenderID,
		Type:        input.Type,
		Priority:    input.Priority,
		Title:       input.Title,
		Message:     input.Message,
		EntityID:    input.EntityID,
		EntityType:  input.EntityType,
		Link:        input.Link,
		Status:      domain.StatusActive,
		ReceiverIDs: input.ReceiverIDs,
	}

	if err := s.repo.Create(ctx, notif); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(notif.Type), string(notif.Priority)).Inc()

	if notif.Priority != domain.PriorityLow {
		s.pushImmediate(ctx, notif)
	}
	return notif, nil
}

func (s *service) pushImmediate(ctx context.Context, notif *domain.Notification) {
	event := realtime.Event{Type: realtime.EventNotification, Data: notif}

	var delivered []uuid.UUID
	for _, receiverID := range notif.ReceiverIDs {
		if !s.pusher.IsOnline(receiverID) {
			continue
		}
		ok, err := s.pusher.Push(receiverID, event)
		if err != nil {
			metrics.NotificationPushes.WithLabelValues("immediate", "failed").Inc()
			s.log.WarnContext(ctx, "Failed to push notification",
				slog.String("notification_id", notif.ID.String()),
				slog.String("receiver_id", receiverID.String()),
				slog.Any("error", err))
			continue
		}
		if ok {
			metrics.NotificationPushes.WithLabelValues("immediate", "delivered").Inc()
			delivered = append(delivered, receiverID)
		}
	}

	if len(delivered) == 0 {
		return
	}
	if err := s.repo.MarkSurfaced(ctx, delivered, []uuid.UUID{notif.ID}); err != nil {
		s.log.ErrorContext(ctx, "Failed to mark notification surfaced",
			slog.String("notification_id", notif.ID.String()),
			slog.Any("error", err))
	}
}

func (s *service) Emit(ctx context.Context, input domain.CreateNotificationInput) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		if _, err := s.Create(context.WithoutCancel(ctx), input); err != nil {
			s.log.Error("Failed to emit notification",
				slog.String("type", string(input.Type)),
				slog.Int("receivers", len(input.ReceiverIDs)),
				slog.Any("error", err))
		}
	}()
}

func (s *service) Wait() {
	s.inflight.Wait()
}

func (s *service) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error) {
	notif, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notif == nil || notif.IsDeleted() || !notif.HasReceiver(userID) {
		return nil, ErrNotificationNotFound
	}
	return notif, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	params.Validate()

	notifications, total, err := s.repo.ListByReceiver(ctx, userID, unreadOnly, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Notification]{}, err
	}

	return domain.NewPaginatedResponse(notifications, params.Page, params.PageSize, total), nil
}

func (s *service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error) {
	notif, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	changed, err := notif.MarkRead(s.now())
	if err != nil {
		return nil, ErrNotificationNotFound
	}
	if !changed {
		return notif, nil
	}

	if err := s.repo.UpdateState(ctx, notif); err != nil {
		return nil, err
	}
	return notif, nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID, s.now())
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	notif, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if !notif.MarkDeleted(s.now()) {
		return nil
	}
	return s.repo.UpdateState(ctx, notif)
}
