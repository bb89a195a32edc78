package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"kumpul/internal/domain"
	"kumpul/internal/metrics"
	"kumpul/internal/realtime"
)

const passLockKey = "notifications:batch-pass:lock"

// releasePassLock deletes the lock only if this instance still owns it.
var releasePassLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *service) Run(ctx context.Context) error {
	s.log.InfoContext(ctx, "Starting notification batching",
		slog.Duration("interval", s.cfg.BatchInterval),
		slog.Duration("window", s.cfg.BatchWindow),
		slog.Int("threshold", s.cfg.SummaryThreshold),
		slog.Int("max_workers", s.cfg.Workers))

	ticker := time.NewTicker(s.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Notification batching shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.HandleLowPriorityNotifications(ctx)
		}
	}
}

func (s *service) HandleLowPriorityNotifications(ctx context.Context) {
	if !s.passMu.TryLock() {
		metrics.BatchPassSkipped.Inc()
		s.log.InfoContext(ctx, "Skipping batching pass, previous pass still running")
		return
	}
	defer s.passMu.Unlock()

	release, acquired := s.acquirePassLock(ctx)
	if !acquired {
		metrics.BatchPassSkipped.Inc()
		s.log.InfoContext(ctx, "Skipping batching pass, another instance holds the lock")
		return
	}
	defer release()

	start := s.now()
	defer func() {
		metrics.BatchPassDuration.Observe(time.Since(start).Seconds())
	}()

	online := s.pusher.OnlineUsers()
	if len(online) == 0 {
		s.log.DebugContext(ctx, "No online users, nothing to batch")
		return
	}

	filter := domain.PendingFilter{
		Since:       start.Add(-s.cfg.BatchWindow),
		Until:       start,
		ReceiverIDs: online,
	}

	groups, err := s.repo.CountPendingLowPriority(ctx, filter)
	if err != nil {
		s.log.ErrorContext(ctx, "Error counting pending low priority notifications", slog.Any("error", err))
		return
	}
	if len(groups) == 0 {
		return
	}

	s.log.InfoContext(ctx, "Processing low priority notification groups", slog.Int("groups", len(groups)))

	var eg errgroup.Group
	eg.SetLimit(s.cfg.Workers)
	for _, group := range groups {
		eg.Go(func() error {
			if err := s.deliverGroup(ctx, group, filter); err != nil {
				s.log.ErrorContext(ctx, "Failed to deliver notification group",
					slog.String("receiver_id", group.ReceiverID.String()),
					slog.String("type", string(group.Type)),
					slog.Int("count", group.Count),
					slog.Any("error", err))
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// deliverGroup pushes either one summary or each notification of the group,
// then records what reached the receiver so the next pass skips it.
func (s *service) deliverGroup(ctx context.Context, group domain.NotificationGroup, filter domain.PendingFilter) error {
	if !s.pusher.IsOnline(group.ReceiverID) {
		return nil
	}

	if group.Count > s.cfg.SummaryThreshold {
		summary := Summary(group.Type, group.Count)
		delivered, err := s.pusher.Push(group.ReceiverID, realtime.Event{Type: realtime.EventNotificationSummary, Data: summary})
		if err != nil {
			metrics.NotificationPushes.WithLabelValues("summary", "failed").Inc()
			return fmt.Errorf("push summary: %w", err)
		}
		if !delivered {
			return nil
		}
		metrics.NotificationPushes.WithLabelValues("summary", "delivered").Inc()

		if _, err := s.repo.MarkGroupSurfaced(ctx, group.ReceiverID, group.Type, filter); err != nil {
			return fmt.Errorf("mark group surfaced: %w", err)
		}
		return nil
	}

	notifications, err := s.repo.ListPendingLowPriority(ctx, group.ReceiverID, group.Type, filter)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	var (
		surfaced []uuid.UUID
		errs     []error
	)
	for i := range notifications {
		notif := &notifications[i]
		delivered, err := s.pusher.Push(group.ReceiverID, realtime.Event{Type: realtime.EventNotification, Data: notif})
		if err != nil {
			metrics.NotificationPushes.WithLabelValues("batched", "failed").Inc()
			errs = append(errs, fmt.Errorf("push %s: %w", notif.ID, err))
			continue
		}
		if delivered {
			metrics.NotificationPushes.WithLabelValues("batched", "delivered").Inc()
			surfaced = append(surfaced, notif.ID)
		}
	}

	if len(surfaced) > 0 {
		if err := s.repo.MarkSurfaced(ctx, []uuid.UUID{group.ReceiverID}, surfaced); err != nil {
			errs = append(errs, fmt.Errorf("mark surfaced: %w", err))
		}
	}
	return errors.Join(errs...)
}

// acquirePassLock takes the cross-instance lock when Redis is configured.
// If Redis is unreachable the pass still runs under the local guard.
func (s *service) acquirePassLock(ctx context.Context) (release func(), acquired bool) {
	noop := func() {}
	if s.redis == nil {
		return noop, true
	}

	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, passLockKey, token, s.cfg.BatchInterval).Result()
	if err != nil {
		s.log.WarnContext(ctx, "Batching lock unavailable, running locally", slog.Any("error", err))
		return noop, true
	}
	if !ok {
		return nil, false
	}

	return func() {
		err := releasePassLock.Run(context.WithoutCancel(ctx), s.redis, []string{passLockKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.log.Warn("Failed to release batching lock", slog.Any("error", err))
		}
	}, true
}
