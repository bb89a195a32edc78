package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kumpul/internal/domain"
	"kumpul/internal/mocks"
	"kumpul/internal/realtime"
	"kumpul/internal/service/notification"
)

type recordingConn struct {
	mu      sync.Mutex
	payload [][]byte
	fail    bool
}

func (c *recordingConn) Send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return realtime.ErrSendBufferFull
	}
	c.payload = append(c.payload, p)
	return nil
}

func (c *recordingConn) Close() error { return nil }

type pushed struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *recordingConn) pushes(t *testing.T) []pushed {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]pushed, 0, len(c.payload))
	for _, raw := range c.payload {
		var p pushed
		require.NoError(t, json.Unmarshal(raw, &p))
		out = append(out, p)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	repo *mocks.NotificationRepository
	hub  *realtime.Hub
	svc  notification.Service
}

func newFixture() *fixture {
	repo := new(mocks.NotificationRepository)
	hub := realtime.NewHub(discardLogger())
	svc := notification.NewService(repo, hub, nil, notification.Config{
		BatchInterval:    time.Minute,
		BatchWindow:      24 * time.Hour,
		SummaryThreshold: 5,
		Workers:          4,
	}, discardLogger())
	return &fixture{repo: repo, hub: hub, svc: svc}
}

func (f *fixture) online(userID uuid.UUID) *recordingConn {
	conn := &recordingConn{}
	f.hub.Connect(userID, conn)
	return conn
}

func notificationOf(t *testing.T, p pushed) domain.Notification {
	var n domain.Notification
	require.NoError(t, json.Unmarshal(p.Data, &n))
	return n
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Follow is pushed immediately to an online receiver", func(t *testing.T) {
		f := newFixture()
		follower := &domain.User{ID: uuid.New(), Username: "ana", FullName: "Ana"}
		followee := uuid.New()
		conn := f.online(followee)

		f.repo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotifFollow && n.Priority == domain.PriorityMedium &&
				n.Status == domain.StatusActive && len(n.ReceiverIDs) == 1
		})).Return(nil).Once()
		f.repo.On("MarkSurfaced", ctx, []uuid.UUID{followee}, mock.Anything).Return(nil).Once()

		n, err := f.svc.Create(ctx, notification.NewFollowInput(follower, followee))

		require.NoError(t, err)
		assert.Equal(t, "Ana started following you.", n.Message)

		pushes := conn.pushes(t)
		require.Len(t, pushes, 1)
		assert.Equal(t, realtime.EventNotification, pushes[0].Event)
		got := notificationOf(t, pushes[0])
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, n.Title, got.Title)
		assert.Equal(t, n.Message, got.Message)
		f.repo.AssertExpectations(t)
	})

	t.Run("Invalid type persists nothing and pushes nothing", func(t *testing.T) {
		f := newFixture()
		receiver := uuid.New()
		conn := f.online(receiver)

		n, err := f.svc.Create(ctx, domain.CreateNotificationInput{
			ReceiverIDs: []uuid.UUID{receiver},
			Title:       "x",
			Message:     "y",
			Type:        "bogus",
		})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "type", verr.Field)
		assert.Nil(t, n)
		assert.Empty(t, conn.pushes(t))
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Invalid priority and empty receivers are rejected", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Create(ctx, domain.CreateNotificationInput{
			ReceiverIDs: []uuid.UUID{uuid.New()}, Type: domain.NotifLike, Priority: "urgent",
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "priority", verr.Field)

		_, err = f.svc.Create(ctx, domain.CreateNotificationInput{Type: domain.NotifLike})
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "receiver_ids", verr.Field)

		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Low priority is never pushed immediately", func(t *testing.T) {
		f := newFixture()
		liker := &domain.User{ID: uuid.New(), Username: "ana"}
		post := &domain.Post{ID: uuid.New(), AuthorID: uuid.New()}
		conn := f.online(post.AuthorID)

		f.repo.On("Create", ctx, mock.Anything).Return(nil).Once()

		n, err := f.svc.Create(ctx, notification.NewLikeInput(liker, post))

		require.NoError(t, err)
		assert.Equal(t, domain.PriorityLow, n.Priority)
		assert.Empty(t, conn.pushes(t))
		f.repo.AssertNotCalled(t, "MarkSurfaced", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Message reaches only the online receivers", func(t *testing.T) {
		f := newFixture()
		sender := &domain.User{ID: uuid.New(), Username: "a"}
		b, c := uuid.New(), uuid.New()
		bConn := f.online(b)
		msg := &domain.Message{ID: uuid.New(), ChatID: uuid.New(), SenderID: sender.ID, Content: "Hello"}

		f.repo.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("MarkSurfaced", ctx, []uuid.UUID{b}, mock.Anything).Return(nil).Once()

		n, err := f.svc.Create(ctx, notification.NewMessageInput(sender, msg, []uuid.UUID{b, c}))

		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{b, c}, n.ReceiverIDs)
		pushes := bConn.pushes(t)
		require.Len(t, pushes, 1)
		assert.Equal(t, "Hello", notificationOf(t, pushes[0]).Message)
		f.repo.AssertExpectations(t)
	})

	t.Run("Duplicate receivers are collapsed", func(t *testing.T) {
		f := newFixture()
		receiver := uuid.New()

		f.repo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return len(n.ReceiverIDs) == 1 && n.ReceiverIDs[0] == receiver
		})).Return(nil).Once()

		_, err := f.svc.Create(ctx, domain.CreateNotificationInput{
			ReceiverIDs: []uuid.UUID{receiver, receiver},
			Type:        domain.NotifComment,
		})

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("Persist failure skips the push", func(t *testing.T) {
		f := newFixture()
		receiver := uuid.New()
		conn := f.online(receiver)

		f.repo.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()

		_, err := f.svc.Create(ctx, domain.CreateNotificationInput{
			ReceiverIDs: []uuid.UUID{receiver},
			Type:        domain.NotifComment,
		})

		assert.Error(t, err)
		assert.Empty(t, conn.pushes(t))
	})

	t.Run("Push failure does not fail create", func(t *testing.T) {
		f := newFixture()
		receiver := uuid.New()
		f.hub.Connect(receiver, &recordingConn{fail: true})

		f.repo.On("Create", ctx, mock.Anything).Return(nil).Once()

		n, err := f.svc.Create(ctx, domain.CreateNotificationInput{
			ReceiverIDs: []uuid.UUID{receiver},
			Type:        domain.NotifMention,
			Priority:    domain.PriorityHigh,
		})

		require.NoError(t, err)
		assert.NotNil(t, n)
		f.repo.AssertNotCalled(t, "MarkSurfaced", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_EmitAndWait(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-done
	}).Once()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	input := domain.CreateNotificationInput{ReceiverIDs: []uuid.UUID{uuid.New()}, Type: domain.NotifFollow}
	f.svc.Emit(ctx, input)
	f.svc.Emit(ctx, input)
	f.svc.Emit(ctx, domain.CreateNotificationInput{Type: "bogus"})
	cancel()
	close(done)

	f.svc.Wait()
	f.repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestService_StateTransitions(t *testing.T) {
	ctx := context.Background()
	receiver := uuid.New()

	newNotif := func() *domain.Notification {
		return &domain.Notification{
			ID:          uuid.New(),
			Type:        domain.NotifComment,
			Status:      domain.StatusActive,
			ReceiverIDs: []uuid.UUID{receiver},
		}
	}

	t.Run("MarkAsRead by receiver", func(t *testing.T) {
		f := newFixture()
		n := newNotif()
		f.repo.On("GetByID", ctx, n.ID).Return(n, nil).Once()
		f.repo.On("UpdateState", ctx, n).Return(nil).Once()

		got, err := f.svc.MarkAsRead(ctx, receiver, n.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusRead, got.Status)
		assert.NotNil(t, got.ReadAt)
		f.repo.AssertExpectations(t)
	})

	t.Run("MarkAsRead twice does not write again", func(t *testing.T) {
		f := newFixture()
		n := newNotif()
		_, _ = n.MarkRead(time.Now())
		f.repo.On("GetByID", ctx, n.ID).Return(n, nil).Once()

		_, err := f.svc.MarkAsRead(ctx, receiver, n.ID)

		require.NoError(t, err)
		f.repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything)
	})

	t.Run("Other users cannot see it", func(t *testing.T) {
		f := newFixture()
		n := newNotif()
		f.repo.On("GetByID", ctx, n.ID).Return(n, nil).Once()

		_, err := f.svc.MarkAsRead(ctx, uuid.New(), n.ID)

		assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
	})

	t.Run("Delete is soft and final", func(t *testing.T) {
		f := newFixture()
		n := newNotif()
		f.repo.On("GetByID", ctx, n.ID).Return(n, nil)
		f.repo.On("UpdateState", ctx, n).Return(nil).Once()

		require.NoError(t, f.svc.Delete(ctx, receiver, n.ID))
		assert.Equal(t, domain.StatusDeleted, n.Status)
		assert.NotNil(t, n.DeletedAt)

		_, err := f.svc.MarkAsRead(ctx, receiver, n.ID)
		assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
	})

	t.Run("List paginates", func(t *testing.T) {
		f := newFixture()
		params := domain.PaginationParams{Page: 2, PageSize: 2}
		f.repo.On("ListByReceiver", ctx, receiver, true, params).
			Return([]domain.Notification{*newNotif(), *newNotif()}, int64(5), nil).Once()

		page, err := f.svc.List(ctx, receiver, true, params)

		require.NoError(t, err)
		assert.Len(t, page.Data, 2)
		assert.Equal(t, 3, page.TotalPages)
		assert.True(t, page.HasNext)
		assert.True(t, page.HasPrev)
	})
}
