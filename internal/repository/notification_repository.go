package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kumpul/internal/domain"
)

type NotificationRepository interface {
	// Create inserts the notification row and one receiver row per id in
	// ReceiverIDs in one transaction.
	Create(ctx context.Context, notif *domain.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListByReceiver(ctx context.Context, receiverID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error)
	CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error)
	UpdateState(ctx context.Context, notif *domain.Notification) error
	MarkAllAsRead(ctx context.Context, receiverID uuid.UUID, now time.Time) (int64, error)

	// MarkSurfaced records that each receiver was pushed each notification.
	MarkSurfaced(ctx context.Context, receiverIDs, notificationIDs []uuid.UUID) error
	CountPendingLowPriority(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationGroup, error)
	ListPendingLowPriority(ctx context.Context, receiverID uuid.UUID, notifType domain.NotificationType, filter domain.PendingFilter) ([]domain.Notification, error)
	MarkGroupSurfaced(ctx context.Context, receiverID uuid.UUID, notifType domain.NotificationType, filter domain.PendingFilter) (int64, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// pendingLowPriority selects receiver rows of active low priority
// notifications inside a pass window that nobody has pushed yet.
// $1 since, $2 until.
const pendingLowPriority = `
	FROM notification_receivers r
	INNER JOIN notifications n ON n.notification_id = r.notification_id
	WHERE n.priority = 'low'
		AND n.status = 'active'
		AND r.surfaced_at IS NULL
		AND n.created_at >= $1
		AND n.created_at <= $2`

func (r *notificationRepository) Create(ctx context.Context, notif *domain.Notification) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO notifications (notification_id, sender_id, type, priority, title, message, entity_id, entity_type, link, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at`
		err := tx.QueryRowxContext(ctx, query,
			notif.ID, notif.SenderID, notif.Type, notif.Priority, notif.Title, notif.Message,
			notif.EntityID, notif.EntityType, notif.Link, notif.Status,
		).Scan(&notif.CreatedAt, &notif.UpdatedAt)
		if err != nil {
			return err
		}

		receivers := `
			INSERT INTO notification_receivers (notification_id, receiver_id)
			SELECT $1, unnest($2::uuid[])`
		_, err = tx.ExecContext(ctx, receivers, notif.ID, uuidArray(notif.ReceiverIDs))
		return err
	})
}

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var notif domain.Notification
	if err := r.db.GetContext(ctx, &notif, `SELECT * FROM notifications WHERE notification_id = $1`, id); err != nil {
		return nil, notFoundAsNil(err)
	}

	query := `SELECT receiver_id FROM notification_receivers WHERE notification_id = $1`
	if err := r.db.SelectContext(ctx, &notif.ReceiverIDs, query, id); err != nil {
		return nil, err
	}
	return &notif, nil
}

func (r *notificationRepository) ListByReceiver(ctx context.Context, receiverID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	params.Validate()

	statusFilter := `n.status <> 'deleted'`
	if unreadOnly {
		statusFilter = `n.status = 'active'`
	}
	from := `
		FROM notifications n
		INNER JOIN notification_receivers r ON r.notification_id = n.notification_id
		WHERE r.receiver_id = $1 AND ` + statusFilter

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) `+from, receiverID); err != nil {
		return nil, 0, err
	}

	var notifications []domain.Notification
	query := `SELECT n.* ` + from + ` ORDER BY n.created_at DESC LIMIT $2 OFFSET $3`
	err := r.db.SelectContext(ctx, &notifications, query, receiverID, params.PageSize, params.Offset())
	return notifications, total, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*) FROM notifications n
		INNER JOIN notification_receivers r ON r.notification_id = n.notification_id
		WHERE r.receiver_id = $1 AND n.status = 'active'`
	err := r.db.GetContext(ctx, &count, query, receiverID)
	return count, err
}

func (r *notificationRepository) UpdateState(ctx context.Context, notif *domain.Notification) error {
	query := `
		UPDATE notifications
		SET status = $2, read_at = $3, deleted_at = $4, updated_at = NOW()
		WHERE notification_id = $1
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, query,
		notif.ID, notif.Status, notif.ReadAt, notif.DeletedAt,
	).Scan(&notif.UpdatedAt)
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, receiverID uuid.UUID, now time.Time) (int64, error) {
	query := `
		UPDATE notifications n
		SET status = 'read', read_at = $2, updated_at = NOW()
		FROM notification_receivers r
		WHERE r.notification_id = n.notification_id
			AND r.receiver_id = $1
			AND n.status = 'active'`
	result, err := r.db.ExecContext(ctx, query, receiverID, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *notificationRepository) MarkSurfaced(ctx context.Context, receiverIDs, notificationIDs []uuid.UUID) error {
	if len(receiverIDs) == 0 || len(notificationIDs) == 0 {
		return nil
	}

	query := `
		UPDATE notification_receivers
		SET surfaced_at = NOW()
		WHERE receiver_id = ANY($1::uuid[])
			AND notification_id = ANY($2::uuid[])
			AND surfaced_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, uuidArray(receiverIDs), uuidArray(notificationIDs))
	return err
}

func (r *notificationRepository) CountPendingLowPriority(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationGroup, error) {
	groups := []domain.NotificationGroup{}
	if len(filter.ReceiverIDs) == 0 {
		return groups, nil
	}

	query := `SELECT r.receiver_id, n.type, COUNT(*) AS count ` + pendingLowPriority + `
		AND r.receiver_id = ANY($3::uuid[])
		GROUP BY r.receiver_id, n.type
		ORDER BY r.receiver_id, n.type`
	err := r.db.SelectContext(ctx, &groups, query, filter.Since, filter.Until, uuidArray(filter.ReceiverIDs))
	return groups, err
}

func (r *notificationRepository) ListPendingLowPriority(ctx context.Context, receiverID uuid.UUID, notifType domain.NotificationType, filter domain.PendingFilter) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := `SELECT n.* ` + pendingLowPriority + `
		AND r.receiver_id = $3
		AND n.type = $4
		ORDER BY n.created_at ASC`
	err := r.db.SelectContext(ctx, &notifications, query, filter.Since, filter.Until, receiverID, notifType)
	return notifications, err
}

func (r *notificationRepository) MarkGroupSurfaced(ctx context.Context, receiverID uuid.UUID, notifType domain.NotificationType, filter domain.PendingFilter) (int64, error) {
	query := `
		UPDATE notification_receivers r
		SET surfaced_at = NOW()
		FROM notifications n
		WHERE n.notification_id = r.notification_id
			AND n.priority = 'low'
			AND n.status = 'active'
			AND r.surfaced_at IS NULL
			AND n.created_at >= $1
			AND n.created_at <= $2
			AND r.receiver_id = $3
			AND n.type = $4`
	result, err := r.db.ExecContext(ctx, query, filter.Since, filter.Until, receiverID, notifType)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
