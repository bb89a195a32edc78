package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kumpul/internal/domain"
)

type MessageRepository interface {
	// Create inserts the message and bumps the chat's activity time in one
	// transaction.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByChat(ctx context.Context, chatID uuid.UUID, params domain.PaginationParams) ([]domain.Message, int64, error)
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertMessage(ctx, tx, msg)
	})
}

func insertMessage(ctx context.Context, tx *sqlx.Tx, msg *domain.Message) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO messages (message_id, chat_id, sender_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE chats SET updated_at = $2 WHERE chat_id = $1`, msg.ChatID, msg.CreatedAt)
	return err
}

func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var msg domain.Message
	query := `SELECT * FROM messages WHERE message_id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		return nil, notFoundAsNil(err)
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE messages SET deleted_at = NOW() WHERE message_id = $1 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID uuid.UUID, params domain.PaginationParams) ([]domain.Message, int64, error) {
	params.Validate()

	var total int64
	countQuery := `SELECT COUNT(*) FROM messages WHERE chat_id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &total, countQuery, chatID); err != nil {
		return nil, 0, err
	}

	var messages []domain.Message
	query := `
		SELECT * FROM messages
		WHERE chat_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	err := r.db.SelectContext(ctx, &messages, query, chatID, params.PageSize, params.Offset())
	return messages, total, err
}
