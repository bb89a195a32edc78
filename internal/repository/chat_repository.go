package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kumpul/internal/domain"
)

type ChatRepository interface {
	// Create inserts the chat, its members and the optional first message in
	// one transaction. A second direct chat for the same pair returns
	// ErrDuplicate.
	Create(ctx context.Context, chat *domain.Chat, memberIDs []uuid.UUID, first *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error)
	GetDirect(ctx context.Context, directKey string) (*domain.Chat, error)
	ListByMember(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Chat, int64, error)
}

type chatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) ChatRepository {
	return &chatRepository{db: db}
}

type memberRow struct {
	ChatID    uuid.UUID `db:"chat_id"`
	UserID    uuid.UUID `db:"user_id"`
	JoinedAt  time.Time `db:"joined_at"`
	Username  string    `db:"username"`
	FullName  string    `db:"full_name"`
	AvatarURL *string   `db:"avatar_url"`
}

func (r *chatRepository) Create(ctx context.Context, chat *domain.Chat, memberIDs []uuid.UUID, first *domain.Message) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO chats (chat_id, name, is_group, direct_key, created_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`,
			chat.ID, chat.Name, chat.IsGroup, chat.DirectKey, chat.CreatedBy,
		).Scan(&chat.CreatedAt, &chat.UpdatedAt)
		if err != nil {
			return err
		}

		chat.Members = make([]domain.ChatMember, 0, len(memberIDs))
		for _, userID := range memberIDs {
			member := domain.ChatMember{ChatID: chat.ID, UserID: userID}
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO chat_members (chat_id, user_id)
				VALUES ($1, $2)
				RETURNING joined_at`, chat.ID, userID,
			).Scan(&member.JoinedAt)
			if err != nil {
				return err
			}
			chat.Members = append(chat.Members, member)
		}

		if first == nil {
			return nil
		}
		first.ChatID = chat.ID
		if err := insertMessage(ctx, tx, first); err != nil {
			return err
		}
		chat.LastMessage = first
		return nil
	})
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *chatRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	return r.getOne(ctx, `SELECT * FROM chats WHERE chat_id = $1`, id)
}

func (r *chatRepository) GetDirect(ctx context.Context, directKey string) (*domain.Chat, error) {
	return r.getOne(ctx, `SELECT * FROM chats WHERE direct_key = $1`, directKey)
}

func (r *chatRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Chat, error) {
	var chat domain.Chat
	if err := r.db.GetContext(ctx, &chat, query, arg); err != nil {
		return nil, notFoundAsNil(err)
	}

	chats := []domain.Chat{chat}
	if err := r.attachMembers(ctx, chats); err != nil {
		return nil, err
	}
	return &chats[0], nil
}

func (r *chatRepository) ListByMember(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) ([]domain.Chat, int64, error) {
	params.Validate()

	var total int64
	countQuery := `SELECT COUNT(*) FROM chat_members WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, err
	}

	var chats []domain.Chat
	query := `
		SELECT c.* FROM chats c
		INNER JOIN chat_members m ON m.chat_id = c.chat_id
		WHERE m.user_id = $1
		ORDER BY c.updated_at DESC
		LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &chats, query, userID, params.PageSize, params.Offset()); err != nil {
		return nil, 0, err
	}

	if err := r.attachMembers(ctx, chats); err != nil {
		return nil, 0, err
	}
	if err := r.attachLastMessages(ctx, chats); err != nil {
		return nil, 0, err
	}
	return chats, total, nil
}

func (r *chatRepository) attachMembers(ctx context.Context, chats []domain.Chat) error {
	if len(chats) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(chats))
	index := make(map[uuid.UUID]int, len(chats))
	for i, c := range chats {
		ids[i] = c.ID
		index[c.ID] = i
	}

	var rows []memberRow
	query := `
		SELECT m.chat_id, m.user_id, m.joined_at, u.username, u.full_name, u.avatar_url
		FROM chat_members m
		INNER JOIN users u ON u.user_id = m.user_id
		WHERE m.chat_id = ANY($1::uuid[])
		ORDER BY m.joined_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(ids)); err != nil {
		return err
	}

	for _, row := range rows {
		i := index[row.ChatID]
		chats[i].Members = append(chats[i].Members, domain.ChatMember{
			ChatID:   row.ChatID,
			UserID:   row.UserID,
			JoinedAt: row.JoinedAt,
			User: &domain.UserSummary{
				ID:        row.UserID,
				Username:  row.Username,
				FullName:  row.FullName,
				AvatarURL: row.AvatarURL,
			},
		})
	}
	return nil
}

func (r *chatRepository) attachLastMessages(ctx context.Context, chats []domain.Chat) error {
	if len(chats) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(chats))
	index := make(map[uuid.UUID]int, len(chats))
	for i, c := range chats {
		ids[i] = c.ID
		index[c.ID] = i
	}

	var messages []domain.Message
	query := `
		SELECT DISTINCT ON (chat_id) *
		FROM messages
		WHERE chat_id = ANY($1::uuid[]) AND deleted_at IS NULL
		ORDER BY chat_id, created_at DESC`
	if err := r.db.SelectContext(ctx, &messages, query, uuidArray(ids)); err != nil {
		return err
	}

	for i := range messages {
		msg := messages[i]
		chats[index[msg.ChatID]].LastMessage = &msg
	}
	return nil
}
