package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"kumpul/internal/domain"
	"kumpul/internal/realtime"
	"kumpul/internal/repository"
	"kumpul/internal/service/notification"
)

var (
	ErrChatNotFound        = errors.New("chat not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrNotMember           = errors.New("not a member of this chat")
	ErrNotSender           = errors.New("insufficient permissions")
	ErrUserNotFound        = errors.New("participant not found")
	ErrBlocked             = errors.New("cannot chat with this user")
	ErrChatExists          = errors.New("direct chat already exists")
	ErrInvalidParticipants = errors.New("a direct chat needs exactly one other participant")
	ErrNoParticipants      = errors.New("a chat needs at least one other participant")
	ErrGroupNameRequired   = errors.New("group chats need a name")
)

type Service interface {
	// CreateChat returns the existing chat together with ErrChatExists when
	// a direct chat between the pair is already open.
	CreateChat(ctx context.Context, creatorID uuid.UUID, input domain.CreateChatInput) (*domain.Chat, error)
	SendMessage(ctx context.Context, senderID, chatID uuid.UUID, input domain.SendMessageInput) (*domain.Message, error)
	ListChats(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Chat], error)
	GetChat(ctx context.Context, userID, chatID uuid.UUID) (*domain.Chat, error)
	ListMessages(ctx context.Context, userID, chatID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Message], error)
	DeleteMessage(ctx context.Context, userID, messageID uuid.UUID) error
}

type service struct {
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	blockRepo   repository.BlockRepository
	pusher      realtime.Pusher
	notifier    notification.Emitter
	log         *slog.Logger
}

func NewService(
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	blockRepo repository.BlockRepository,
	pusher realtime.Pusher,
	notifier notification.Emitter,
	log *slog.Logger,
) Service {
	return &service{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		blockRepo:   blockRepo,
		pusher:      pusher,
		notifier:    notifier,
		log:         log,
	}
}

func (s *service) CreateChat(ctx context.Context, creatorID uuid.UUID, input domain.CreateChatInput) (*domain.Chat, error) {
	participants := dedupe(creatorID, input.ParticipantIDs)

	chat := &domain.Chat{
		ID:        uuid.New(),
		IsGroup:   input.IsGroup,
		CreatedBy: creatorID,
	}

	if input.IsGroup {
		if len(participants) == 0 {
			return nil, ErrNoParticipants
		}
		if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
			return nil, ErrGroupNameRequired
		}
		name := strings.TrimSpace(*input.Name)
		chat.Name = &name
	} else if len(participants) != 1 {
		return nil, ErrInvalidParticipants
	}

	users, err := s.userRepo.GetByIDs(ctx, participants)
	if err != nil {
		return nil, err
	}
	if len(users) != len(participants) {
		return nil, ErrUserNotFound
	}

	blocked, err := s.blockRepo.BlockedAmong(ctx, creatorID, participants)
	if err != nil {
		return nil, err
	}
	if len(blocked) > 0 {
		return nil, ErrBlocked
	}

	if !input.IsGroup {
		key := domain.DirectChatKey(creatorID, participants[0])
		existing, err := s.chatRepo.GetDirect(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, ErrChatExists
		}
		chat.DirectKey = &key
	}

	var first *domain.Message
	if input.FirstMessage != nil && strings.TrimSpace(*input.FirstMessage) != "" {
		first = &domain.Message{
			ID:       uuid.New(),
			ChatID:   chat.ID,
			SenderID: creatorID,
			Content:  *input.FirstMessage,
		}
	}

	members := append([]uuid.UUID{creatorID}, participants...)
	if err := s.chatRepo.Create(ctx, chat, members, first); err != nil {
		if errors.Is(err, repository.ErrDuplicate) && chat.DirectKey != nil {
			// lost a race with the other side opening the same chat
			existing, getErr := s.chatRepo.GetDirect(ctx, *chat.DirectKey)
			if getErr == nil && existing != nil {
				return existing, ErrChatExists
			}
		}
		return nil, err
	}

	created, err := s.chatRepo.GetByID(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = chat
	}

	if first != nil {
		created.LastMessage = first
		s.deliver(ctx, created, first)
	}
	return created, nil
}

func dedupe(creatorID uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == creatorID || id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *service) memberChat(ctx context.Context, userID, chatID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.HasMember(userID) {
		return nil, ErrNotMember
	}
	return chat, nil
}

func (s *service) SendMessage(ctx context.Context, senderID, chatID uuid.UUID, input domain.SendMessageInput) (*domain.Message, error) {
	chat, err := s.memberChat(ctx, senderID, chatID)
	if err != nil {
		return nil, err
	}

	if !chat.IsGroup {
		for _, memberID := range chat.MemberIDs() {
			if memberID == senderID {
				continue
			}
			blocked, err := s.blockRepo.IsBlockedEither(ctx, senderID, memberID)
			if err != nil {
				return nil, err
			}
			if blocked {
				return nil, ErrBlocked
			}
		}
	}

	msg := &domain.Message{
		ID:       uuid.New(),
		ChatID:   chatID,
		SenderID: senderID,
		Content:  input.Content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.deliver(ctx, chat, msg)
	return msg, nil
}

// deliver runs after the message is committed. It pushes the message to
// every online member and emits one notification for the other members.
func (s *service) deliver(ctx context.Context, chat *domain.Chat, msg *domain.Message) {
	event := realtime.Event{Type: realtime.EventMessage, Data: msg}

	receivers := make([]uuid.UUID, 0, len(chat.Members))
	for _, memberID := range chat.MemberIDs() {
		if _, err := s.pusher.Push(memberID, event); err != nil {
			s.log.WarnContext(ctx, "Failed to push message",
				slog.String("chat_id", chat.ID.String()),
				slog.String("user_id", memberID.String()),
				slog.Any("error", err))
		}
		if memberID != msg.SenderID {
			receivers = append(receivers, memberID)
		}
	}
	if len(receivers) == 0 {
		return
	}

	sender, err := s.userRepo.GetByID(ctx, msg.SenderID)
	if err != nil || sender == nil {
		s.log.WarnContext(ctx, "Skipping message notification, sender not loaded",
			slog.String("user_id", msg.SenderID.String()), slog.Any("error", err))
		return
	}
	s.notifier.Emit(ctx, notification.NewMessageInput(sender, msg, receivers))
}

func (s *service) ListChats(ctx context.Context, userID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Chat], error) {
	params.Validate()

	chats, total, err := s.chatRepo.ListByMember(ctx, userID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Chat]{}, err
	}
	return domain.NewPaginatedResponse(chats, params.Page, params.PageSize, total), nil
}

func (s *service) GetChat(ctx context.Context, userID, chatID uuid.UUID) (*domain.Chat, error) {
	return s.memberChat(ctx, userID, chatID)
}

func (s *service) ListMessages(ctx context.Context, userID, chatID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.Message], error) {
	params.Validate()

	if _, err := s.memberChat(ctx, userID, chatID); err != nil {
		return domain.PaginatedResponse[domain.Message]{}, err
	}

	messages, total, err := s.messageRepo.ListByChat(ctx, chatID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Message]{}, err
	}
	return domain.NewPaginatedResponse(messages, params.Page, params.PageSize, total), nil
}

func (s *service) DeleteMessage(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return ErrNotSender
	}
	return s.messageRepo.Delete(ctx, messageID)
}
