package notification

import (
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"kumpul/internal/domain"
	"kumpul/internal/pkg/i18n"
)

const previewLength = 80

var (
	localeMu sync.RWMutex
	locale   = i18n.FallbackLocale
)

// SetLocale picks the language notification text is rendered in.
// Unsupported locales are ignored.
func SetLocale(l string) {
	if !i18n.Supported(l) {
		return
	}
	localeMu.Lock()
	locale = l
	localeMu.Unlock()
}

func text(key string, args map[string]string) string {
	localeMu.RLock()
	l := locale
	localeMu.RUnlock()
	return i18n.Format(l, key, args)
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewLength]) + "…"
}

func entity(id uuid.UUID, entityType, link string) (*uuid.UUID, *string, *string) {
	return &id, &entityType, &link
}

// NewFollowInput notifies followeeID that follower started following them.
func NewFollowInput(follower *domain.User, followeeID uuid.UUID) domain.CreateNotificationInput {
	entityID, entityType, link := entity(follower.ID, "user", "/users/"+follower.Username)
	return domain.CreateNotificationInput{
		SenderID:    &follower.ID,
		ReceiverIDs: []uuid.UUID{followeeID},
		Title:       text("FOLLOW_TITLE", nil),
		Message:     text("FOLLOW_MESSAGE", map[string]string{"name": follower.DisplayName()}),
		Type:        domain.NotifFollow,
		EntityID:    entityID,
		EntityType:  entityType,
		Link:        link,
	}
}

// NewLikeInput is low priority so that bursts are collapsed by the batching
// pass.
func NewLikeInput(liker *domain.User, post *domain.Post) domain.CreateNotificationInput {
	entityID, entityType, link := entity(post.ID, "post", "/posts/"+post.ID.String())
	return domain.CreateNotificationInput{
		SenderID:    &liker.ID,
		ReceiverIDs: []uuid.UUID{post.AuthorID},
		Title:       text("LIKE_TITLE", nil),
		Message:     text("LIKE_MESSAGE", map[string]string{"name": liker.DisplayName()}),
		Type:        domain.NotifLike,
		Priority:    domain.PriorityLow,
		EntityID:    entityID,
		EntityType:  entityType,
		Link:        link,
	}
}

func NewCommentInput(author *domain.User, post *domain.Post, comment *domain.Comment) domain.CreateNotificationInput {
	entityID, entityType, link := entity(comment.ID, "comment", "/posts/"+post.ID.String()+"#comment-"+comment.ID.String())
	return domain.CreateNotificationInput{
		SenderID:    &author.ID,
		ReceiverIDs: []uuid.UUID{post.AuthorID},
		Title:       text("COMMENT_TITLE", nil),
		Message: text("COMMENT_MESSAGE", map[string]string{
			"name":    author.DisplayName(),
			"preview": preview(comment.Content),
		}),
		Type:       domain.NotifComment,
		Priority:   domain.PriorityMedium,
		EntityID:   entityID,
		EntityType: entityType,
		Link:       link,
	}
}

func NewMentionInput(author *domain.User, mentioned []uuid.UUID, comment *domain.Comment) domain.CreateNotificationInput {
	entityID, entityType, link := entity(comment.ID, "comment", "/posts/"+comment.PostID.String()+"#comment-"+comment.ID.String())
	return domain.CreateNotificationInput{
		SenderID:    &author.ID,
		ReceiverIDs: mentioned,
		Title:       text("MENTION_TITLE", nil),
		Message: text("MENTION_MESSAGE", map[string]string{
			"name":    author.DisplayName(),
			"preview": preview(comment.Content),
		}),
		Type:       domain.NotifMention,
		Priority:   domain.PriorityMedium,
		EntityID:   entityID,
		EntityType: entityType,
		Link:       link,
	}
}

func NewMessageInput(sender *domain.User, msg *domain.Message, receivers []uuid.UUID) domain.CreateNotificationInput {
	entityID, entityType, link := entity(msg.ChatID, "chat", "/chats/"+msg.ChatID.String())
	return domain.CreateNotificationInput{
		SenderID:    &sender.ID,
		ReceiverIDs: receivers,
		Title:       text("MESSAGE_TITLE", map[string]string{"name": sender.DisplayName()}),
		Message:     text("MESSAGE_MESSAGE", map[string]string{"preview": preview(msg.Content)}),
		Type:        domain.NotifMessage,
		Priority:    domain.PriorityHigh,
		EntityID:    entityID,
		EntityType:  entityType,
		Link:        link,
	}
}

// Summary stands in for count pending notifications of one type.
func Summary(t domain.NotificationType, count int) domain.NotificationSummary {
	args := map[string]string{"count": strconv.Itoa(count), "type": string(t)}
	return domain.NotificationSummary{
		Type:    t,
		Count:   count,
		Title:   text("SUMMARY_TITLE", args),
		Message: text("SUMMARY_MESSAGE", args),
	}
}
