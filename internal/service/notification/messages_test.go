package notification_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"kumpul/internal/domain"
	"kumpul/internal/service/notification"
)

func TestMessageBuilders(t *testing.T) {
	ana := &domain.User{ID: uuid.New(), Username: "ana"}
	post := &domain.Post{ID: uuid.New(), AuthorID: uuid.New()}

	t.Run("Follow defaults to medium", func(t *testing.T) {
		in := notification.NewFollowInput(ana, post.AuthorID)
		normalized, err := in.Normalize()

		assert.NoError(t, err)
		assert.Equal(t, domain.PriorityMedium, normalized.Priority)
		assert.Equal(t, "ana started following you.", in.Message)
		assert.Equal(t, "/users/ana", *in.Link)
	})

	t.Run("Like is low priority", func(t *testing.T) {
		in := notification.NewLikeInput(ana, post)
		assert.Equal(t, domain.PriorityLow, in.Priority)
		assert.Equal(t, []uuid.UUID{post.AuthorID}, in.ReceiverIDs)
		assert.Equal(t, post.ID, *in.EntityID)
	})

	t.Run("Long comments are previewed", func(t *testing.T) {
		comment := &domain.Comment{ID: uuid.New(), PostID: post.ID, Content: strings.Repeat("x", 200)}
		in := notification.NewCommentInput(ana, post, comment)
		assert.Less(t, len(in.Message), 200)
		assert.True(t, strings.HasSuffix(in.Message, "…"))
	})

	t.Run("Message is high priority", func(t *testing.T) {
		msg := &domain.Message{ChatID: uuid.New(), Content: "Hello"}
		in := notification.NewMessageInput(ana, msg, []uuid.UUID{uuid.New()})
		assert.Equal(t, domain.PriorityHigh, in.Priority)
		assert.Equal(t, "Hello", in.Message)
		assert.Equal(t, "New message from ana", in.Title)
	})

	t.Run("Summary text", func(t *testing.T) {
		s := notification.Summary(domain.NotifComment, 12)
		assert.Equal(t, "You have 12 new comments", s.Message)
	})

	t.Run("Locale switch", func(t *testing.T) {
		notification.SetLocale("id")
		defer notification.SetLocale("en")

		assert.Equal(t, "ana mulai mengikuti Anda.", notification.NewFollowInput(ana, post.AuthorID).Message)

		notification.SetLocale("zz")
		assert.Equal(t, "ana mulai mengikuti Anda.", notification.NewFollowInput(ana, post.AuthorID).Message)
	})
}
