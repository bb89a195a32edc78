package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kumpul/internal/domain"
	"kumpul/internal/handler"
	"kumpul/internal/middleware"
	"kumpul/internal/service/chat"
)

type stubChatService struct {
	chat.Service
	chat *domain.Chat
	err  error
	got  domain.CreateChatInput
}

func (s *stubChatService) CreateChat(_ context.Context, _ uuid.UUID, input domain.CreateChatInput) (*domain.Chat, error) {
	s.got = input
	return s.chat, s.err
}

func newChatApp(svc chat.Service, userID uuid.UUID) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(nil)})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDContextKey, userID)
		return c.Next()
	})
	app.Post("/chats", handler.NewChatHandler(svc).Create)
	return app
}

func postJSON(t *testing.T, app *fiber.App, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, "/chats", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestChatHandler_Create(t *testing.T) {
	userID := uuid.New()
	other := uuid.New()

	t.Run("Missing participants is a validation error", func(t *testing.T) {
		app := newChatApp(&stubChatService{}, userID)

		status, body := postJSON(t, app, `{}`)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, "VALIDATION_ERROR", body["code"])
		assert.Equal(t, "participant_ids", body["field"])
	})

	t.Run("Malformed json", func(t *testing.T) {
		app := newChatApp(&stubChatService{}, userID)

		status, body := postJSON(t, app, `{`)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "BAD_REQUEST", body["code"])
	})

	t.Run("Created", func(t *testing.T) {
		svc := &stubChatService{chat: &domain.Chat{ID: uuid.New()}}
		app := newChatApp(svc, userID)

		status, _ := postJSON(t, app, `{"participant_ids":["`+other.String()+`"]}`)
		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, []uuid.UUID{other}, svc.got.ParticipantIDs)
	})

	t.Run("Existing direct chat returns its id", func(t *testing.T) {
		existing := &domain.Chat{ID: uuid.New()}
		app := newChatApp(&stubChatService{chat: existing, err: chat.ErrChatExists}, userID)

		status, body := postJSON(t, app, `{"participant_ids":["`+other.String()+`"]}`)
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, existing.ID.String(), body["chat_id"])
	})

	t.Run("Blocked", func(t *testing.T) {
		app := newChatApp(&stubChatService{err: chat.ErrBlocked}, userID)

		status, body := postJSON(t, app, `{"participant_ids":["`+other.String()+`"]}`)
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, "FORBIDDEN", body["code"])
	})

	t.Run("Group without name", func(t *testing.T) {
		app := newChatApp(&stubChatService{err: chat.ErrGroupNameRequired}, userID)

		status, body := postJSON(t, app, `{"participant_ids":["`+other.String()+`"],"is_group":true}`)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, "name", body["field"])
	})
}
