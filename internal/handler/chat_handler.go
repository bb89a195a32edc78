package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kumpul/internal/domain"
	"kumpul/internal/middleware"
	"kumpul/internal/service/chat"
)

type ChatHandler struct {
	chatService chat.Service
}

func NewChatHandler(chatService chat.Service) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func mapChatError(err error) error {
	switch {
	case errors.Is(err, chat.ErrChatNotFound):
		return middleware.NotFound("Chat not found")
	case errors.Is(err, chat.ErrMessageNotFound):
		return middleware.NotFound("Message not found")
	case errors.Is(err, chat.ErrNotMember):
		return middleware.Forbidden("You are not a member of this chat")
	case errors.Is(err, chat.ErrNotSender):
		return middleware.Forbidden("Insufficient permissions")
	case errors.Is(err, chat.ErrUserNotFound):
		return middleware.NotFound("Participant not found")
	case errors.Is(err, chat.ErrBlocked):
		return middleware.Forbidden("You cannot chat with this user")
	case errors.Is(err, chat.ErrInvalidParticipants), errors.Is(err, chat.ErrNoParticipants):
		return domain.NewValidationError("participant_ids", err.Error())
	case errors.Is(err, chat.ErrGroupNameRequired):
		return domain.NewValidationError("name", err.Error())
	}
	return err
}

func (h *ChatHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var input domain.CreateChatInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	created, err := h.chatService.CreateChat(c.UserContext(), userID, input)
	if err != nil {
		if errors.Is(err, chat.ErrChatExists) && created != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":    "CONFLICT",
				"message": "Direct chat already exists",
				"chat_id": created.ID,
			})
		}
		return mapChatError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *ChatHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	result, err := h.chatService.ListChats(c.UserContext(), userID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ChatHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	chatID, err := uuidParam(c, "chatId", "chat")
	if err != nil {
		return err
	}

	found, err := h.chatService.GetChat(c.UserContext(), userID, chatID)
	if err != nil {
		return mapChatError(err)
	}
	return c.Status(fiber.StatusOK).JSON(found)
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	chatID, err := uuidParam(c, "chatId", "chat")
	if err != nil {
		return err
	}

	result, err := h.chatService.ListMessages(c.UserContext(), userID, chatID, getPaginationParams(c))
	if err != nil {
		return mapChatError(err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	chatID, err := uuidParam(c, "chatId", "chat")
	if err != nil {
		return err
	}

	var input domain.SendMessageInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	msg, err := h.chatService.SendMessage(c.UserContext(), userID, chatID, input)
	if err != nil {
		return mapChatError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	messageID, err := uuidParam(c, "messageId", "message")
	if err != nil {
		return err
	}

	if err := h.chatService.DeleteMessage(c.UserContext(), userID, messageID); err != nil {
		return mapChatError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
