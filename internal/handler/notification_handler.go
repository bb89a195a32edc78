package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kumpul/internal/domain"
	"kumpul/internal/middleware"
	"kumpul/internal/service/notification"
)

type NotificationHandler struct {
	notifService notification.Service
}

func NewNotificationHandler(notifService notification.Service) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	unreadOnly := c.QueryBool("unread_only", false)

	result, err := h.notifService.List(c.UserContext(), userID, unreadOnly, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	count, err := h.notifService.GetUnreadCount(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

func (h *NotificationHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	notifID, err := uuidParam(c, "id", "notification")
	if err != nil {
		return err
	}

	notif, err := h.notifService.GetByID(c.UserContext(), userID, notifID)
	if err != nil {
		return mapNotificationError(err)
	}
	return c.Status(fiber.StatusOK).JSON(notif)
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	notifID, err := uuidParam(c, "id", "notification")
	if err != nil {
		return err
	}

	notif, err := h.notifService.MarkAsRead(c.UserContext(), userID, notifID)
	if err != nil {
		return mapNotificationError(err)
	}
	return c.Status(fiber.StatusOK).JSON(notif)
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	updated, err := h.notifService.MarkAllAsRead(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"updated": updated,
	})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	notifID, err := uuidParam(c, "id", "notification")
	if err != nil {
		return err
	}

	if err := h.notifService.Delete(c.UserContext(), userID, notifID); err != nil {
		return mapNotificationError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapNotificationError(err error) error {
	if errors.Is(err, notification.ErrNotificationNotFound) || errors.Is(err, domain.ErrNotificationDeleted) {
		return middleware.NotFound("Notification not found")
	}
	return err
}
