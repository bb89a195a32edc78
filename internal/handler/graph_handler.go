package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kumpul/internal/middleware"
	"kumpul/internal/service/block"
	"kumpul/internal/service/follow"
)

// GraphHandler serves follow and block edges.
type GraphHandler struct {
	followService follow.Service
	blockService  block.Service
}

func NewGraphHandler(followService follow.Service, blockService block.Service) *GraphHandler {
	return &GraphHandler{followService: followService, blockService: blockService}
}

func (h *GraphHandler) Follow(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	targetID, err := uuidParam(c, "userId", "user")
	if err != nil {
		return err
	}

	if err := h.followService.Follow(c.UserContext(), userID, targetID); err != nil {
		switch {
		case errors.Is(err, follow.ErrCannotFollowSelf):
			return middleware.BadRequest("You cannot follow yourself")
		case errors.Is(err, follow.ErrUserNotFound):
			return middleware.NotFound("User not found")
		case errors.Is(err, follow.ErrBlocked):
			return middleware.Forbidden("You cannot follow this user")
		case errors.Is(err, follow.ErrAlreadyFollowing):
			return middleware.Conflict("Already following this user")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *GraphHandler) Unfollow(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	targetID, err := uuidParam(c, "userId", "user")
	if err != nil {
		return err
	}

	if err := h.followService.Unfollow(c.UserContext(), userID, targetID); err != nil {
		if errors.Is(err, follow.ErrNotFollowing) {
			return middleware.NotFound("Not following this user")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *GraphHandler) ListFollowers(c *fiber.Ctx) error {
	targetID, err := uuidParam(c, "userId", "user")
	if err != nil {
		return err
	}

	result, err := h.followService.ListFollowers(c.UserContext(), targetID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *GraphHandler) ListFollowing(c *fiber.Ctx) error {
	targetID, err := uuidParam(c, "userId", "user")
	if err != nil {
		return err
	}

	result, err := h.followService.ListFollowing(c.UserContext(), targetID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *GraphHandler) Block(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	targetID, err := uuidParam(c, "userId", "user")
	if err != nil {
		return err
	}

	if err := h.blockService.Block(c.UserContext(), userID, targetID); err != nil {
		switch {
		case errors.Is(err, block.ErrCannotBlockSelf):
			return middleware.BadRequest("You cannot block yourself")
		case errors.Is(err, block.ErrUserNotFound):
			return middleware.NotFound("User not found")
		case errors.Is(err, block.ErrAlreadyBlocked):
			return middleware.Conflict("User already blocked")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *GraphHandler) Unblock(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	targetID, err := uuidParam(c, "userId", "user")
	if err != nil {
		return err
	}

	if err := h.blockService.Unblock(c.UserContext(), userID, targetID); err != nil {
		if errors.Is(err, block.ErrNotBlocked) {
			return middleware.NotFound("User is not blocked")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *GraphHandler) ListBlocked(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	result, err := h.blockService.ListBlocked(c.UserContext(), userID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
