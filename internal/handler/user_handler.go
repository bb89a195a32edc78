package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kumpul/internal/domain"
	"kumpul/internal/middleware"
	"kumpul/internal/service/user"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	u, err := h.userService.GetByID(c.UserContext(), userID)
	if err != nil {
		return mapUserError(err)
	}
	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	viewerID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	profile, err := h.userService.GetProfile(c.UserContext(), viewerID, c.Params("username"))
	if err != nil {
		return mapUserError(err)
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	result, err := h.userService.Search(c.UserContext(), c.Query("q"), getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var input domain.UpdateUserInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	u, err := h.userService.Update(c.UserContext(), userID, input)
	if err != nil {
		return mapUserError(err)
	}
	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	upload, closeFile, err := formUpload(c)
	if err != nil {
		return err
	}
	defer closeFile()

	u, err := h.userService.UploadAvatar(c.UserContext(), userID, upload)
	if err != nil {
		if mapped := mapMediaError(err); mapped != nil {
			return mapped
		}
		return mapUserError(err)
	}
	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.userService.Delete(c.UserContext(), userID); err != nil {
		return mapUserError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapUserError(err error) error {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return middleware.NotFound("User not found")
	case errors.Is(err, user.ErrUsernameExists):
		return middleware.Conflict("Username already taken")
	case errors.Is(err, user.ErrEmailExists):
		return middleware.Conflict("Email already in use")
	case errors.Is(err, user.ErrInvalidUsername):
		return domain.NewValidationError("username", err.Error())
	}
	return err
}
