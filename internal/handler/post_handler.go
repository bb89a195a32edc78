package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kumpul/internal/domain"
	"kumpul/internal/middleware"
	"kumpul/internal/service/post"
)

type PostHandler struct {
	postService post.Service
}

func NewPostHandler(postService post.Service) *PostHandler {
	return &PostHandler{postService: postService}
}

func mapPostError(err error) error {
	switch {
	case errors.Is(err, post.ErrPostNotFound):
		return middleware.NotFound("Post not found")
	case errors.Is(err, post.ErrNotOwner):
		return middleware.Forbidden("Insufficient permissions")
	case errors.Is(err, post.ErrInvalidMedia):
		return domain.NewValidationError("media_ids", err.Error())
	case errors.Is(err, post.ErrAlreadyLiked):
		return middleware.Conflict("Post already liked")
	case errors.Is(err, post.ErrNotLiked):
		return middleware.NotFound("Post not liked")
	case errors.Is(err, post.ErrAlreadyBookmark):
		return middleware.Conflict("Post already bookmarked")
	case errors.Is(err, post.ErrNotBookmarked):
		return middleware.NotFound("Post not bookmarked")
	}
	return err
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var input domain.CreatePostInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	p, err := h.postService.Create(c.UserContext(), userID, input)
	if err != nil {
		return mapPostError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	postID, err := uuidParam(c, "postId", "post")
	if err != nil {
		return err
	}

	p, err := h.postService.GetByID(c.UserContext(), userID, postID)
	if err != nil {
		return mapPostError(err)
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	postID, err := uuidParam(c, "postId", "post")
	if err != nil {
		return err
	}

	var input domain.UpdatePostInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	p, err := h.postService.Update(c.UserContext(), userID, postID, input)
	if err != nil {
		return mapPostError(err)
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	postID, err := uuidParam(c, "postId", "post")
	if err != nil {
		return err
	}

	if err := h.postService.Delete(c.UserContext(), userID, postID); err != nil {
		return mapPostError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) ListByAuthor(c *fiber.Ctx) error {
	viewerID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	authorID, err := uuidParam(c, "userId", "user")
	if err != nil {
		return err
	}

	result, err := h.postService.ListByAuthor(c.UserContext(), authorID, viewerID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) Feed(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	result, err := h.postService.Feed(c.UserContext(), userID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// pairAction runs a (user, post) engagement call and answers 204.
func (h *PostHandler) pairAction(c *fiber.Ctx, action func(ctx *fiber.Ctx, userID, postID uuid.UUID) error) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	postID, err := uuidParam(c, "postId", "post")
	if err != nil {
		return err
	}

	if err := action(c, userID, postID); err != nil {
		return mapPostError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) Like(c *fiber.Ctx) error {
	return h.pairAction(c, func(c *fiber.Ctx, userID, postID uuid.UUID) error {
		return h.postService.Like(c.UserContext(), userID, postID)
	})
}

func (h *PostHandler) Unlike(c *fiber.Ctx) error {
	return h.pairAction(c, func(c *fiber.Ctx, userID, postID uuid.UUID) error {
		return h.postService.Unlike(c.UserContext(), userID, postID)
	})
}

func (h *PostHandler) Bookmark(c *fiber.Ctx) error {
	return h.pairAction(c, func(c *fiber.Ctx, userID, postID uuid.UUID) error {
		return h.postService.Bookmark(c.UserContext(), userID, postID)
	})
}

func (h *PostHandler) Unbookmark(c *fiber.Ctx) error {
	return h.pairAction(c, func(c *fiber.Ctx, userID, postID uuid.UUID) error {
		return h.postService.Unbookmark(c.UserContext(), userID, postID)
	})
}

func (h *PostHandler) RecordView(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	postID, err := uuidParam(c, "postId", "post")
	if err != nil {
		return err
	}

	counted, err := h.postService.RecordView(c.UserContext(), userID, postID)
	if err != nil {
		return mapPostError(err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"counted": counted})
}

func (h *PostHandler) ListBookmarks(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	result, err := h.postService.ListBookmarked(c.UserContext(), userID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
