package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kumpul/internal/domain"
	"kumpul/internal/middleware"
	"kumpul/internal/service/comment"
)

type CommentHandler struct {
	commentService comment.Service
}

func NewCommentHandler(commentService comment.Service) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func mapCommentError(err error) error {
	switch {
	case errors.Is(err, comment.ErrPostNotFound):
		return middleware.NotFound("Post not found")
	case errors.Is(err, comment.ErrCommentNotFound):
		return middleware.NotFound("Comment not found")
	case errors.Is(err, comment.ErrNotOwner):
		return middleware.Forbidden("Insufficient permissions")
	case errors.Is(err, comment.ErrInvalidParent):
		return domain.NewValidationError("parent_id", err.Error())
	}
	return err
}

func (h *CommentHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	postID, err := uuidParam(c, "postId", "post")
	if err != nil {
		return err
	}

	var input domain.CreateCommentInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	created, err := h.commentService.Create(c.UserContext(), postID, userID, input)
	if err != nil {
		return mapCommentError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *CommentHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	postID, err := uuidParam(c, "postId", "post")
	if err != nil {
		return err
	}

	result, err := h.commentService.ListByPost(c.UserContext(), userID, postID, getPaginationParams(c))
	if err != nil {
		return mapCommentError(err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CommentHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	commentID, err := uuidParam(c, "commentId", "comment")
	if err != nil {
		return err
	}

	var input domain.UpdateCommentInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	updated, err := h.commentService.Update(c.UserContext(), userID, commentID, input)
	if err != nil {
		return mapCommentError(err)
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	commentID, err := uuidParam(c, "commentId", "comment")
	if err != nil {
		return err
	}

	if err := h.commentService.Delete(c.UserContext(), userID, commentID); err != nil {
		return mapCommentError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
