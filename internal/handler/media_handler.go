package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kumpul/internal/middleware"
	"kumpul/internal/service/media"
)

type MediaHandler struct {
	mediaService media.Service
}

func NewMediaHandler(mediaService media.Service) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// formUpload opens the multipart "file" field. The returned func closes it.
func formUpload(c *fiber.Ctx) (media.Upload, func(), error) {
	file, err := c.FormFile("file")
	if err != nil {
		return media.Upload{}, nil, middleware.BadRequest("File is required")
	}

	mimeType := file.Header.Get(fiber.HeaderContentType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	f, err := file.Open()
	if err != nil {
		return media.Upload{}, nil, middleware.BadRequest("Failed to read file")
	}

	return media.Upload{
		FileName: file.Filename,
		Size:     file.Size,
		MimeType: mimeType,
		Reader:   f,
	}, func() { _ = f.Close() }, nil
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	upload, closeFile, err := formUpload(c)
	if err != nil {
		return err
	}
	defer closeFile()

	item, err := h.mediaService.Upload(c.UserContext(), userID, upload)
	if err != nil {
		if mapped := mapMediaError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *MediaHandler) Get(c *fiber.Ctx) error {
	id, err := uuidParam(c, "mediaId", "media")
	if err != nil {
		return err
	}

	item, err := h.mediaService.GetByID(c.UserContext(), id)
	if err != nil {
		if mapped := mapMediaError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return c.Status(fiber.StatusOK).JSON(item)
}

func (h *MediaHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "mediaId", "media")
	if err != nil {
		return err
	}

	if err := h.mediaService.Delete(c.UserContext(), userID, id); err != nil {
		if mapped := mapMediaError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// mapMediaError returns nil for errors it does not recognize.
func mapMediaError(err error) error {
	switch {
	case errors.Is(err, media.ErrMediaNotFound):
		return middleware.NotFound("Media not found")
	case errors.Is(err, media.ErrNotOwner):
		return middleware.Forbidden("Insufficient permissions")
	case errors.Is(err, media.ErrUnsupportedType):
		return middleware.BadRequest("Unsupported file type")
	case errors.Is(err, media.ErrFileTooLarge):
		return middleware.BadRequest("File must be between 1 byte and 20MB")
	case errors.Is(err, media.ErrStorageDisabled):
		return middleware.Unavailable("Media storage is unavailable")
	}
	return nil
}
