package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"prodfind/internal/domain"
	"prodfind/internal/middleware"
	"prodfind/internal/service/media"
)

type MediaHandler struct {
	mediaService media.Service
}

func NewMediaHandler(mediaService media.Service) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// Upload stores a product image, or the product icon when kind=icon.
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return middleware.BadRequest("File is required")
	}

	kind := domain.MediaKind(c.FormValue("kind", string(domain.MediaKindImage)))

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	fileReader, err := file.Open()
	if err != nil {
		return middleware.BadRequest("Failed to read file")
	}
	defer fileReader.Close()

	uploaded, err := h.mediaService.UploadProductImage(c.Context(), user, productID, kind, media.Upload{
		FileName: file.Filename,
		Size:     file.Size,
		MimeType: mimeType,
		Reader:   fileReader,
	})
	if errors.Is(err, media.ErrStorageUnavailable) {
		return middleware.NewError(fiber.StatusServiceUnavailable, "Media upload is not available")
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(uploaded)
}
