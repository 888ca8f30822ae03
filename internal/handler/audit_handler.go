package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"prodfind/internal/middleware"
	"prodfind/internal/service/audit"
)

type AuditHandler struct {
	auditService audit.Service
}

func NewAuditHandler(auditService audit.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	params := getPaginationParams(c)

	if raw := c.Query("product_id"); raw != "" {
		productID, err := uuid.Parse(raw)
		if err != nil {
			return middleware.BadRequest("Invalid product ID")
		}
		logs, err := h.auditService.ListForProduct(c.Context(), productID, params)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusOK).JSON(logs)
	}

	logs, err := h.auditService.List(c.Context(), params)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(logs)
}
