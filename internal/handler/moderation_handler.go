package handler

import (
	"github.com/gofiber/fiber/v2"

	"prodfind/internal/domain"
	"prodfind/internal/middleware"
	"prodfind/internal/service/moderation"
)

type ModerationHandler struct {
	moderationService moderation.Service
}

func NewModerationHandler(moderationService moderation.Service) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

func (h *ModerationHandler) RemoveProduct(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	var input domain.RemoveProductInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return middleware.BadRequest("Invalid request body")
		}
	}

	product, err := h.moderationService.RemoveProduct(c.Context(), user, middleware.GetRequestMeta(c), productID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "product": product})
}

func (h *ModerationHandler) RestoreProduct(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	product, err := h.moderationService.RestoreProduct(c.Context(), user, middleware.GetRequestMeta(c), productID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "product": product})
}

func (h *ModerationHandler) RejectAppeal(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	notificationID, err := parseIDParam(c, "notificationId", "notification")
	if err != nil {
		return err
	}

	var input domain.RejectAppealInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return middleware.BadRequest("Invalid request body")
		}
	}

	notification, err := h.moderationService.RejectAppeal(c.Context(), user, middleware.GetRequestMeta(c), notificationID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "notification": notification})
}

func (h *ModerationHandler) ListAppealed(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	appeals, err := h.moderationService.ListAppealed(c.Context(), user)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(appeals)
}
