package handler

import (
	"github.com/gofiber/fiber/v2"

	"prodfind/internal/middleware"
	"prodfind/internal/service/relation"
)

// RelationHandler serves bookmarks and recommendations. statusKey names the
// boolean in status responses.
type RelationHandler struct {
	relationService relation.Service
	statusKey       string
}

func NewRelationHandler(relationService relation.Service, statusKey string) *RelationHandler {
	return &RelationHandler{relationService: relationService, statusKey: statusKey}
}

func (h *RelationHandler) Add(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	if err := h.relationService.Add(c.Context(), user, productID); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *RelationHandler) Remove(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	if err := h.relationService.Remove(c.Context(), user, productID); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *RelationHandler) Status(c *fiber.Ctx) error {
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	marked, err := h.relationService.Status(c.Context(), middleware.GetCurrentUser(c), productID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{h.statusKey: marked})
}

func (h *RelationHandler) ListProducts(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	products, err := h.relationService.ListProducts(c.Context(), user)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(products)
}
