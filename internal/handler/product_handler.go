package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"prodfind/internal/domain"
	"prodfind/internal/middleware"
	"prodfind/internal/service/product"
)

type ProductHandler struct {
	productService product.Service
}

func NewProductHandler(productService product.Service) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List serves anonymous and signed-in viewers. A user_id query lists every
// live product of that author regardless of visibility.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var filter domain.ProductFilter
	if raw := c.Query("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return middleware.BadRequest("Invalid user ID")
		}
		filter.UserID = &userID
	}

	products, err := h.productService.List(c.Context(), middleware.GetCurrentUser(c), filter)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(products)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	product, err := h.productService.Get(c.Context(), middleware.GetCurrentUser(c), productID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	var input domain.CreateProductInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	product, err := h.productService.Create(c.Context(), user, middleware.GetRequestMeta(c), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	var input domain.UpdateProductInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.productService.Update(c.Context(), user, middleware.GetRequestMeta(c), productID, input); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	if err := h.productService.Delete(c.Context(), user, productID); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
