package handler

import (
	"github.com/gofiber/fiber/v2"

	"prodfind/internal/domain"
	"prodfind/internal/middleware"
	"prodfind/internal/service/user"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	current, err := requireUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"user":         current,
		"has_password": current.HasPassword(),
	})
}

func (h *UserHandler) AddPassword(c *fiber.Ctx) error {
	current, err := requireUser(c)
	if err != nil {
		return err
	}

	var input domain.SetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.userService.AddPassword(c.Context(), current, input); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *UserHandler) ListPasskeys(c *fiber.Ctx) error {
	current, err := requireUser(c)
	if err != nil {
		return err
	}

	passkeys, err := h.userService.ListPasskeys(c.Context(), current)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(passkeys)
}

func (h *UserHandler) DeletePasskey(c *fiber.Ctx) error {
	current, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.userService.DeletePasskey(c.Context(), current, c.Params("credentialId")); err != nil {
		return err
	}

	return c.Status(fiber.StatusNoContent).SendString("")
}
