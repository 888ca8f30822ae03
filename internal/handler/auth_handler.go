package handler

import (
	"github.com/gofiber/fiber/v2"

	"prodfind/internal/domain"
	"prodfind/internal/middleware"
	"prodfind/internal/service/auth"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type refreshTokenInput struct {
	RefreshToken string `json:"refresh_token"`
}

func tokenResponse(user *domain.User, tokens *domain.TokenPair) fiber.Map {
	return fiber.Map{
		"user":          user,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input domain.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user, tokens, err := h.authService.Register(c.Context(), middleware.GetRequestMeta(c), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(tokenResponse(user, tokens))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user, tokens, err := h.authService.Login(c.Context(), middleware.GetRequestMeta(c), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tokenResponse(user, tokens))
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var input refreshTokenInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	tokens, err := h.authService.RefreshToken(c.Context(), middleware.GetRequestMeta(c), input.RefreshToken)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input refreshTokenInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.authService.Logout(c.Context(), input.RefreshToken); err != nil {
		return err
	}

	return c.Status(fiber.StatusNoContent).SendString("")
}

func (h *AuthHandler) BeginPasskeyRegistration(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	resp, err := h.authService.BeginPasskeyRegistration(c.Context(), user)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) FinishPasskeyRegistration(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	var input domain.FinishPasskeyInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	credential, err := h.authService.FinishPasskeyRegistration(c.Context(), user, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(credential)
}

func (h *AuthHandler) BeginPasskeyLogin(c *fiber.Ctx) error {
	resp, err := h.authService.BeginPasskeyLogin(c.Context())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) FinishPasskeyLogin(c *fiber.Ctx) error {
	var input domain.FinishPasskeyInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.authService.FinishPasskeyLogin(c.Context(), middleware.GetRequestMeta(c), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tokenResponse(result.User, result.Tokens))
}
