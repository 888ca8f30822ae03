package handler

import (
	"github.com/gofiber/fiber/v2"

	"prodfind/internal/domain"
	"prodfind/internal/middleware"
	"prodfind/internal/service/moderation"
	"prodfind/internal/service/notification"
)

type NotificationHandler struct {
	notifService      notification.Service
	moderationService moderation.Service
}

func NewNotificationHandler(notifService notification.Service, moderationService moderation.Service) *NotificationHandler {
	return &NotificationHandler{
		notifService:      notifService,
		moderationService: moderationService,
	}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	unreadOnly := c.QueryBool("unread_only", false)
	params := getPaginationParams(c)

	result, err := h.notifService.List(c.Context(), user.ID, unreadOnly, params)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	count, err := h.notifService.GetUnreadCount(c.Context(), user.ID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	notificationID, err := parseIDParam(c, "id", "notification")
	if err != nil {
		return err
	}

	if err := h.notifService.MarkAsRead(c.Context(), notificationID, user.ID); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	updated, err := h.notifService.MarkAllAsRead(c.Context(), user.ID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "updated": updated})
}

// Appeal submits the author's appeal against a product_removed notification.
func (h *NotificationHandler) Appeal(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	notificationID, err := parseIDParam(c, "id", "notification")
	if err != nil {
		return err
	}

	var input domain.AppealInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if _, err := h.moderationService.SubmitAppeal(c.Context(), user, middleware.GetRequestMeta(c), notificationID, input); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
