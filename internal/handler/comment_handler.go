package handler

import (
	"github.com/gofiber/fiber/v2"

	"prodfind/internal/domain"
	"prodfind/internal/middleware"
	"prodfind/internal/service/comment"
)

type CommentHandler struct {
	commentService comment.Service
}

func NewCommentHandler(commentService comment.Service) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) Create(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	var input domain.CreateCommentInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	comment, err := h.commentService.Create(c.Context(), user, middleware.GetRequestMeta(c), productID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *CommentHandler) List(c *fiber.Ctx) error {
	productID, err := parseIDParam(c, "productId", "product")
	if err != nil {
		return err
	}

	comments, err := h.commentService.ListByProduct(c.Context(), middleware.GetCurrentUser(c), productID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(comments)
}

func (h *CommentHandler) Update(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseIDParam(c, "commentId", "comment")
	if err != nil {
		return err
	}

	var input domain.UpdateCommentInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	comment, err := h.commentService.Update(c.Context(), user, middleware.GetRequestMeta(c), commentID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(comment)
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseIDParam(c, "commentId", "comment")
	if err != nil {
		return err
	}

	var input domain.DeleteCommentInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return middleware.BadRequest("Invalid request body")
		}
	}

	if err := h.commentService.Delete(c.Context(), user, middleware.GetRequestMeta(c), commentID, input); err != nil {
		return err
	}

	return c.Status(fiber.StatusNoContent).SendString("")
}
