package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"prodfind/internal/domain"
	"prodfind/internal/middleware"
)

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.DefaultPagination()

	if page := c.QueryInt("page", 1); page > 0 {
		params.Page = page
	}
	if pageSize := c.QueryInt("page_size", domain.DefaultPageSize); pageSize > 0 {
		params.PageSize = pageSize
	}

	params.Validate()
	return params
}

func parseIDParam(c *fiber.Ctx, param, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid " + label + " ID")
	}
	return id, nil
}

func requireUser(c *fiber.Ctx) (*domain.User, error) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return nil, middleware.Unauthorized("User not authenticated")
	}
	return user, nil
}
