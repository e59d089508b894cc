package controller

import (
	"strconv"

	core "hutbook/core/controller"
	"hutbook/core/errors"
	"hutbook/core/middleware"
	"hutbook/core/params"
	"hutbook/modules/notification/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	core.BaseController
	service service.NotificationService
}

func NewNotificationController(svc service.NotificationService) *NotificationController {
	return &NotificationController{
		BaseController: core.NewBaseController(),
		service:        svc,
	}
}

// List returns a page of notifications and the unread count
// GET /api/v1/private/notifications?page=&page_size=
func (c *NotificationController) List(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	pageNumber, _ := strconv.Atoi(ctx.QueryParam("page"))
	pageSize, _ := strconv.Atoi(ctx.QueryParam("page_size"))
	result, appErr := c.service.List(ctx.Request().Context(), userID, params.QueryParams{PageNumber: pageNumber, PageSize: pageSize})
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "notifications retrieved")
}

// MarkRead marks one notification as read
// PUT /api/v1/private/notifications/:id/read
func (c *NotificationController) MarkRead(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid notification id")
	}

	if appErr := c.service.MarkRead(ctx.Request().Context(), userID, id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "notification marked read")
}

// MarkAllRead marks every unread notification as read
// PUT /api/v1/private/notifications/read-all
func (c *NotificationController) MarkAllRead(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	if appErr := c.service.MarkAllRead(ctx.Request().Context(), userID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "notifications marked read")
}
