package controller

import (
	core "hutbook/core/controller"
	"hutbook/core/errors"
	"hutbook/core/middleware"
	"hutbook/modules/calendarsync/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SyncController struct {
	core.BaseController
	service service.SyncService
}

func NewSyncController(svc service.SyncService) *SyncController {
	return &SyncController{
		BaseController: core.NewBaseController(),
		service:        svc,
	}
}

// RunSync triggers a full sync pass for one hut right now
// POST /api/v1/private/huts/:id/sync
func (c *SyncController) RunSync(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	result, appErr := c.service.TriggerHutSync(ctx.Request().Context(), ownerID, hutID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "sync finished")
}

// ListCalendars lists the Google calendars the owner can link
// GET /api/v1/private/calendar/calendars
func (c *SyncController) ListCalendars(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	result, appErr := c.service.ListCalendars(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "calendars retrieved")
}
