package controller

import (
	"net/http"

	core "hutbook/core/controller"
	"hutbook/core/errors"
	"hutbook/core/middleware"
	"hutbook/modules/venue/dto"
	"hutbook/modules/venue/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type VenueController struct {
	core.BaseController
	service service.VenueService
}

func NewVenueController(svc service.VenueService) *VenueController {
	return &VenueController{
		BaseController: core.NewBaseController(),
		service:        svc,
	}
}

// CreateHut creates a hut for the authenticated owner
// POST /api/v1/private/huts
func (c *VenueController) CreateHut(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	var req dto.CreateHutRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.CreateHut(ctx.Request().Context(), ownerID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusCreated, result)
}

// GetMyHuts lists the owner's huts
// GET /api/v1/private/huts
func (c *VenueController) GetMyHuts(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	result, appErr := c.service.GetMyHuts(ctx.Request().Context(), ownerID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "huts retrieved")
}

// GetHut returns one of the owner's huts
// GET /api/v1/private/huts/:id
func (c *VenueController) GetHut(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	result, appErr := c.service.GetHut(ctx.Request().Context(), ownerID, hutID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "hut retrieved")
}

// UpdateHut updates hut details
// PATCH /api/v1/private/huts/:id
func (c *VenueController) UpdateHut(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	var req dto.UpdateHutRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.UpdateHut(ctx.Request().Context(), ownerID, hutID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "hut updated")
}

// UpdateAvailability replaces the weekly availability and recurring sessions
// PUT /api/v1/private/huts/:id/availability
func (c *VenueController) UpdateAvailability(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	var req dto.UpdateAvailabilityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.UpdateAvailability(ctx.Request().Context(), ownerID, hutID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "availability updated")
}

// UpdateSyncSettings configures calendar sync for a hut
// PUT /api/v1/private/huts/:id/sync-settings
func (c *VenueController) UpdateSyncSettings(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	var req dto.UpdateSyncSettingsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	if appErr := c.service.UpdateSyncSettings(ctx.Request().Context(), ownerID, hutID, &req); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "sync settings updated")
}

// UploadPhoto stores a hut photo
// PUT /api/v1/private/huts/:id/photo
func (c *VenueController) UploadPhoto(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	contentType := ctx.Request().Header.Get("Content-Type")
	result, appErr := c.service.UploadPhoto(ctx.Request().Context(), ownerID, hutID, ctx.Request().Body, contentType)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "photo uploaded")
}

// GetPublicHut serves the public booking page data for a hut
// GET /api/v1/public/huts/:slug
func (c *VenueController) GetPublicHut(ctx echo.Context) error {
	result, appErr := c.service.GetPublicHut(ctx.Request().Context(), ctx.Param("slug"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "hut retrieved")
}
