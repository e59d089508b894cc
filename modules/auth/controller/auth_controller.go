package controller

import (
	core "hutbook/core/controller"
	"hutbook/core/errors"
	"hutbook/core/middleware"
	"hutbook/modules/auth/service"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	core.BaseController
	tokens service.TokenService
}

func NewAuthController(tokens service.TokenService) *AuthController {
	return &AuthController{
		BaseController: core.NewBaseController(),
		tokens:         tokens,
	}
}

// GetConnectURL returns the Google OAuth consent URL
// GET /api/v1/private/calendar/connect-url
func (c *AuthController) GetConnectURL(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	result, appErr := c.tokens.GetAuthURL(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "oauth url generated")
}

// HandleCallback completes the OAuth grant
// GET /api/v1/public/calendar/callback?state=...&code=...
func (c *AuthController) HandleCallback(ctx echo.Context) error {
	state := ctx.QueryParam("state")
	code := ctx.QueryParam("code")
	if state == "" || code == "" {
		return c.BadRequest(errors.ErrInvalidInput, "state and code are required")
	}

	if appErr := c.tokens.HandleCallback(ctx.Request().Context(), state, code); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "calendar connected")
}

// Disconnect removes the stored Google credential
// DELETE /api/v1/private/calendar/connection
func (c *AuthController) Disconnect(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	if appErr := c.tokens.Disconnect(ctx.Request().Context(), userID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "calendar disconnected")
}

// GetStatus reports whether a calendar is connected
// GET /api/v1/private/calendar/status
func (c *AuthController) GetStatus(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	result, appErr := c.tokens.GetConnectionStatus(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "connection status")
}
