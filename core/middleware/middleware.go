package middleware

import (
	"net/http"
	"strings"

	"hutbook/core/controller"
	"hutbook/core/errors"
	"hutbook/core/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const userIDContextKey = "user_id"

type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// AuthMiddleware validates the JWT bearer token and stores the caller's
// user ID in the request context.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return c.JSON(http.StatusUnauthorized, controller.NewErrorResponse(
					http.StatusUnauthorized, errors.ErrMissingAuthorizationHeader, "missing Authorization header"))
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				return c.JSON(http.StatusUnauthorized, controller.NewErrorResponse(
					http.StatusUnauthorized, errors.ErrInvalidTokenFormat, "expected Bearer token"))
			}

			tokenData, appErr := utils.ValidateAndParseToken(token)
			if appErr != nil {
				return c.JSON(http.StatusUnauthorized, controller.NewErrorResponse(
					http.StatusUnauthorized, appErr.Code, appErr.Message))
			}

			c.Set(userIDContextKey, tokenData.UserID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user ID placed by AuthMiddleware.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDContextKey).(uuid.UUID)
	return id, ok
}
