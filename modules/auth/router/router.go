package router

import (
	"hutbook/core/middleware"
	"hutbook/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	controller *controller.AuthController
}

func NewAuthRouter(controller *controller.AuthController) *AuthRouter {
	return &AuthRouter{controller: controller}
}

func (r *AuthRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	calendar := v1.Group("/private/calendar")
	calendar.Use(mw.AuthMiddleware())
	calendar.GET("/connect-url", r.controller.GetConnectURL)
	calendar.GET("/status", r.controller.GetStatus)
	calendar.DELETE("/connection", r.controller.Disconnect)

	// OAuth provider redirects here; no bearer token on this request.
	v1.GET("/public/calendar/callback", r.controller.HandleCallback)
}
