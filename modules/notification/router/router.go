package router

import (
	"hutbook/core/middleware"
	"hutbook/modules/notification/controller"

	"github.com/labstack/echo/v4"
)

type NotificationRouter struct {
	controller *controller.NotificationController
}

func NewNotificationRouter(controller *controller.NotificationController) *NotificationRouter {
	return &NotificationRouter{controller: controller}
}

func (r *NotificationRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	notifications := e.Group("/api/v1/private/notifications", mw.AuthMiddleware())

	notifications.GET("", r.controller.List)
	notifications.PUT("/:id/read", r.controller.MarkRead)
	notifications.PUT("/read-all", r.controller.MarkAllRead)
}
