package router

import (
	"hutbook/core/middleware"
	"hutbook/modules/calendarsync/controller"

	"github.com/labstack/echo/v4"
)

type SyncRouter struct {
	controller *controller.SyncController
}

func NewSyncRouter(controller *controller.SyncController) *SyncRouter {
	return &SyncRouter{controller: controller}
}

func (r *SyncRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1/private", mw.AuthMiddleware())

	v1.POST("/huts/:id/sync", r.controller.RunSync)
	v1.GET("/calendar/calendars", r.controller.ListCalendars)
}
