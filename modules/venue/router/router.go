package router

import (
	"hutbook/core/middleware"
	"hutbook/modules/venue/controller"

	"github.com/labstack/echo/v4"
)

type VenueRouter struct {
	controller *controller.VenueController
}

func NewVenueRouter(controller *controller.VenueController) *VenueRouter {
	return &VenueRouter{controller: controller}
}

func (r *VenueRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Private routes (hut owners)
	huts := v1.Group("/private/huts")
	huts.Use(mw.AuthMiddleware())
	huts.POST("", r.controller.CreateHut)
	huts.GET("", r.controller.GetMyHuts)
	huts.GET("/:id", r.controller.GetHut)
	huts.PATCH("/:id", r.controller.UpdateHut)
	huts.PUT("/:id/availability", r.controller.UpdateAvailability)
	huts.PUT("/:id/sync-settings", r.controller.UpdateSyncSettings)
	huts.PUT("/:id/photo", r.controller.UploadPhoto)

	// Public routes (booking page)
	v1.GET("/public/huts/:slug", r.controller.GetPublicHut)
}
