package router

import (
	"hutbook/core/middleware"
	"hutbook/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	controller *controller.BookingController
}

func NewBookingRouter(controller *controller.BookingController) *BookingRouter {
	return &BookingRouter{controller: controller}
}

func (r *BookingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Public booking page
	v1.POST("/public/huts/:slug/availability", r.controller.CheckPublicAvailability)
	v1.POST("/public/huts/:slug/reservations", r.controller.CreatePublicReservation)

	// Owner management
	private := v1.Group("/private", mw.AuthMiddleware())
	private.POST("/huts/:id/availability", r.controller.CheckOwnerAvailability)
	private.GET("/huts/:id/reservations", r.controller.ListReservations)
	private.POST("/huts/:id/reservations", r.controller.CreateReservation)
	private.GET("/reservations/:id", r.controller.GetReservation)
	private.PATCH("/reservations/:id", r.controller.UpdateReservation)
	private.PUT("/reservations/:id/approve", r.controller.ApproveReservation)
	private.PUT("/reservations/:id/decline", r.controller.DeclineReservation)
	private.PUT("/reservations/:id/cancel", r.controller.CancelReservation)
	private.DELETE("/reservations/:id", r.controller.DeleteReservation)
}
