package controller

import (
	"context"
	"net/http"
	"strconv"

	core "hutbook/core/controller"
	"hutbook/core/errors"
	"hutbook/core/middleware"
	"hutbook/core/params"
	"hutbook/modules/booking/dto"
	"hutbook/modules/booking/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingController struct {
	core.BaseController
	service service.BookingService
}

func NewBookingController(svc service.BookingService) *BookingController {
	return &BookingController{
		BaseController: core.NewBaseController(),
		service:        svc,
	}
}

// CheckPublicAvailability checks a slot on the public booking page
// POST /api/v1/public/huts/:slug/availability
func (c *BookingController) CheckPublicAvailability(ctx echo.Context) error {
	var req dto.CheckAvailabilityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.CheckPublicAvailability(ctx.Request().Context(), ctx.Param("slug"), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "availability checked")
}

// CreatePublicReservation files a booking request from the public page
// POST /api/v1/public/huts/:slug/reservations
func (c *BookingController) CreatePublicReservation(ctx echo.Context) error {
	var req dto.CreateReservationRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.CreatePublicReservation(ctx.Request().Context(), ctx.Param("slug"), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusCreated, result)
}

// CheckOwnerAvailability checks a slot with full conflict detail
// POST /api/v1/private/huts/:id/availability
func (c *BookingController) CheckOwnerAvailability(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}
	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	var req dto.CheckAvailabilityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.CheckOwnerAvailability(ctx.Request().Context(), ownerID, hutID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "availability checked")
}

// CreateReservation creates a confirmed booking as the owner
// POST /api/v1/private/huts/:id/reservations
func (c *BookingController) CreateReservation(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}
	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	var req dto.CreateReservationRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.CreateOwnerReservation(ctx.Request().Context(), ownerID, hutID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusCreated, result)
}

// ListReservations lists a page of a hut's reservations, optionally by status
// GET /api/v1/private/huts/:id/reservations?status=&page=&page_size=
func (c *BookingController) ListReservations(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}
	hutID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid hut id")
	}

	result, appErr := c.service.ListReservations(ctx.Request().Context(), ownerID, hutID, ctx.QueryParam("status"), queryParams(ctx))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "reservations retrieved")
}

// GetReservation returns one reservation
// GET /api/v1/private/reservations/:id
func (c *BookingController) GetReservation(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid reservation id")
	}

	result, appErr := c.service.GetReservation(ctx.Request().Context(), ownerID, id)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "reservation retrieved")
}

// ApproveReservation confirms a pending booking request
// PUT /api/v1/private/reservations/:id/approve
func (c *BookingController) ApproveReservation(ctx echo.Context) error {
	return c.transition(ctx, c.service.ApproveReservation, "reservation approved")
}

// DeclineReservation rejects a pending booking request
// PUT /api/v1/private/reservations/:id/decline
func (c *BookingController) DeclineReservation(ctx echo.Context) error {
	return c.transition(ctx, c.service.DeclineReservation, "reservation declined")
}

// CancelReservation cancels a confirmed booking
// PUT /api/v1/private/reservations/:id/cancel
func (c *BookingController) CancelReservation(ctx echo.Context) error {
	return c.transition(ctx, c.service.CancelReservation, "reservation cancelled")
}

// UpdateReservation edits a reservation's details or times
// PATCH /api/v1/private/reservations/:id
func (c *BookingController) UpdateReservation(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid reservation id")
	}

	var req dto.UpdateReservationRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.UpdateReservation(ctx.Request().Context(), ownerID, id, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "reservation updated")
}

// DeleteReservation permanently removes a reservation
// DELETE /api/v1/private/reservations/:id
func (c *BookingController) DeleteReservation(ctx echo.Context) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid reservation id")
	}

	if appErr := c.service.DeleteReservation(ctx.Request().Context(), ownerID, id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "reservation deleted")
}

func queryParams(ctx echo.Context) params.QueryParams {
	pageNumber, _ := strconv.Atoi(ctx.QueryParam("page"))
	pageSize, _ := strconv.Atoi(ctx.QueryParam("page_size"))
	return params.QueryParams{PageNumber: pageNumber, PageSize: pageSize}
}

type transitionFunc func(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError)

func (c *BookingController) transition(ctx echo.Context, fn transitionFunc, message string) error {
	ownerID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid reservation id")
	}

	result, appErr := fn(ctx.Request().Context(), ownerID, id)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, message)
}
