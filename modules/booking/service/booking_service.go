package service

import (
	"context"
	"time"

	coreEntity "hutbook/core/entity"
	"hutbook/core/errors"
	"hutbook/core/logger"
	"hutbook/core/params"
	"hutbook/core/utils"
	"hutbook/modules/booking/dto"
	"hutbook/modules/booking/entity"
	"hutbook/modules/booking/repository"
	notificationDto "hutbook/modules/notification/dto"
	notificationEntity "hutbook/modules/notification/entity"
	venueEntity "hutbook/modules/venue/entity"
	venueRepository "hutbook/modules/venue/repository"

	"github.com/google/uuid"
)

// ReservationSyncer pushes a reservation's state to the hut's linked
// calendar and reports an advisory status, never a fatal error.
type ReservationSyncer interface {
	SyncReservation(ctx context.Context, res *entity.Reservation) string
}

// Notifier delivers owner notifications, fire and forget.
type Notifier interface {
	Notify(ctx context.Context, input *notificationDto.CreateNotificationInput)
}

type BookingService interface {
	CheckPublicAvailability(ctx context.Context, slug string, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResult, *errors.AppError)
	CheckOwnerAvailability(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResult, *errors.AppError)

	// CreatePublicReservation files a booking request from the public page.
	// It lands as pending and waits for the owner's decision.
	CreatePublicReservation(ctx context.Context, slug string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, *errors.AppError)
	// CreateOwnerReservation creates a booking directly as confirmed.
	CreateOwnerReservation(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.CreateReservationRequest) (*dto.ReservationResponse, *errors.AppError)

	ListReservations(ctx context.Context, ownerID, hutID uuid.UUID, status string, page params.QueryParams) (*coreEntity.Pagination[dto.ReservationResponse], *errors.AppError)
	GetReservation(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError)
	ApproveReservation(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError)
	DeclineReservation(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError)
	CancelReservation(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError)
	UpdateReservation(ctx context.Context, ownerID, id uuid.UUID, req *dto.UpdateReservationRequest) (*dto.ReservationResponse, *errors.AppError)
	DeleteReservation(ctx context.Context, ownerID, id uuid.UUID) *errors.AppError
}

type bookingService struct {
	hutRepo         venueRepository.HutRepository
	reservationRepo repository.ReservationRepository
	availability    AvailabilityService
	syncer          ReservationSyncer
	notifier        Notifier
}

func NewBookingService(
	hutRepo venueRepository.HutRepository,
	reservationRepo repository.ReservationRepository,
	availability AvailabilityService,
	syncer ReservationSyncer,
	notifier Notifier,
) BookingService {
	return &bookingService{
		hutRepo:         hutRepo,
		reservationRepo: reservationRepo,
		availability:    availability,
		syncer:          syncer,
		notifier:        notifier,
	}
}

func (s *bookingService) CheckPublicAvailability(ctx context.Context, slug string, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResult, *errors.AppError) {
	hut, appErr := s.hutBySlug(ctx, slug)
	if appErr != nil {
		return nil, appErr
	}
	start, end, appErr := parseWindow(req.StartTime, req.EndTime)
	if appErr != nil {
		return nil, appErr
	}
	return s.availability.CheckAvailability(ctx, hut.ID, start, end, dto.AvailabilityOptions{})
}

func (s *bookingService) CheckOwnerAvailability(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResult, *errors.AppError) {
	if _, appErr := s.ownedHut(ctx, ownerID, hutID); appErr != nil {
		return nil, appErr
	}
	start, end, appErr := parseWindow(req.StartTime, req.EndTime)
	if appErr != nil {
		return nil, appErr
	}
	return s.availability.CheckAvailability(ctx, hutID, start, end, dto.AvailabilityOptions{OwnerView: true})
}

func (s *bookingService) CreatePublicReservation(ctx context.Context, slug string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, *errors.AppError) {
	hut, appErr := s.hutBySlug(ctx, slug)
	if appErr != nil {
		return nil, appErr
	}

	start, end, appErr := parseWindow(req.StartTime, req.EndTime)
	if appErr != nil {
		return nil, appErr
	}
	if start.Before(time.Now()) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "booking must start in the future", nil)
	}
	if req.ContactName == "" || req.ContactEmail == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "contact name and email are required", nil)
	}

	res, appErr := s.createReservation(ctx, hut, req, start, end, entity.StatusPending, false)
	if appErr != nil {
		return nil, appErr
	}

	s.notifier.Notify(ctx, &notificationDto.CreateNotificationInput{
		UserID:        hut.OwnerID,
		Kind:          notificationEntity.KindBookingRequested,
		HutID:         hut.ID,
		HutName:       hut.Name,
		ReservationID: &res.ID,
		Reference:     res.Reference,
		Title:         res.Title,
		StartTime:     &res.StartTime,
		EndTime:       &res.EndTime,
		ContactName:   res.ContactName,
	})

	logger.Info("BookingService:CreatePublicReservation:Created", "hut_id", hut.ID, "reservation_id", res.ID, "reference", res.Reference)
	return toReservationResponse(res, ""), nil
}

func (s *bookingService) CreateOwnerReservation(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.CreateReservationRequest) (*dto.ReservationResponse, *errors.AppError) {
	hut, appErr := s.ownedHut(ctx, ownerID, hutID)
	if appErr != nil {
		return nil, appErr
	}

	start, end, appErr := parseWindow(req.StartTime, req.EndTime)
	if appErr != nil {
		return nil, appErr
	}
	if req.ContactName == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "contact name is required", nil)
	}

	res, appErr := s.createReservation(ctx, hut, req, start, end, entity.StatusConfirmed, true)
	if appErr != nil {
		return nil, appErr
	}

	syncStatus := s.syncer.SyncReservation(ctx, res)
	logger.Info("BookingService:CreateOwnerReservation:Created", "hut_id", hut.ID, "reservation_id", res.ID, "sync_status", syncStatus)
	return toReservationResponse(res, syncStatus), nil
}

// createReservation inserts the row, then re-checks the slot excluding the
// new row itself. If another writer won the race the row is rolled back, so
// two conflicting bookings can never both survive.
func (s *bookingService) createReservation(ctx context.Context, hut *venueEntity.Hut, req *dto.CreateReservationRequest, start, end time.Time, status string, ownerView bool) (*entity.Reservation, *errors.AppError) {
	if appErr := s.checkOpenDays(hut, start, end); appErr != nil {
		return nil, appErr
	}

	check, appErr := s.availability.CheckAvailability(ctx, hut.ID, start, end, dto.AvailabilityOptions{OwnerView: ownerView})
	if appErr != nil {
		return nil, appErr
	}
	if !check.Available {
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "the requested time is not available", nil)
	}

	res := &entity.Reservation{
		HutID:        hut.ID,
		Title:        req.Title,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Notes:        req.Notes,
		Reference:    utils.GenerateBookingReference(),
		StartTime:    start,
		EndTime:      end,
		Status:       status,
	}
	if _, err := s.reservationRepo.Create(ctx, res); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create reservation", err)
	}

	recheck, appErr := s.availability.CheckAvailability(ctx, hut.ID, start, end, dto.AvailabilityOptions{ExcludeReservationID: &res.ID})
	if appErr != nil || !recheck.Available {
		if err := s.reservationRepo.Delete(ctx, res.ID); err != nil {
			logger.Error("BookingService:CreateReservation:Rollback:Error", "error", err, "reservation_id", res.ID)
		}
		if appErr != nil {
			return nil, appErr
		}
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "the requested time was just taken", nil)
	}
	return res, nil
}

func (s *bookingService) ListReservations(ctx context.Context, ownerID, hutID uuid.UUID, status string, page params.QueryParams) (*coreEntity.Pagination[dto.ReservationResponse], *errors.AppError) {
	if _, appErr := s.ownedHut(ctx, ownerID, hutID); appErr != nil {
		return nil, appErr
	}
	switch status {
	case "", entity.StatusPending, entity.StatusConfirmed, entity.StatusCancelled:
	default:
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid status filter", nil)
	}

	page = page.Normalize()
	total, err := s.reservationRepo.CountByHutID(ctx, hutID, status)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to count reservations", err)
	}
	reservations, err := s.reservationRepo.GetByHutID(ctx, hutID, status, page.PageSize, (page.PageNumber-1)*page.PageSize)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list reservations", err)
	}

	items := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		items = append(items, *toReservationResponse(&reservations[i], ""))
	}
	return coreEntity.NewPagination(items, total, page.PageNumber, page.PageSize), nil
}

func (s *bookingService) GetReservation(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError) {
	res, _, appErr := s.ownedReservation(ctx, ownerID, id)
	if appErr != nil {
		return nil, appErr
	}
	return toReservationResponse(res, ""), nil
}

func (s *bookingService) ApproveReservation(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError) {
	res, _, appErr := s.ownedReservation(ctx, ownerID, id)
	if appErr != nil {
		return nil, appErr
	}
	if res.Status != entity.StatusPending {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "only pending reservations can be approved", nil)
	}

	// An imported block may have landed since the request was filed.
	check, appErr := s.availability.CheckAvailability(ctx, res.HutID, res.StartTime, res.EndTime, dto.AvailabilityOptions{
		ExcludeReservationID: &res.ID,
		OwnerView:            true,
	})
	if appErr != nil {
		return nil, appErr
	}
	if !check.Available {
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "the slot is no longer available", nil)
	}

	if err := s.reservationRepo.UpdateStatus(ctx, res.ID, entity.StatusConfirmed); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to approve reservation", err)
	}
	res.Status = entity.StatusConfirmed

	syncStatus := s.syncer.SyncReservation(ctx, res)
	logger.Info("BookingService:ApproveReservation:Approved", "reservation_id", res.ID, "sync_status", syncStatus)
	return toReservationResponse(res, syncStatus), nil
}

func (s *bookingService) DeclineReservation(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError) {
	res, _, appErr := s.ownedReservation(ctx, ownerID, id)
	if appErr != nil {
		return nil, appErr
	}
	if res.Status != entity.StatusPending {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "only pending reservations can be declined", nil)
	}

	if err := s.reservationRepo.UpdateStatus(ctx, res.ID, entity.StatusCancelled); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to decline reservation", err)
	}
	res.Status = entity.StatusCancelled

	logger.Info("BookingService:DeclineReservation:Declined", "reservation_id", res.ID)
	return toReservationResponse(res, ""), nil
}

func (s *bookingService) CancelReservation(ctx context.Context, ownerID, id uuid.UUID) (*dto.ReservationResponse, *errors.AppError) {
	res, _, appErr := s.ownedReservation(ctx, ownerID, id)
	if appErr != nil {
		return nil, appErr
	}
	if res.Status != entity.StatusConfirmed {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "only confirmed reservations can be cancelled", nil)
	}

	if err := s.reservationRepo.UpdateStatus(ctx, res.ID, entity.StatusCancelled); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to cancel reservation", err)
	}
	res.Status = entity.StatusCancelled

	syncStatus := s.syncer.SyncReservation(ctx, res)
	logger.Info("BookingService:CancelReservation:Cancelled", "reservation_id", res.ID, "sync_status", syncStatus)
	return toReservationResponse(res, syncStatus), nil
}

func (s *bookingService) UpdateReservation(ctx context.Context, ownerID, id uuid.UUID, req *dto.UpdateReservationRequest) (*dto.ReservationResponse, *errors.AppError) {
	res, hut, appErr := s.ownedReservation(ctx, ownerID, id)
	if appErr != nil {
		return nil, appErr
	}
	if res.Status == entity.StatusCancelled {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "cancelled reservations cannot be edited", nil)
	}

	if req.Title != nil {
		res.Title = *req.Title
	}
	if req.Notes != nil {
		res.Notes = *req.Notes
	}

	timeChanged := false
	if req.StartTime != nil || req.EndTime != nil {
		startStr := res.StartTime.Format(time.RFC3339)
		endStr := res.EndTime.Format(time.RFC3339)
		if req.StartTime != nil {
			startStr = *req.StartTime
		}
		if req.EndTime != nil {
			endStr = *req.EndTime
		}
		start, end, appErr := parseWindow(startStr, endStr)
		if appErr != nil {
			return nil, appErr
		}
		if !start.Equal(res.StartTime) || !end.Equal(res.EndTime) {
			if appErr := s.checkOpenDays(hut, start, end); appErr != nil {
				return nil, appErr
			}
			check, appErr := s.availability.CheckAvailability(ctx, res.HutID, start, end, dto.AvailabilityOptions{
				ExcludeReservationID: &res.ID,
				OwnerView:            true,
			})
			if appErr != nil {
				return nil, appErr
			}
			if !check.Available {
				return nil, errors.NewAppError(errors.ErrAlreadyExists, "the new time is not available", nil)
			}
			res.StartTime = start
			res.EndTime = end
			timeChanged = true
		}
	}

	if err := s.reservationRepo.Update(ctx, res); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update reservation", err)
	}

	syncStatus := ""
	if res.Status == entity.StatusConfirmed {
		syncStatus = s.syncer.SyncReservation(ctx, res)
	}
	logger.Info("BookingService:UpdateReservation:Updated", "reservation_id", res.ID, "time_changed", timeChanged, "sync_status", syncStatus)
	return toReservationResponse(res, syncStatus), nil
}

func (s *bookingService) DeleteReservation(ctx context.Context, ownerID, id uuid.UUID) *errors.AppError {
	res, _, appErr := s.ownedReservation(ctx, ownerID, id)
	if appErr != nil {
		return appErr
	}

	// Remove the remote calendar event while the mirror row still exists.
	if res.Status == entity.StatusConfirmed {
		tombstone := *res
		tombstone.Status = entity.StatusCancelled
		s.syncer.SyncReservation(ctx, &tombstone)
	}

	if err := s.reservationRepo.Delete(ctx, res.ID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete reservation", err)
	}
	logger.Info("BookingService:DeleteReservation:Deleted", "reservation_id", res.ID)
	return nil
}

func (s *bookingService) hutBySlug(ctx context.Context, slug string) (*venueEntity.Hut, *errors.AppError) {
	hut, err := s.hutRepo.GetHutBySlug(ctx, slug)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load hut", err)
	}
	if hut == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "hut not found", nil)
	}
	return hut, nil
}

func (s *bookingService) ownedHut(ctx context.Context, ownerID, hutID uuid.UUID) (*venueEntity.Hut, *errors.AppError) {
	hut, err := s.hutRepo.GetHutByID(ctx, hutID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load hut", err)
	}
	if hut == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "hut not found", nil)
	}
	if hut.OwnerID != ownerID {
		return nil, errors.NewAppError(errors.ErrForbidden, "hut belongs to another owner", nil)
	}
	return hut, nil
}

func (s *bookingService) ownedReservation(ctx context.Context, ownerID, id uuid.UUID) (*entity.Reservation, *venueEntity.Hut, *errors.AppError) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, errors.NewAppError(errors.ErrInternalServer, "failed to load reservation", err)
	}
	if res == nil {
		return nil, nil, errors.NewAppError(errors.ErrNotFound, "reservation not found", nil)
	}
	hut, appErr := s.ownedHut(ctx, ownerID, res.HutID)
	if appErr != nil {
		return nil, nil, appErr
	}
	return res, hut, nil
}

// checkOpenDays rejects bookings touching a weekday the hut is closed on.
// Weekdays are resolved against the hut's local civil dates.
func (s *bookingService) checkOpenDays(hut *venueEntity.Hut, start, end time.Time) *errors.AppError {
	loc := hut.Location()
	for _, day := range civilDates(start, end, loc) {
		if !hut.Availability.Open(day.Weekday()) {
			return errors.NewAppError(errors.ErrInvalidInput, "the hut is closed on "+day.Weekday().String(), nil)
		}
	}
	return nil
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, *errors.AppError) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "start_time must be RFC3339", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "end_time must be RFC3339", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "end time must be after start time", nil)
	}
	return start, end, nil
}

func toReservationResponse(res *entity.Reservation, syncStatus string) *dto.ReservationResponse {
	return &dto.ReservationResponse{
		ID:           res.ID.String(),
		HutID:        res.HutID.String(),
		Title:        res.Title,
		ContactName:  res.ContactName,
		ContactEmail: res.ContactEmail,
		ContactPhone: res.ContactPhone,
		Notes:        res.Notes,
		Reference:    res.Reference,
		StartTime:    res.StartTime,
		EndTime:      res.EndTime,
		Status:       res.Status,
		SyncStatus:   syncStatus,
	}
}
