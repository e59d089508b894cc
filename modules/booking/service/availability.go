package service

import (
	"context"
	"time"

	"hutbook/core/errors"
	"hutbook/core/logger"
	"hutbook/modules/booking/dto"
	"hutbook/modules/booking/repository"
	syncRepository "hutbook/modules/calendarsync/repository"
	venueEntity "hutbook/modules/venue/entity"
	venueRepository "hutbook/modules/venue/repository"

	"github.com/google/uuid"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ExpandRecurringSession projects a weekly rule onto the civil date of day
// in loc. It returns the concrete blocked interval and true when the rule
// is enabled and the local weekday matches. Weekday resolution always uses
// the hut's local civil date, never UTC.
func ExpandRecurringSession(rule venueEntity.RecurringSession, day time.Time, loc *time.Location) (time.Time, time.Time, bool) {
	local := day.In(loc)
	if !rule.Enabled || local.Weekday() != rule.Weekday {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(local.Year(), local.Month(), local.Day(), rule.StartTime.Hour, rule.StartTime.Minute, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), rule.EndTime.Hour, rule.EndTime.Minute, 0, 0, loc)
	return start, end, true
}

// AvailabilityService decides whether a candidate interval is free for a
// hut, aggregating reservations, imported external blocks and recurring
// sessions into a structured conflict list.
type AvailabilityService interface {
	CheckAvailability(ctx context.Context, hutID uuid.UUID, start, end time.Time, opts dto.AvailabilityOptions) (*dto.AvailabilityResult, *errors.AppError)
}

type availabilityService struct {
	hutRepo         venueRepository.HutRepository
	reservationRepo repository.ReservationRepository
	syncRepo        syncRepository.SyncedEventRepository
}

func NewAvailabilityService(
	hutRepo venueRepository.HutRepository,
	reservationRepo repository.ReservationRepository,
	syncRepo syncRepository.SyncedEventRepository,
) AvailabilityService {
	return &availabilityService{
		hutRepo:         hutRepo,
		reservationRepo: reservationRepo,
		syncRepo:        syncRepo,
	}
}

func (s *availabilityService) CheckAvailability(ctx context.Context, hutID uuid.UUID, start, end time.Time, opts dto.AvailabilityOptions) (*dto.AvailabilityResult, *errors.AppError) {
	if !end.After(start) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end time must be after start time", nil)
	}

	hut, err := s.hutRepo.GetHutByID(ctx, hutID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load hut", err)
	}
	if hut == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "hut not found", nil)
	}

	conflicts := make([]dto.Conflict, 0)
	warning := ""

	// 1. Reservations. Confirmed and pending both block. This source is
	// authoritative, so a read failure fails the whole check closed.
	reservations, err := s.reservationRepo.GetBlockingOverlapping(ctx, hutID, start, end, opts.ExcludeReservationID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to query reservations", err)
	}
	for _, res := range reservations {
		conflict := dto.Conflict{
			Type:      dto.ConflictReservation,
			Title:     res.Title,
			StartTime: res.StartTime,
			EndTime:   res.EndTime,
		}
		if opts.OwnerView {
			conflict.ContactName = res.ContactName
		}
		conflicts = append(conflicts, conflict)
	}

	// 2. Imported external blocks. Secondary signal: on read failure degrade
	// to a warning instead of failing the check.
	blocks, err := s.syncRepo.GetImportedOverlapping(ctx, hutID, start, end)
	if err != nil {
		logger.Warn("AvailabilityService:CheckAvailability:ExternalBlocksUnavailable", "error", err, "hut_id", hutID)
		warning = "external calendar blocks could not be checked"
	}
	for _, block := range blocks {
		title := dto.RedactedExternalTitle
		if opts.OwnerView {
			title = block.Title
		}
		conflicts = append(conflicts, dto.Conflict{
			Type:      dto.ConflictExternalBlock,
			Title:     title,
			StartTime: block.StartTime,
			EndTime:   block.EndTime,
		})
	}

	// 3. Recurring sessions, projected onto each civil date the candidate
	// touches in the hut's timezone.
	loc := hut.Location()
	for _, rule := range hut.RecurringSessions {
		for _, day := range civilDates(start, end, loc) {
			sessStart, sessEnd, ok := ExpandRecurringSession(rule, day, loc)
			if !ok || !Overlaps(start, end, sessStart, sessEnd) {
				continue
			}
			conflicts = append(conflicts, dto.Conflict{
				Type:      dto.ConflictRecurringSession,
				Title:     rule.Name,
				StartTime: sessStart,
				EndTime:   sessEnd,
			})
		}
	}

	return &dto.AvailabilityResult{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
		Warning:   warning,
	}, nil
}

// civilDates lists midnight (in loc) of each calendar date the half-open
// interval [start, end) touches. A booking that crosses midnight must match
// sessions on both days.
func civilDates(start, end time.Time, loc *time.Location) []time.Time {
	first := start.In(loc)
	first = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)

	// end is exclusive: a booking ending exactly at midnight does not touch
	// the next day.
	last := end.In(loc).Add(-time.Nanosecond)
	last = time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)

	var days []time.Time
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}
