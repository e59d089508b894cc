package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"hutbook/core/cache"
	"hutbook/core/config"
	"hutbook/core/constants"
	"hutbook/core/errors"
	"hutbook/core/logger"
	bookingEntity "hutbook/modules/booking/entity"
	bookingRepository "hutbook/modules/booking/repository"
	"hutbook/modules/calendarsync/dto"
	"hutbook/modules/calendarsync/entity"
	"hutbook/modules/calendarsync/google"
	"hutbook/modules/calendarsync/repository"
	venueEntity "hutbook/modules/venue/entity"
	venueRepository "hutbook/modules/venue/repository"

	"github.com/google/uuid"
)

const syncLockKeyPrefix = "sync_lock:"

// CalendarAPI is the slice of the Google Calendar client the sync engine
// uses. Tests substitute a fake.
type CalendarAPI interface {
	ListCalendars(ctx context.Context, accessToken string) ([]google.Calendar, error)
	ListEvents(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]google.Event, error)
	CreateEvent(ctx context.Context, accessToken, calendarID string, input google.EventInput) (string, error)
	UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, input google.EventInput) error
	DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error
}

// AccessTokenProvider yields a usable Google access token for a user,
// refreshing behind the scenes when needed.
type AccessTokenProvider interface {
	GetValidAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError)
}

// SyncService reconciles huts with their linked Google calendars. It never
// returns a fatal error to callers; every outcome is a tagged SyncResult.
type SyncService interface {
	// SyncHut runs a full two-pass reconciliation for one hut, guarded by a
	// per-hut advisory lock.
	SyncHut(ctx context.Context, hutID uuid.UUID) *dto.SyncResult
	// TriggerHutSync runs SyncHut on behalf of the hut's owner.
	TriggerHutSync(ctx context.Context, ownerID, hutID uuid.UUID) (*dto.SyncResult, *errors.AppError)
	// SyncReservation pushes a single reservation's current state to Google
	// right away, without waiting for the next full pass. Best effort.
	SyncReservation(ctx context.Context, res *bookingEntity.Reservation) string
	// ListCalendars returns the calendars the owner can link a hut to.
	ListCalendars(ctx context.Context, userID uuid.UUID) (*dto.CalendarListResponse, *errors.AppError)
}

type syncService struct {
	hutRepo         venueRepository.HutRepository
	syncRepo        repository.SyncedEventRepository
	reservationRepo bookingRepository.ReservationRepository
	tokens          AccessTokenProvider
	api             CalendarAPI
	cache           cache.Cache
	windowDays      int
	recheckEvery    int
}

func NewSyncService(
	hutRepo venueRepository.HutRepository,
	syncRepo repository.SyncedEventRepository,
	reservationRepo bookingRepository.ReservationRepository,
	tokens AccessTokenProvider,
	api CalendarAPI,
	cacheClient cache.Cache,
) SyncService {
	windowDays := constants.SyncWindowDays
	if cfg, ok := config.GetSafe(); ok && cfg.Sync.WindowDays > 0 {
		windowDays = cfg.Sync.WindowDays
	}
	return &syncService{
		hutRepo:         hutRepo,
		syncRepo:        syncRepo,
		reservationRepo: reservationRepo,
		tokens:          tokens,
		api:             api,
		cache:           cacheClient,
		windowDays:      windowDays,
		recheckEvery:    constants.SyncRecheckEvery,
	}
}

func (s *syncService) SyncHut(ctx context.Context, hutID uuid.UUID) *dto.SyncResult {
	hut, err := s.hutRepo.GetHutByID(ctx, hutID)
	if err != nil {
		return &dto.SyncResult{Status: dto.SyncStatusDegraded, Message: "failed to load hut"}
	}
	if hut == nil || !hut.SyncEnabled || hut.GoogleCalendarID == nil {
		return &dto.SyncResult{Status: dto.SyncStatusSkipped, Message: "sync not configured for this hut"}
	}

	lockKey := syncLockKeyPrefix + hutID.String()
	acquired, err := s.cache.SetNX(ctx, lockKey, time.Now().Format(time.RFC3339), constants.SyncLockTTL)
	if err != nil {
		logger.Error("SyncService:SyncHut:Lock:Error", "error", err, "hut_id", hutID)
		return &dto.SyncResult{Status: dto.SyncStatusDegraded, Message: "failed to acquire sync lock"}
	}
	if !acquired {
		logger.Info("SyncService:SyncHut:AlreadyRunning", "hut_id", hutID)
		return &dto.SyncResult{Status: dto.SyncStatusRunning, Message: "a sync pass is already running for this hut"}
	}
	defer func() {
		if err := s.cache.Delete(ctx, lockKey); err != nil {
			logger.Warn("SyncService:SyncHut:Unlock:Error", "error", err, "hut_id", hutID)
		}
	}()

	token, appErr := s.tokens.GetValidAccessToken(ctx, hut.OwnerID)
	if appErr != nil {
		if errors.IsCode(appErr, errors.ErrUnauthorized) {
			return &dto.SyncResult{Status: dto.SyncStatusAuthRequired, Message: "Google authorization required"}
		}
		return &dto.SyncResult{Status: dto.SyncStatusDegraded, Message: "could not obtain Google access token"}
	}

	now := time.Now().UTC()
	windowEnd := now.AddDate(0, 0, s.windowDays)
	result := &dto.SyncResult{Status: dto.SyncStatusOK}

	if hut.SyncDirection == constants.SyncDirectionBoth || hut.SyncDirection == constants.SyncDirectionFromGoogle {
		if err := s.importFromGoogle(ctx, hut, token, now, windowEnd, result); err != nil {
			logger.Error("SyncService:SyncHut:Import:Error", "error", err, "hut_id", hutID)
			result.Status = dto.SyncStatusDegraded
			result.Message = "import pass failed"
		}
	}

	if hut.SyncDirection == constants.SyncDirectionBoth || hut.SyncDirection == constants.SyncDirectionToGoogle {
		// Re-check before mutating the remote calendar; the owner may have
		// disabled sync while the import pass ran.
		enabled, err := s.hutRepo.IsSyncEnabled(ctx, hutID)
		if err != nil || !enabled {
			if err == nil {
				logger.Info("SyncService:SyncHut:DisabledMidPass", "hut_id", hutID)
			}
			return result
		}
		if err := s.exportToGoogle(ctx, hut, token, now, result); err != nil {
			logger.Error("SyncService:SyncHut:Export:Error", "error", err, "hut_id", hutID)
			result.Status = dto.SyncStatusDegraded
			result.Message = "export pass failed"
		}
	}

	syncedAt := time.Now().UTC()
	if err := s.hutRepo.UpdateLastSyncedAt(ctx, hutID, syncedAt); err != nil {
		logger.Warn("SyncService:SyncHut:UpdateLastSyncedAt:Error", "error", err, "hut_id", hutID)
	}
	result.SyncedAt = &syncedAt

	logger.Info("SyncService:SyncHut:Done", "hut_id", hutID, "status", result.Status,
		"imported", result.Imported, "updated", result.Updated, "removed", result.Removed,
		"exported", result.Exported, "deleted", result.Deleted)
	return result
}

// importFromGoogle is the inbound pass: mirror concrete-timed remote events
// into synced_events so they block availability. Unseen mirrors are pruned,
// so deleting an event in Google frees the slot here.
func (s *syncService) importFromGoogle(ctx context.Context, hut *venueEntity.Hut, token string, windowStart, windowEnd time.Time, result *dto.SyncResult) error {
	events, err := s.api.ListEvents(ctx, token, *hut.GoogleCalendarID, windowStart, windowEnd)
	if err != nil {
		return err
	}

	exported, err := s.syncRepo.GetByHutAndDirection(ctx, hut.ID, entity.DirectionToGoogle)
	if err != nil {
		return err
	}
	ours := make(map[string]bool, len(exported))
	for _, ev := range exported {
		ours[ev.GoogleEventID] = true
	}

	mirrors, err := s.syncRepo.GetByHutAndDirection(ctx, hut.ID, entity.DirectionFromGoogle)
	if err != nil {
		return err
	}
	existing := make(map[string]*entity.SyncedEvent, len(mirrors))
	for i := range mirrors {
		existing[mirrors[i].GoogleEventID] = &mirrors[i]
	}

	syncedAt := time.Now().UTC()
	seen := make(map[string]bool, len(events))

	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		// Events we exported ourselves must not round-trip back as blocks.
		if ours[ev.ID] {
			continue
		}
		seen[ev.ID] = true

		if mirror, ok := existing[ev.ID]; ok {
			if mirror.Matches(ev.Start, ev.End, ev.Title) {
				continue
			}
			mirror.StartTime = ev.Start
			mirror.EndTime = ev.End
			mirror.Title = ev.Title
			mirror.LastSyncedAt = syncedAt
			if err := s.syncRepo.Update(ctx, mirror); err != nil {
				return err
			}
			result.Updated++
			continue
		}

		_, err := s.syncRepo.Create(ctx, &entity.SyncedEvent{
			HutID:         hut.ID,
			GoogleEventID: ev.ID,
			Direction:     entity.DirectionFromGoogle,
			StartTime:     ev.Start,
			EndTime:       ev.End,
			Title:         ev.Title,
			LastSyncedAt:  syncedAt,
		})
		if err != nil {
			return err
		}
		result.Imported++
	}

	for _, mirror := range mirrors {
		if seen[mirror.GoogleEventID] {
			continue
		}
		if err := s.syncRepo.Delete(ctx, mirror.ID); err != nil {
			return err
		}
		result.Removed++
	}
	return nil
}

// exportToGoogle is the outbound pass: every confirmed future reservation
// gets a remote event, and mirrors whose reservation is gone or cancelled
// get their remote event deleted. One reservation's failure degrades the
// result and moves on; it never aborts the rest of the pass.
func (s *syncService) exportToGoogle(ctx context.Context, hut *venueEntity.Hut, token string, now time.Time, result *dto.SyncResult) error {
	reservations, err := s.reservationRepo.GetConfirmedFuture(ctx, hut.ID, now)
	if err != nil {
		return err
	}

	mirrors, err := s.syncRepo.GetByHutAndDirection(ctx, hut.ID, entity.DirectionToGoogle)
	if err != nil {
		return err
	}
	byReservation := make(map[uuid.UUID]*entity.SyncedEvent, len(mirrors))
	for i := range mirrors {
		if mirrors[i].ReservationID != nil {
			byReservation[*mirrors[i].ReservationID] = &mirrors[i]
		}
	}

	syncedAt := time.Now().UTC()
	active := make(map[uuid.UUID]bool, len(reservations))

	// Every s.recheckEvery remote mutations, re-read sync_enabled so an
	// owner disabling sync stops outbound writes within a long pass too.
	mutations := 0
	stillEnabled := func() bool {
		mutations++
		if mutations%s.recheckEvery != 0 {
			return true
		}
		enabled, err := s.hutRepo.IsSyncEnabled(ctx, hut.ID)
		if err != nil {
			return true
		}
		return enabled
	}

	for i := range reservations {
		res := &reservations[i]
		active[res.ID] = true
		title := exportTitle(res)

		mirror, ok := byReservation[res.ID]
		if !ok {
			if !stillEnabled() {
				logger.Info("SyncService:Export:DisabledMidPass", "hut_id", hut.ID)
				return nil
			}
			eventID, err := s.api.CreateEvent(ctx, token, *hut.GoogleCalendarID, exportInput(res, hut, title))
			if err != nil {
				logger.Warn("SyncService:Export:Create:Error", "error", err, "hut_id", hut.ID, "reservation_id", res.ID)
				result.Degrade("some reservations failed to export")
				continue
			}
			resID := res.ID
			if _, err := s.syncRepo.Create(ctx, &entity.SyncedEvent{
				HutID:         hut.ID,
				GoogleEventID: eventID,
				ReservationID: &resID,
				Direction:     entity.DirectionToGoogle,
				StartTime:     res.StartTime,
				EndTime:       res.EndTime,
				Title:         title,
				LastSyncedAt:  syncedAt,
			}); err != nil {
				logger.Error("SyncService:Export:SaveMirror:Error", "error", err, "hut_id", hut.ID, "reservation_id", res.ID)
				result.Degrade("some reservations failed to export")
				continue
			}
			result.Exported++
			continue
		}

		if mirror.Matches(res.StartTime, res.EndTime, title) {
			continue
		}
		if !stillEnabled() {
			logger.Info("SyncService:Export:DisabledMidPass", "hut_id", hut.ID)
			return nil
		}
		err := s.api.UpdateEvent(ctx, token, *hut.GoogleCalendarID, mirror.GoogleEventID, exportInput(res, hut, title))
		if stderrors.Is(err, google.ErrEventNotFound) {
			// Remote event was deleted out from under us. Drop the mirror so
			// the next pass recreates the event from scratch.
			logger.Warn("SyncService:Export:RemoteEventGone", "hut_id", hut.ID, "reservation_id", res.ID)
			if err := s.syncRepo.Delete(ctx, mirror.ID); err != nil {
				result.Degrade("some reservations failed to export")
			}
			continue
		}
		if err != nil {
			logger.Warn("SyncService:Export:Update:Error", "error", err, "hut_id", hut.ID, "reservation_id", res.ID)
			result.Degrade("some reservations failed to export")
			continue
		}
		mirror.StartTime = res.StartTime
		mirror.EndTime = res.EndTime
		mirror.Title = title
		mirror.LastSyncedAt = syncedAt
		if err := s.syncRepo.Update(ctx, mirror); err != nil {
			result.Degrade("some reservations failed to export")
			continue
		}
		result.Updated++
	}

	for i := range mirrors {
		mirror := &mirrors[i]
		if mirror.ReservationID == nil || active[*mirror.ReservationID] {
			continue
		}
		res, err := s.reservationRepo.GetByID(ctx, *mirror.ReservationID)
		if err != nil {
			result.Degrade("failed to resolve exported mirrors")
			continue
		}
		if res != nil && res.Status == bookingEntity.StatusConfirmed {
			// Still confirmed but no longer in the export set. While the
			// booking is ongoing the mirror stays put; once it is over the
			// mirror row is pruned and the remote event remains as the
			// owner's calendar record.
			if res.EndTime.After(now) {
				continue
			}
			if err := s.syncRepo.Delete(ctx, mirror.ID); err != nil {
				result.Degrade("failed to resolve exported mirrors")
				continue
			}
			result.Removed++
			continue
		}
		if !stillEnabled() {
			logger.Info("SyncService:Export:DisabledMidPass", "hut_id", hut.ID)
			return nil
		}
		if err := s.api.DeleteEvent(ctx, token, *hut.GoogleCalendarID, mirror.GoogleEventID); err != nil {
			// Keep the mirror so the delete is retried on the next pass.
			logger.Warn("SyncService:Export:DeleteFailed", "error", err, "hut_id", hut.ID, "event_id", mirror.GoogleEventID)
			result.Degrade("some remote deletions failed")
			continue
		}
		if err := s.syncRepo.Delete(ctx, mirror.ID); err != nil {
			result.Degrade("some remote deletions failed")
			continue
		}
		result.Deleted++
	}
	return nil
}

func (s *syncService) TriggerHutSync(ctx context.Context, ownerID, hutID uuid.UUID) (*dto.SyncResult, *errors.AppError) {
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
	return s.SyncHut(ctx, hutID), nil
}

func (s *syncService) SyncReservation(ctx context.Context, res *bookingEntity.Reservation) string {
	hut, err := s.hutRepo.GetHutByID(ctx, res.HutID)
	if err != nil || hut == nil {
		return dto.SyncStatusDegraded
	}
	if !hut.SyncEnabled || hut.GoogleCalendarID == nil || hut.SyncDirection == constants.SyncDirectionFromGoogle {
		return dto.SyncStatusSkipped
	}

	// Same lock as the full pass, so a single-reservation push can never
	// race a pass over the same hut into duplicate remote events.
	lockKey := syncLockKeyPrefix + hut.ID.String()
	acquired, err := s.cache.SetNX(ctx, lockKey, time.Now().Format(time.RFC3339), constants.SyncLockTTL)
	if err != nil {
		return dto.SyncStatusDegraded
	}
	if !acquired {
		// The running pass reconciles this reservation itself.
		return dto.SyncStatusRunning
	}
	defer func() {
		if err := s.cache.Delete(ctx, lockKey); err != nil {
			logger.Warn("SyncService:SyncReservation:Unlock:Error", "error", err, "hut_id", hut.ID)
		}
	}()

	token, appErr := s.tokens.GetValidAccessToken(ctx, hut.OwnerID)
	if appErr != nil {
		if errors.IsCode(appErr, errors.ErrUnauthorized) {
			return dto.SyncStatusAuthRequired
		}
		return dto.SyncStatusDegraded
	}

	mirror, err := s.syncRepo.GetByReservationID(ctx, res.ID)
	if err != nil {
		return dto.SyncStatusDegraded
	}
	syncedAt := time.Now().UTC()
	title := exportTitle(res)

	if res.Status == bookingEntity.StatusConfirmed {
		if mirror == nil {
			eventID, err := s.api.CreateEvent(ctx, token, *hut.GoogleCalendarID, exportInput(res, hut, title))
			if err != nil {
				logger.Warn("SyncService:SyncReservation:Create:Error", "error", err, "reservation_id", res.ID)
				return dto.SyncStatusDegraded
			}
			resID := res.ID
			if _, err := s.syncRepo.Create(ctx, &entity.SyncedEvent{
				HutID:         hut.ID,
				GoogleEventID: eventID,
				ReservationID: &resID,
				Direction:     entity.DirectionToGoogle,
				StartTime:     res.StartTime,
				EndTime:       res.EndTime,
				Title:         title,
				LastSyncedAt:  syncedAt,
			}); err != nil {
				return dto.SyncStatusDegraded
			}
			return dto.SyncStatusOK
		}

		err := s.api.UpdateEvent(ctx, token, *hut.GoogleCalendarID, mirror.GoogleEventID, exportInput(res, hut, title))
		if stderrors.Is(err, google.ErrEventNotFound) {
			if err := s.syncRepo.Delete(ctx, mirror.ID); err != nil {
				return dto.SyncStatusDegraded
			}
			return dto.SyncStatusDegraded
		}
		if err != nil {
			logger.Warn("SyncService:SyncReservation:Update:Error", "error", err, "reservation_id", res.ID)
			return dto.SyncStatusDegraded
		}
		mirror.StartTime = res.StartTime
		mirror.EndTime = res.EndTime
		mirror.Title = title
		mirror.LastSyncedAt = syncedAt
		if err := s.syncRepo.Update(ctx, mirror); err != nil {
			return dto.SyncStatusDegraded
		}
		return dto.SyncStatusOK
	}

	// Cancelled, declined or deleted: take the remote event down with it.
	if mirror == nil {
		return dto.SyncStatusOK
	}
	if err := s.api.DeleteEvent(ctx, token, *hut.GoogleCalendarID, mirror.GoogleEventID); err != nil {
		logger.Warn("SyncService:SyncReservation:Delete:Error", "error", err, "reservation_id", res.ID)
		return dto.SyncStatusDegraded
	}
	if err := s.syncRepo.Delete(ctx, mirror.ID); err != nil {
		return dto.SyncStatusDegraded
	}
	return dto.SyncStatusOK
}

func (s *syncService) ListCalendars(ctx context.Context, userID uuid.UUID) (*dto.CalendarListResponse, *errors.AppError) {
	token, appErr := s.tokens.GetValidAccessToken(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}

	calendars, err := s.api.ListCalendars(ctx, token)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrExternalService, "failed to list Google calendars", err)
	}

	resp := &dto.CalendarListResponse{Calendars: make([]dto.GoogleCalendarResponse, 0, len(calendars))}
	for _, cal := range calendars {
		resp.Calendars = append(resp.Calendars, dto.GoogleCalendarResponse{
			ID:      cal.ID,
			Summary: cal.Summary,
			Primary: cal.Primary,
		})
	}
	return resp, nil
}

func exportTitle(res *bookingEntity.Reservation) string {
	if res.Title != "" {
		return res.Title
	}
	return fmt.Sprintf("Hut booking %s", res.Reference)
}

func exportInput(res *bookingEntity.Reservation, hut *venueEntity.Hut, title string) google.EventInput {
	return google.EventInput{
		Title:       title,
		Description: fmt.Sprintf("Booking %s for %s", res.Reference, res.ContactName),
		Start:       res.StartTime,
		End:         res.EndTime,
		Timezone:    hut.Timezone,
	}
}
