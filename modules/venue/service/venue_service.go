package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"hutbook/core/constants"
	"hutbook/core/errors"
	"hutbook/core/logger"
	"hutbook/core/storage"
	"hutbook/core/utils"
	"hutbook/modules/venue/dto"
	"hutbook/modules/venue/entity"
	"hutbook/modules/venue/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type VenueService interface {
	CreateHut(ctx context.Context, ownerID uuid.UUID, req *dto.CreateHutRequest) (*dto.HutResponse, *errors.AppError)
	GetMyHuts(ctx context.Context, ownerID uuid.UUID) ([]dto.HutResponse, *errors.AppError)
	GetHut(ctx context.Context, ownerID, hutID uuid.UUID) (*dto.HutResponse, *errors.AppError)
	GetPublicHut(ctx context.Context, slug string) (*dto.PublicHutResponse, *errors.AppError)
	UpdateHut(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.UpdateHutRequest) (*dto.HutResponse, *errors.AppError)
	UpdateAvailability(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.UpdateAvailabilityRequest) (*dto.HutResponse, *errors.AppError)
	UpdateSyncSettings(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.UpdateSyncSettingsRequest) *errors.AppError
	UploadPhoto(ctx context.Context, ownerID, hutID uuid.UUID, body io.Reader, contentType string) (*dto.PhotoUploadResponse, *errors.AppError)
}

type venueService struct {
	repo  repository.HutRepository
	store storage.ObjectStorage
}

func NewVenueService(repo repository.HutRepository, store storage.ObjectStorage) VenueService {
	return &venueService{repo: repo, store: store}
}

func (s *venueService) CreateHut(ctx context.Context, ownerID uuid.UUID, req *dto.CreateHutRequest) (*dto.HutResponse, *errors.AppError) {
	if req.Name == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "hut name is required", nil)
	}

	tz := req.Timezone
	if tz == "" {
		tz = "Europe/London"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid timezone", err)
	}

	hut := &entity.Hut{
		OwnerID:       ownerID,
		Name:          req.Name,
		Slug:          s.uniqueSlug(req.Name),
		Description:   req.Description,
		Timezone:      tz,
		SyncDirection: constants.SyncDirectionBoth,
		Availability:  entity.WeeklyAvailability{true, true, true, true, true, true, true},
	}

	created, err := s.repo.CreateHut(ctx, hut)
	if err != nil {
		logger.Error("VenueService:CreateHut:Error", "error", err, "owner_id", ownerID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create hut", err)
	}

	logger.Info("VenueService:CreateHut:Success", "hut_id", created.ID, "slug", created.Slug)
	return toHutResponse(created), nil
}

// uniqueSlug derives a URL slug from the hut name, suffixed with a short
// random ID so two huts with the same name never collide.
func (s *venueService) uniqueSlug(name string) string {
	return fmt.Sprintf("%s-%s", slug.Make(name), utils.GenerateID())
}

func (s *venueService) GetMyHuts(ctx context.Context, ownerID uuid.UUID) ([]dto.HutResponse, *errors.AppError) {
	huts, err := s.repo.GetHutsByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list huts", err)
	}

	result := make([]dto.HutResponse, 0, len(huts))
	for i := range huts {
		result = append(result, *toHutResponse(&huts[i]))
	}
	return result, nil
}

func (s *venueService) GetHut(ctx context.Context, ownerID, hutID uuid.UUID) (*dto.HutResponse, *errors.AppError) {
	hut, appErr := s.ownedHut(ctx, ownerID, hutID)
	if appErr != nil {
		return nil, appErr
	}
	return toHutResponse(hut), nil
}

func (s *venueService) GetPublicHut(ctx context.Context, slugParam string) (*dto.PublicHutResponse, *errors.AppError) {
	hut, err := s.repo.GetHutBySlug(ctx, slugParam)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load hut", err)
	}
	if hut == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "hut not found", nil)
	}

	return &dto.PublicHutResponse{
		Name:        hut.Name,
		Slug:        hut.Slug,
		Description: hut.Description,
		Timezone:    hut.Timezone,
		PhotoURL:    hut.PhotoURL,
		OpenDays:    hut.Availability,
	}, nil
}

func (s *venueService) UpdateHut(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.UpdateHutRequest) (*dto.HutResponse, *errors.AppError) {
	hut, appErr := s.ownedHut(ctx, ownerID, hutID)
	if appErr != nil {
		return nil, appErr
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "hut name cannot be empty", nil)
		}
		hut.Name = *req.Name
	}
	if req.Description != nil {
		hut.Description = *req.Description
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid timezone", err)
		}
		hut.Timezone = *req.Timezone
	}

	if err := s.repo.UpdateHut(ctx, hut); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update hut", err)
	}
	return toHutResponse(hut), nil
}

func (s *venueService) UpdateAvailability(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.UpdateAvailabilityRequest) (*dto.HutResponse, *errors.AppError) {
	hut, appErr := s.ownedHut(ctx, ownerID, hutID)
	if appErr != nil {
		return nil, appErr
	}

	if err := req.RecurringSessions.Validate(); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}

	hut.Availability = req.Availability
	hut.RecurringSessions = req.RecurringSessions
	if err := s.repo.UpdateHut(ctx, hut); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update availability", err)
	}

	logger.Info("VenueService:UpdateAvailability:Success", "hut_id", hutID, "sessions", len(req.RecurringSessions))
	return toHutResponse(hut), nil
}

func (s *venueService) UpdateSyncSettings(ctx context.Context, ownerID, hutID uuid.UUID, req *dto.UpdateSyncSettingsRequest) *errors.AppError {
	if _, appErr := s.ownedHut(ctx, ownerID, hutID); appErr != nil {
		return appErr
	}

	switch req.SyncDirection {
	case constants.SyncDirectionBoth, constants.SyncDirectionFromGoogle, constants.SyncDirectionToGoogle:
	default:
		return errors.NewAppError(errors.ErrInvalidInput, "invalid sync direction", nil)
	}
	if req.SyncEnabled && req.GoogleCalendarID == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "a Google calendar must be selected to enable sync", nil)
	}

	var calendarID *string
	if req.GoogleCalendarID != "" {
		calendarID = &req.GoogleCalendarID
	}
	if err := s.repo.UpdateSyncSettings(ctx, hutID, calendarID, req.SyncEnabled, req.SyncDirection); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to update sync settings", err)
	}

	logger.Info("VenueService:UpdateSyncSettings:Success",
		"hut_id", hutID, "enabled", req.SyncEnabled, "direction", req.SyncDirection)
	return nil
}

func (s *venueService) UploadPhoto(ctx context.Context, ownerID, hutID uuid.UUID, body io.Reader, contentType string) (*dto.PhotoUploadResponse, *errors.AppError) {
	if _, appErr := s.ownedHut(ctx, ownerID, hutID); appErr != nil {
		return nil, appErr
	}

	key := fmt.Sprintf("huts/%s/photo-%s", hutID, utils.GenerateID())
	url, err := s.store.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrExternalService, "failed to upload photo", err)
	}

	if err := s.repo.SetPhotoURL(ctx, hutID, url); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save photo url", err)
	}
	return &dto.PhotoUploadResponse{PhotoURL: url}, nil
}

func (s *venueService) ownedHut(ctx context.Context, ownerID, hutID uuid.UUID) (*entity.Hut, *errors.AppError) {
	hut, err := s.repo.GetHutByID(ctx, hutID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load hut", err)
	}
	if hut == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "hut not found", nil)
	}
	if hut.OwnerID != ownerID {
		return nil, errors.NewAppError(errors.ErrForbidden, "not the owner of this hut", nil)
	}
	return hut, nil
}

func toHutResponse(hut *entity.Hut) *dto.HutResponse {
	return &dto.HutResponse{
		ID:                hut.ID.String(),
		Name:              hut.Name,
		Slug:              hut.Slug,
		Description:       hut.Description,
		Timezone:          hut.Timezone,
		PhotoURL:          hut.PhotoURL,
		Availability:      hut.Availability,
		RecurringSessions: hut.RecurringSessions,
		SyncEnabled:       hut.SyncEnabled,
		SyncDirection:     hut.SyncDirection,
		LastSyncedAt:      hut.LastSyncedAt,
	}
}
