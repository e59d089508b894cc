package dto

import (
	"time"

	"hutbook/modules/venue/entity"
)

// ========== Hut DTOs ==========

type CreateHutRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Timezone    string `json:"timezone"`
}

type UpdateHutRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

type UpdateAvailabilityRequest struct {
	Availability      entity.WeeklyAvailability   `json:"availability"`
	RecurringSessions entity.RecurringSessionList `json:"recurring_sessions"`
}

type UpdateSyncSettingsRequest struct {
	GoogleCalendarID string `json:"google_calendar_id"`
	SyncEnabled      bool   `json:"sync_enabled"`
	SyncDirection    string `json:"sync_direction"` // both | from_google | to_google
}

type HutResponse struct {
	ID                string                      `json:"id"`
	Name              string                      `json:"name"`
	Slug              string                      `json:"slug"`
	Description       string                      `json:"description"`
	Timezone          string                      `json:"timezone"`
	PhotoURL          *string                     `json:"photo_url,omitempty"`
	Availability      entity.WeeklyAvailability   `json:"availability"`
	RecurringSessions entity.RecurringSessionList `json:"recurring_sessions"`
	SyncEnabled       bool                        `json:"sync_enabled"`
	SyncDirection     string                      `json:"sync_direction"`
	LastSyncedAt      *time.Time                  `json:"last_synced_at,omitempty"`
}

// PublicHutResponse is the redacted view served to unauthenticated callers:
// no sync configuration, no external-calendar identifiers.
type PublicHutResponse struct {
	Name        string                    `json:"name"`
	Slug        string                    `json:"slug"`
	Description string                    `json:"description"`
	Timezone    string                    `json:"timezone"`
	PhotoURL    *string                   `json:"photo_url,omitempty"`
	OpenDays    entity.WeeklyAvailability `json:"open_days"`
}

type PhotoUploadResponse struct {
	PhotoURL string `json:"photo_url"`
}
