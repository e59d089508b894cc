package dto

import (
	"time"

	"github.com/google/uuid"
)

// Conflict types reported by the availability engine, in stable output order.
const (
	ConflictReservation      = "reservation"
	ConflictExternalBlock    = "external_block"
	ConflictRecurringSession = "recurring_session"
)

// RedactedExternalTitle replaces the real title of an imported external
// event for public callers. The raw title must never reach them.
const RedactedExternalTitle = "Busy"

// Conflict is one blocking interval found by an availability check.
type Conflict struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ContactName string    `json:"contact_name,omitempty"` // owner view only
}

// AvailabilityOptions tunes an availability check.
type AvailabilityOptions struct {
	// ExcludeReservationID skips one reservation, so re-checking during an
	// edit does not conflict with the reservation being edited.
	ExcludeReservationID *uuid.UUID
	// OwnerView surfaces real external-event titles and contact details.
	OwnerView bool
}

type AvailabilityResult struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts"`
	Warning   string     `json:"warning,omitempty"`
}

type CheckAvailabilityRequest struct {
	StartTime string `json:"start_time" validate:"required"` // RFC3339
	EndTime   string `json:"end_time" validate:"required"`   // RFC3339
}

type CreateReservationRequest struct {
	Title        string `json:"title"`
	ContactName  string `json:"contact_name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required"`
	ContactPhone string `json:"contact_phone"`
	Notes        string `json:"notes"`
	StartTime    string `json:"start_time" validate:"required"` // RFC3339
	EndTime      string `json:"end_time" validate:"required"`   // RFC3339
}

type UpdateReservationRequest struct {
	Title     *string `json:"title,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	StartTime *string `json:"start_time,omitempty"` // RFC3339
	EndTime   *string `json:"end_time,omitempty"`   // RFC3339
}

type ReservationResponse struct {
	ID           string    `json:"id"`
	HutID        string    `json:"hut_id"`
	Title        string    `json:"title"`
	ContactName  string    `json:"contact_name,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Reference    string    `json:"reference"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	// SyncStatus is advisory: a failed calendar sync never fails the
	// reservation operation itself.
	SyncStatus string `json:"sync_status,omitempty"`
}
