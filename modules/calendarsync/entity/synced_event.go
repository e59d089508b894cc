package entity

import (
	"time"

	"hutbook/core/entity"

	"github.com/google/uuid"
)

// Sync directions for a mirror record.
const (
	DirectionFromGoogle = "from_google" // imported external block
	DirectionToGoogle   = "to_google"   // exported reservation
)

// SyncedEvent mirrors one Google Calendar event. At most one row may exist
// per (hut_id, google_event_id); exported rows additionally link exactly one
// reservation.
type SyncedEvent struct {
	HutID         uuid.UUID  `db:"hut_id" json:"hut_id"`
	GoogleEventID string     `db:"google_event_id" json:"google_event_id"`
	ReservationID *uuid.UUID `db:"reservation_id" json:"reservation_id,omitempty"`
	Direction     string     `db:"direction" json:"direction"`
	StartTime     time.Time  `db:"start_time" json:"start_time"`
	EndTime       time.Time  `db:"end_time" json:"end_time"`
	Title         string     `db:"title" json:"title"`
	LastSyncedAt  time.Time  `db:"last_synced_at" json:"last_synced_at"`
	entity.BaseEntity
}

func (SyncedEvent) TableName() string {
	return "synced_events"
}

// Matches reports whether the cached copy already reflects the given state,
// so an unchanged event causes no write.
func (e *SyncedEvent) Matches(start, end time.Time, title string) bool {
	return e.StartTime.Equal(start) && e.EndTime.Equal(end) && e.Title == title
}
