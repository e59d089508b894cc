package entity

import (
	"time"

	"hutbook/core/entity"

	"github.com/google/uuid"
)

// Reservation statuses. Cancellation is a status transition; rows are only
// hard-deleted on explicit owner request.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Reservation is a time-bounded booking against a hut. Invariant: EndTime
// is strictly after StartTime.
type Reservation struct {
	HutID        uuid.UUID `db:"hut_id" json:"hut_id"`
	Title        string    `db:"title" json:"title"`
	ContactName  string    `db:"contact_name" json:"contact_name"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
	ContactPhone string    `db:"contact_phone" json:"contact_phone"`
	Notes        string    `db:"notes" json:"notes"`
	Reference    string    `db:"reference" json:"reference"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	Status       string    `db:"status" json:"status"`
	entity.BaseEntity
}

func (Reservation) TableName() string {
	return "reservations"
}

// Blocks reports whether this reservation takes the slot for availability
// purposes. Pending requests block too, so a slot cannot be double-booked
// while a request awaits a decision.
func (r *Reservation) Blocks() bool {
	return r.Status == StatusConfirmed || r.Status == StatusPending
}
