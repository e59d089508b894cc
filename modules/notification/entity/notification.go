package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"hutbook/core/entity"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindBookingRequested = "booking_requested"
	KindBookingCancelled = "booking_cancelled"
	KindSyncAuthRequired = "sync_auth_required"
)

// Notification is an in-app message for a hut owner.
type Notification struct {
	UserID  uuid.UUID  `db:"user_id" json:"user_id"`
	Kind    string     `db:"kind" json:"kind"`
	Payload Payload    `db:"payload" json:"payload"`
	ReadAt  *time.Time `db:"read_at" json:"read_at,omitempty"`
	entity.BaseEntity
}

func (Notification) TableName() string {
	return "notifications"
}

// Payload carries the structured context of a notification as JSONB.
type Payload map[string]any

func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		p = Payload{}
	}
	return json.Marshal(p)
}

func (p *Payload) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, p)
}
