package entity

import (
	"time"

	"hutbook/core/entity"

	"github.com/google/uuid"
)

const ProviderGoogle = "google"

// CalendarConnection stores a user's calendar provider OAuth credential.
// One row per (user, provider); replaced on re-grant, deleted on disconnect
// or irrecoverable refresh failure.
type CalendarConnection struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Provider       string    `db:"provider" json:"provider"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	CalendarEmail  string    `db:"calendar_email" json:"calendar_email"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	entity.BaseEntity
}

func (CalendarConnection) TableName() string {
	return "calendar_connections"
}
