package dto

import (
	"time"

	coreEntity "hutbook/core/entity"

	"github.com/google/uuid"
)

// CreateNotificationInput describes a notification to deliver. It doubles
// as the background task payload.
type CreateNotificationInput struct {
	UserID        uuid.UUID  `json:"user_id"`
	Kind          string     `json:"kind"`
	HutID         uuid.UUID  `json:"hut_id"`
	HutName       string     `json:"hut_name"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	Reference     string     `json:"reference,omitempty"`
	Title         string     `json:"title,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	ContactName   string     `json:"contact_name,omitempty"`
}

type NotificationResponse struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type NotificationListResponse struct {
	coreEntity.Pagination[NotificationResponse]
	UnreadCount int `json:"unread_count"`
}
