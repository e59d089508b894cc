package dto

import "time"

type OAuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type ConnectionStatusResponse struct {
	Connected      bool       `json:"connected"`
	CalendarEmail  string     `json:"calendar_email,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}
