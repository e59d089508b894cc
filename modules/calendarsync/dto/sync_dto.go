package dto

import "time"

// Sync outcome statuses. Sync never raises a fatal error into the calling
// flow; it reports one of these instead.
const (
	SyncStatusOK           = "ok"
	SyncStatusSkipped      = "skipped"
	SyncStatusDegraded     = "degraded"
	SyncStatusAuthRequired = "auth_required"
	SyncStatusRunning      = "already_running"
)

// SyncResult is the tagged result of a full sync pass over one hut.
type SyncResult struct {
	Status   string     `json:"status"`
	Imported int        `json:"imported"`
	Updated  int        `json:"updated"`
	Removed  int        `json:"removed"`
	Exported int        `json:"exported"`
	Deleted  int        `json:"deleted"`
	SyncedAt *time.Time `json:"synced_at,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// Degrade marks the result degraded, keeping the first message set.
func (r *SyncResult) Degrade(msg string) {
	r.Status = SyncStatusDegraded
	if r.Message == "" {
		r.Message = msg
	}
}

type GoogleCalendarResponse struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary"`
}

type CalendarListResponse struct {
	Calendars []GoogleCalendarResponse `json:"calendars"`
}
