package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hutbook/core/entity"

	"github.com/google/uuid"
)

// Hut is a bookable scout hut venue owned by one user.
type Hut struct {
	OwnerID           uuid.UUID            `db:"owner_id" json:"owner_id"`
	Name              string               `db:"name" json:"name"`
	Slug              string               `db:"slug" json:"slug"`
	Description       string               `db:"description" json:"description"`
	Timezone          string               `db:"timezone" json:"timezone"`
	PhotoURL          *string              `db:"photo_url" json:"photo_url,omitempty"`
	Availability      WeeklyAvailability   `db:"availability" json:"availability"`
	RecurringSessions RecurringSessionList `db:"recurring_sessions" json:"recurring_sessions"`
	GoogleCalendarID  *string              `db:"google_calendar_id" json:"google_calendar_id,omitempty"`
	SyncEnabled       bool                 `db:"sync_enabled" json:"sync_enabled"`
	SyncDirection     string               `db:"sync_direction" json:"sync_direction"`
	LastSyncedAt      *time.Time           `db:"last_synced_at" json:"last_synced_at,omitempty"`
	entity.BaseEntity
}

func (Hut) TableName() string {
	return "huts"
}

// Location resolves the hut's IANA timezone, falling back to UTC.
func (h *Hut) Location() *time.Location {
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WeeklyAvailability marks which weekdays the hut accepts bookings at all.
// Keyed 0=Sunday..6=Saturday to match time.Weekday.
type WeeklyAvailability [7]bool

func (a WeeklyAvailability) Open(day time.Weekday) bool {
	return a[int(day)]
}

func (a WeeklyAvailability) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *WeeklyAvailability) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, a)
}

// ClockTime is a time of day without a date, serialized as "HH:MM".
type ClockTime struct {
	Hour   int
	Minute int
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// MinutesOfDay orders clock times within a day.
func (t ClockTime) MinutesOfDay() int {
	return t.Hour*60 + t.Minute
}

// RecurringSession is a weekly-repeating blocked interval (a regular group
// meeting such as Cubs or Beavers). It is projected onto concrete dates at
// query time, never materialized as rows.
type RecurringSession struct {
	Name      string       `json:"name"`
	Enabled   bool         `json:"enabled"`
	Weekday   time.Weekday `json:"weekday"`
	StartTime ClockTime    `json:"start_time"`
	EndTime   ClockTime    `json:"end_time"`
}

func (s RecurringSession) Validate() error {
	if s.Name == "" {
		return errors.New("session name is required")
	}
	if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
		return fmt.Errorf("invalid weekday %d", s.Weekday)
	}
	if s.EndTime.MinutesOfDay() <= s.StartTime.MinutesOfDay() {
		return fmt.Errorf("session %q must end after it starts", s.Name)
	}
	return nil
}

type RecurringSessionList []RecurringSession

func (l RecurringSessionList) Value() (driver.Value, error) {
	if l == nil {
		l = RecurringSessionList{}
	}
	return json.Marshal(l)
}

func (l *RecurringSessionList) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, l)
}

func (l RecurringSessionList) Validate() error {
	seen := make(map[string]bool, len(l))
	for _, s := range l {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate session name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
