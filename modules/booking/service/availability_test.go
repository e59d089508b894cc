package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	coreErrors "hutbook/core/errors"
	"hutbook/modules/booking/dto"
	"hutbook/modules/booking/entity"
	syncEntity "hutbook/modules/calendarsync/entity"
	venueEntity "hutbook/modules/venue/entity"

	"github.com/google/uuid"
)

// In-memory repository stubs shared by the service tests in this package.

type stubHutRepo struct {
	huts    map[uuid.UUID]*venueEntity.Hut
	err     error
	lastSyn map[uuid.UUID]time.Time
}

func newStubHutRepo(huts ...*venueEntity.Hut) *stubHutRepo {
	r := &stubHutRepo{huts: make(map[uuid.UUID]*venueEntity.Hut), lastSyn: make(map[uuid.UUID]time.Time)}
	for _, h := range huts {
		r.huts[h.ID] = h
	}
	return r
}

func (r *stubHutRepo) CreateHut(ctx context.Context, hut *venueEntity.Hut) (*venueEntity.Hut, error) {
	hut.ID = uuid.New()
	r.huts[hut.ID] = hut
	return hut, nil
}

func (r *stubHutRepo) GetHutByID(ctx context.Context, id uuid.UUID) (*venueEntity.Hut, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.huts[id], nil
}

func (r *stubHutRepo) GetHutBySlug(ctx context.Context, slug string) (*venueEntity.Hut, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, h := range r.huts {
		if h.Slug == slug {
			return h, nil
		}
	}
	return nil, nil
}

func (r *stubHutRepo) GetHutsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]venueEntity.Hut, error) {
	var out []venueEntity.Hut
	for _, h := range r.huts {
		if h.OwnerID == ownerID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (r *stubHutRepo) UpdateHut(ctx context.Context, hut *venueEntity.Hut) error {
	r.huts[hut.ID] = hut
	return nil
}

func (r *stubHutRepo) UpdateSyncSettings(ctx context.Context, id uuid.UUID, calendarID *string, enabled bool, direction string) error {
	if h, ok := r.huts[id]; ok {
		h.GoogleCalendarID = calendarID
		h.SyncEnabled = enabled
		h.SyncDirection = direction
	}
	return nil
}

func (r *stubHutRepo) UpdateLastSyncedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.lastSyn[id] = at
	return nil
}

func (r *stubHutRepo) SetPhotoURL(ctx context.Context, id uuid.UUID, url string) error {
	return nil
}

func (r *stubHutRepo) ListSyncEnabledHuts(ctx context.Context) ([]venueEntity.Hut, error) {
	var out []venueEntity.Hut
	for _, h := range r.huts {
		if h.SyncEnabled && h.GoogleCalendarID != nil {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (r *stubHutRepo) IsSyncEnabled(ctx context.Context, id uuid.UUID) (bool, error) {
	if h, ok := r.huts[id]; ok {
		return h.SyncEnabled, nil
	}
	return false, nil
}

func (r *stubHutRepo) DisableSyncForOwner(ctx context.Context, ownerID uuid.UUID) error {
	for _, h := range r.huts {
		if h.OwnerID == ownerID {
			h.SyncEnabled = false
		}
	}
	return nil
}

type stubReservationRepo struct {
	reservations map[uuid.UUID]*entity.Reservation
	err          error
	afterCreate  func()
}

func newStubReservationRepo(reservations ...*entity.Reservation) *stubReservationRepo {
	r := &stubReservationRepo{reservations: make(map[uuid.UUID]*entity.Reservation)}
	for _, res := range reservations {
		if res.ID == uuid.Nil {
			res.ID = uuid.New()
		}
		r.reservations[res.ID] = res
	}
	return r
}

func (r *stubReservationRepo) Create(ctx context.Context, res *entity.Reservation) (*entity.Reservation, error) {
	if r.err != nil {
		return nil, r.err
	}
	res.ID = uuid.New()
	r.reservations[res.ID] = res
	if r.afterCreate != nil {
		r.afterCreate()
	}
	return res, nil
}

func (r *stubReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return r.reservations[id], nil
}

func (r *stubReservationRepo) GetByHutID(ctx context.Context, hutID uuid.UUID, status string, limit, offset int) ([]entity.Reservation, error) {
	var out []entity.Reservation
	for _, res := range r.reservations {
		if res.HutID == hutID && (status == "" || res.Status == status) {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubReservationRepo) CountByHutID(ctx context.Context, hutID uuid.UUID, status string) (int, error) {
	count := 0
	for _, res := range r.reservations {
		if res.HutID == hutID && (status == "" || res.Status == status) {
			count++
		}
	}
	return count, nil
}

func (r *stubReservationRepo) GetBlockingOverlapping(ctx context.Context, hutID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]entity.Reservation, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []entity.Reservation
	for _, res := range r.reservations {
		if res.HutID != hutID || !res.Blocks() {
			continue
		}
		if excludeID != nil && res.ID == *excludeID {
			continue
		}
		if Overlaps(res.StartTime, res.EndTime, start, end) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *stubReservationRepo) GetConfirmedFuture(ctx context.Context, hutID uuid.UUID, after time.Time) ([]entity.Reservation, error) {
	var out []entity.Reservation
	for _, res := range r.reservations {
		if res.HutID == hutID && res.Status == entity.StatusConfirmed && res.StartTime.After(after) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *stubReservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	r.reservations[res.ID] = res
	return nil
}

func (r *stubReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if res, ok := r.reservations[id]; ok {
		res.Status = status
	}
	return nil
}

func (r *stubReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.reservations, id)
	return nil
}

type stubSyncedEventRepo struct {
	events map[uuid.UUID]*syncEntity.SyncedEvent
	err    error
}

func newStubSyncedEventRepo(events ...*syncEntity.SyncedEvent) *stubSyncedEventRepo {
	r := &stubSyncedEventRepo{events: make(map[uuid.UUID]*syncEntity.SyncedEvent)}
	for _, ev := range events {
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		r.events[ev.ID] = ev
	}
	return r
}

func (r *stubSyncedEventRepo) Create(ctx context.Context, ev *syncEntity.SyncedEvent) (*syncEntity.SyncedEvent, error) {
	for _, existing := range r.events {
		if existing.HutID == ev.HutID && existing.GoogleEventID == ev.GoogleEventID {
			ev.ID = existing.ID
			r.events[existing.ID] = ev
			return ev, nil
		}
	}
	ev.ID = uuid.New()
	r.events[ev.ID] = ev
	return ev, nil
}

func (r *stubSyncedEventRepo) Update(ctx context.Context, ev *syncEntity.SyncedEvent) error {
	r.events[ev.ID] = ev
	return nil
}

func (r *stubSyncedEventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.events, id)
	return nil
}

func (r *stubSyncedEventRepo) GetByHutAndDirection(ctx context.Context, hutID uuid.UUID, direction string) ([]syncEntity.SyncedEvent, error) {
	var out []syncEntity.SyncedEvent
	for _, ev := range r.events {
		if ev.HutID == hutID && ev.Direction == direction {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (r *stubSyncedEventRepo) GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*syncEntity.SyncedEvent, error) {
	for _, ev := range r.events {
		if ev.ReservationID != nil && *ev.ReservationID == reservationID && ev.Direction == syncEntity.DirectionToGoogle {
			return ev, nil
		}
	}
	return nil, nil
}

func (r *stubSyncedEventRepo) GetImportedOverlapping(ctx context.Context, hutID uuid.UUID, start, end time.Time) ([]syncEntity.SyncedEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []syncEntity.SyncedEvent
	for _, ev := range r.events {
		if ev.HutID == hutID && ev.Direction == syncEntity.DirectionFromGoogle && Overlaps(ev.StartTime, ev.EndTime, start, end) {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func testHut(tz string) *venueEntity.Hut {
	hut := &venueEntity.Hut{
		OwnerID:      uuid.New(),
		Name:         "1st Testville Scout Hut",
		Slug:         "1st-testville-scout-hut",
		Timezone:     tz,
		Availability: venueEntity.WeeklyAvailability{true, true, true, true, true, true, true},
	}
	hut.ID = uuid.New()
	return hut
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

func TestOverlaps(t *testing.T) {
	base := mustTime(t, "2026-09-07T10:00:00Z")
	hour := time.Hour

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", base, base.Add(hour), base, base.Add(hour), true},
		{"partial overlap", base, base.Add(hour), base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"contained", base, base.Add(2 * hour), base.Add(30 * time.Minute), base.Add(hour), true},
		{"touching end to start", base, base.Add(hour), base.Add(hour), base.Add(2 * hour), false},
		{"touching start to end", base.Add(hour), base.Add(2 * hour), base, base.Add(hour), false},
		{"disjoint", base, base.Add(hour), base.Add(3 * hour), base.Add(4 * hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandRecurringSession(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	cubs := venueEntity.RecurringSession{
		Name:      "Cubs",
		Enabled:   true,
		Weekday:   time.Monday,
		StartTime: venueEntity.ClockTime{Hour: 16},
		EndTime:   venueEntity.ClockTime{Hour: 17},
	}

	// 2026-09-07 is a Monday.
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, london)

	start, end, ok := ExpandRecurringSession(cubs, monday, london)
	if !ok {
		t.Fatal("expected the rule to expand on a Monday")
	}
	if want := time.Date(2026, 9, 7, 16, 0, 0, 0, london); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2026, 9, 7, 17, 0, 0, 0, london); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}

	tuesday := monday.AddDate(0, 0, 1)
	if _, _, ok := ExpandRecurringSession(cubs, tuesday, london); ok {
		t.Error("rule expanded on a Tuesday")
	}

	disabled := cubs
	disabled.Enabled = false
	if _, _, ok := ExpandRecurringSession(disabled, monday, london); ok {
		t.Error("disabled rule expanded")
	}
}

func TestCheckAvailabilityReservationConflicts(t *testing.T) {
	hut := testHut("UTC")
	day := mustTime(t, "2026-09-10T00:00:00Z")

	booked := &entity.Reservation{
		HutID:       hut.ID,
		Title:       "District meeting",
		ContactName: "Alex Reed",
		StartTime:   day.Add(10 * time.Hour),
		EndTime:     day.Add(11 * time.Hour),
		Status:      entity.StatusConfirmed,
	}
	svc := NewAvailabilityService(newStubHutRepo(hut), newStubReservationRepo(booked), newStubSyncedEventRepo())

	// 10:30-11:30 overlaps the 10:00-11:00 booking.
	result, appErr := svc.CheckAvailability(context.Background(), hut.ID, day.Add(10*time.Hour+30*time.Minute), day.Add(11*time.Hour+30*time.Minute), dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if result.Available {
		t.Error("expected a conflict")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Type != dto.ConflictReservation {
		t.Fatalf("conflicts = %+v", result.Conflicts)
	}
	if result.Conflicts[0].ContactName != "" {
		t.Error("public view must not expose the contact name")
	}

	// 11:00-12:00 only touches the booking's end and is free.
	result, appErr = svc.CheckAvailability(context.Background(), hut.ID, day.Add(11*time.Hour), day.Add(12*time.Hour), dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if !result.Available {
		t.Errorf("touching interval reported conflicts: %+v", result.Conflicts)
	}

	// The owner view carries the contact name.
	result, appErr = svc.CheckAvailability(context.Background(), hut.ID, day.Add(10*time.Hour), day.Add(11*time.Hour), dto.AvailabilityOptions{OwnerView: true})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].ContactName != "Alex Reed" {
		t.Errorf("owner view conflicts = %+v", result.Conflicts)
	}
}

func TestCheckAvailabilityPendingBlocks(t *testing.T) {
	hut := testHut("UTC")
	day := mustTime(t, "2026-09-10T00:00:00Z")

	pending := &entity.Reservation{
		HutID:     hut.ID,
		StartTime: day.Add(14 * time.Hour),
		EndTime:   day.Add(16 * time.Hour),
		Status:    entity.StatusPending,
	}
	svc := NewAvailabilityService(newStubHutRepo(hut), newStubReservationRepo(pending), newStubSyncedEventRepo())

	result, appErr := svc.CheckAvailability(context.Background(), hut.ID, day.Add(15*time.Hour), day.Add(17*time.Hour), dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if result.Available {
		t.Error("a pending reservation must block the slot")
	}
}

func TestCheckAvailabilityExternalBlockRedaction(t *testing.T) {
	hut := testHut("UTC")
	day := mustTime(t, "2026-09-10T00:00:00Z")

	block := &syncEntity.SyncedEvent{
		HutID:         hut.ID,
		GoogleEventID: "ev-1",
		Direction:     syncEntity.DirectionFromGoogle,
		StartTime:     day.Add(9 * time.Hour),
		EndTime:       day.Add(10 * time.Hour),
		Title:         "Dentist appointment",
	}
	svc := NewAvailabilityService(newStubHutRepo(hut), newStubReservationRepo(), newStubSyncedEventRepo(block))

	result, appErr := svc.CheckAvailability(context.Background(), hut.ID, day.Add(9*time.Hour), day.Add(10*time.Hour), dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("conflicts = %+v", result.Conflicts)
	}
	if got := result.Conflicts[0].Title; got != dto.RedactedExternalTitle {
		t.Errorf("public title = %q, want %q", got, dto.RedactedExternalTitle)
	}

	result, appErr = svc.CheckAvailability(context.Background(), hut.ID, day.Add(9*time.Hour), day.Add(10*time.Hour), dto.AvailabilityOptions{OwnerView: true})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if got := result.Conflicts[0].Title; got != "Dentist appointment" {
		t.Errorf("owner title = %q", got)
	}
}

func TestCheckAvailabilityRecurringSession(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	hut := testHut("Europe/London")
	hut.RecurringSessions = venueEntity.RecurringSessionList{{
		Name:      "Cubs",
		Enabled:   true,
		Weekday:   time.Monday,
		StartTime: venueEntity.ClockTime{Hour: 16},
		EndTime:   venueEntity.ClockTime{Hour: 17},
	}}
	svc := NewAvailabilityService(newStubHutRepo(hut), newStubReservationRepo(), newStubSyncedEventRepo())

	// Monday 16:30-17:30 London time overlaps the 16:00-17:00 Cubs session.
	start := time.Date(2026, 9, 7, 16, 30, 0, 0, london)
	result, appErr := svc.CheckAvailability(context.Background(), hut.ID, start, start.Add(time.Hour), dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if result.Available {
		t.Error("expected the Cubs session to conflict")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Type != dto.ConflictRecurringSession || result.Conflicts[0].Title != "Cubs" {
		t.Fatalf("conflicts = %+v", result.Conflicts)
	}

	// Monday 17:00-18:00 touches the session end only.
	start = time.Date(2026, 9, 7, 17, 0, 0, 0, london)
	result, appErr = svc.CheckAvailability(context.Background(), hut.ID, start, start.Add(time.Hour), dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if !result.Available {
		t.Errorf("touching interval reported conflicts: %+v", result.Conflicts)
	}

	// Same clock interval on a Tuesday is free.
	start = time.Date(2026, 9, 8, 16, 30, 0, 0, london)
	result, appErr = svc.CheckAvailability(context.Background(), hut.ID, start, start.Add(time.Hour), dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if !result.Available {
		t.Errorf("Tuesday reported conflicts: %+v", result.Conflicts)
	}
}

func TestCheckAvailabilityCrossMidnight(t *testing.T) {
	hut := testHut("UTC")
	hut.RecurringSessions = venueEntity.RecurringSessionList{{
		Name:      "Scouts",
		Enabled:   true,
		Weekday:   time.Saturday,
		StartTime: venueEntity.ClockTime{Hour: 9},
		EndTime:   venueEntity.ClockTime{Hour: 11},
	}}
	svc := NewAvailabilityService(newStubHutRepo(hut), newStubReservationRepo(), newStubSyncedEventRepo())

	// Friday 20:00 through Saturday 10:00 touches both civil dates, so the
	// Saturday morning session must be detected. 2026-09-11 is a Friday.
	start := mustTime(t, "2026-09-11T20:00:00Z")
	end := mustTime(t, "2026-09-12T10:00:00Z")
	result, appErr := svc.CheckAvailability(context.Background(), hut.ID, start, end, dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if result.Available {
		t.Error("expected the Saturday session to conflict")
	}
}

func TestCheckAvailabilityExcludesReservation(t *testing.T) {
	hut := testHut("UTC")
	day := mustTime(t, "2026-09-10T00:00:00Z")

	booked := &entity.Reservation{
		HutID:     hut.ID,
		StartTime: day.Add(10 * time.Hour),
		EndTime:   day.Add(11 * time.Hour),
		Status:    entity.StatusConfirmed,
	}
	repo := newStubReservationRepo(booked)
	svc := NewAvailabilityService(newStubHutRepo(hut), repo, newStubSyncedEventRepo())

	result, appErr := svc.CheckAvailability(context.Background(), hut.ID, booked.StartTime, booked.EndTime, dto.AvailabilityOptions{ExcludeReservationID: &booked.ID})
	if appErr != nil {
		t.Fatalf("CheckAvailability: %v", appErr)
	}
	if !result.Available {
		t.Errorf("a reservation must not conflict with itself: %+v", result.Conflicts)
	}
}

func TestCheckAvailabilityDegradesOnSyncRepoError(t *testing.T) {
	hut := testHut("UTC")
	syncRepo := newStubSyncedEventRepo()
	syncRepo.err = errors.New("connection refused")
	svc := NewAvailabilityService(newStubHutRepo(hut), newStubReservationRepo(), syncRepo)

	start := mustTime(t, "2026-09-10T10:00:00Z")
	result, appErr := svc.CheckAvailability(context.Background(), hut.ID, start, start.Add(time.Hour), dto.AvailabilityOptions{})
	if appErr != nil {
		t.Fatalf("a sync repo failure must not fail the check: %v", appErr)
	}
	if result.Warning == "" {
		t.Error("expected a degradation warning")
	}
	if !result.Available {
		t.Errorf("unexpected conflicts: %+v", result.Conflicts)
	}
}

func TestCheckAvailabilityFailsClosedOnReservationError(t *testing.T) {
	hut := testHut("UTC")
	repo := newStubReservationRepo()
	repo.err = errors.New("connection refused")
	svc := NewAvailabilityService(newStubHutRepo(hut), repo, newStubSyncedEventRepo())

	start := mustTime(t, "2026-09-10T10:00:00Z")
	_, appErr := svc.CheckAvailability(context.Background(), hut.ID, start, start.Add(time.Hour), dto.AvailabilityOptions{})
	if appErr == nil {
		t.Fatal("a reservation read failure must fail the check")
	}
	if appErr.Code != coreErrors.ErrInternalServer {
		t.Errorf("code = %v", appErr.Code)
	}
}

func TestCheckAvailabilityUnknownHut(t *testing.T) {
	svc := NewAvailabilityService(newStubHutRepo(), newStubReservationRepo(), newStubSyncedEventRepo())

	start := mustTime(t, "2026-09-10T10:00:00Z")
	_, appErr := svc.CheckAvailability(context.Background(), uuid.New(), start, start.Add(time.Hour), dto.AvailabilityOptions{})
	if appErr == nil || appErr.Code != coreErrors.ErrNotFound {
		t.Fatalf("appErr = %v, want not found", appErr)
	}
}

func TestCheckAvailabilityRejectsInvertedWindow(t *testing.T) {
	hut := testHut("UTC")
	svc := NewAvailabilityService(newStubHutRepo(hut), newStubReservationRepo(), newStubSyncedEventRepo())

	start := mustTime(t, "2026-09-10T10:00:00Z")
	_, appErr := svc.CheckAvailability(context.Background(), hut.ID, start, start, dto.AvailabilityOptions{})
	if appErr == nil || appErr.Code != coreErrors.ErrInvalidInput {
		t.Fatalf("appErr = %v, want invalid input", appErr)
	}
}
