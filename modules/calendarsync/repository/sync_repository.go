package repository

import (
	"context"
	"time"

	"hutbook/core/database"
	"hutbook/core/logger"
	"hutbook/modules/calendarsync/entity"

	"github.com/google/uuid"
)

type SyncedEventRepository interface {
	Create(ctx context.Context, ev *entity.SyncedEvent) (*entity.SyncedEvent, error)
	Update(ctx context.Context, ev *entity.SyncedEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByHutAndDirection(ctx context.Context, hutID uuid.UUID, direction string) ([]entity.SyncedEvent, error)
	GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.SyncedEvent, error)
	GetImportedOverlapping(ctx context.Context, hutID uuid.UUID, start, end time.Time) ([]entity.SyncedEvent, error)
}

type syncedEventRepository struct {
	db database.Database
}

func NewSyncedEventRepository(db database.Database) SyncedEventRepository {
	return &syncedEventRepository{db: db}
}

const syncedEventColumns = `id, hut_id, google_event_id, reservation_id, direction, start_time, end_time,
       title, last_synced_at, created_at, updated_at`

func (r *syncedEventRepository) Create(ctx context.Context, ev *entity.SyncedEvent) (*entity.SyncedEvent, error) {
	// ON CONFLICT keeps the (hut_id, google_event_id) pair unique even if two
	// passes race; the later writer updates the earlier row in place.
	query := `
		INSERT INTO synced_events (hut_id, google_event_id, reservation_id, direction, start_time, end_time, title, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (hut_id, google_event_id) DO UPDATE
		SET reservation_id = EXCLUDED.reservation_id,
		    start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    title = EXCLUDED.title,
		    last_synced_at = EXCLUDED.last_synced_at,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		ev.HutID, ev.GoogleEventID, ev.ReservationID, ev.Direction,
		ev.StartTime, ev.EndTime, ev.Title, ev.LastSyncedAt,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		logger.Error("SyncedEventRepository:Create:Error", "error", err, "hut_id", ev.HutID)
		return nil, err
	}
	return ev, nil
}

func (r *syncedEventRepository) Update(ctx context.Context, ev *entity.SyncedEvent) error {
	query := `
		UPDATE synced_events
		SET start_time = $2, end_time = $3, title = $4, last_synced_at = $5, updated_at = NOW()
		WHERE id = $1
	`
	return r.db.ExecContext(ctx, query, ev.ID, ev.StartTime, ev.EndTime, ev.Title, ev.LastSyncedAt)
}

func (r *syncedEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.ExecContext(ctx, `DELETE FROM synced_events WHERE id = $1`, id)
}

func (r *syncedEventRepository) GetByHutAndDirection(ctx context.Context, hutID uuid.UUID, direction string) ([]entity.SyncedEvent, error) {
	query := `SELECT ` + syncedEventColumns + ` FROM synced_events WHERE hut_id = $1 AND direction = $2 ORDER BY start_time`

	var events []entity.SyncedEvent
	if err := r.db.SelectContext(ctx, &events, query, hutID, direction); err != nil {
		logger.Error("SyncedEventRepository:GetByHutAndDirection:Error", "error", err, "hut_id", hutID)
		return nil, err
	}
	return events, nil
}

func (r *syncedEventRepository) GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.SyncedEvent, error) {
	query := `SELECT ` + syncedEventColumns + ` FROM synced_events WHERE reservation_id = $1 AND direction = $2`

	var events []entity.SyncedEvent
	if err := r.db.SelectContext(ctx, &events, query, reservationID, entity.DirectionToGoogle); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

func (r *syncedEventRepository) GetImportedOverlapping(ctx context.Context, hutID uuid.UUID, start, end time.Time) ([]entity.SyncedEvent, error) {
	// Half-open overlap: [start_time, end_time) intersects [start, end).
	query := `SELECT ` + syncedEventColumns + `
		FROM synced_events
		WHERE hut_id = $1 AND direction = $2 AND start_time < $4 AND end_time > $3
		ORDER BY start_time`

	var events []entity.SyncedEvent
	if err := r.db.SelectContext(ctx, &events, query, hutID, entity.DirectionFromGoogle, start, end); err != nil {
		logger.Error("SyncedEventRepository:GetImportedOverlapping:Error", "error", err, "hut_id", hutID)
		return nil, err
	}
	return events, nil
}
