package repository

import (
	"context"
	"database/sql"
	"time"

	"hutbook/core/database"
	"hutbook/core/logger"
	"hutbook/modules/venue/entity"

	"github.com/google/uuid"
)

type HutRepository interface {
	CreateHut(ctx context.Context, hut *entity.Hut) (*entity.Hut, error)
	GetHutByID(ctx context.Context, id uuid.UUID) (*entity.Hut, error)
	GetHutBySlug(ctx context.Context, slug string) (*entity.Hut, error)
	GetHutsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]entity.Hut, error)
	UpdateHut(ctx context.Context, hut *entity.Hut) error
	UpdateSyncSettings(ctx context.Context, id uuid.UUID, calendarID *string, enabled bool, direction string) error
	UpdateLastSyncedAt(ctx context.Context, id uuid.UUID, at time.Time) error
	SetPhotoURL(ctx context.Context, id uuid.UUID, url string) error
	ListSyncEnabledHuts(ctx context.Context) ([]entity.Hut, error)
	IsSyncEnabled(ctx context.Context, id uuid.UUID) (bool, error)
	DisableSyncForOwner(ctx context.Context, ownerID uuid.UUID) error
}

type hutRepository struct {
	db database.Database
}

func NewHutRepository(db database.Database) HutRepository {
	return &hutRepository{db: db}
}

const hutColumns = `id, owner_id, name, slug, description, timezone, photo_url, availability,
       recurring_sessions, google_calendar_id, sync_enabled, sync_direction, last_synced_at,
       created_at, updated_at`

func (r *hutRepository) CreateHut(ctx context.Context, hut *entity.Hut) (*entity.Hut, error) {
	query := `
		INSERT INTO huts (owner_id, name, slug, description, timezone, availability, recurring_sessions, sync_direction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		hut.OwnerID, hut.Name, hut.Slug, hut.Description, hut.Timezone,
		hut.Availability, hut.RecurringSessions, hut.SyncDirection,
	).Scan(&hut.ID, &hut.CreatedAt, &hut.UpdatedAt)
	if err != nil {
		logger.Error("HutRepository:CreateHut:Error", "error", err)
		return nil, err
	}
	return hut, nil
}

func (r *hutRepository) GetHutByID(ctx context.Context, id uuid.UUID) (*entity.Hut, error) {
	query := `SELECT ` + hutColumns + ` FROM huts WHERE id = $1`

	var hut entity.Hut
	err := r.db.GetContext(ctx, &hut, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("HutRepository:GetHutByID:Error", "error", err)
		return nil, err
	}
	return &hut, nil
}

func (r *hutRepository) GetHutBySlug(ctx context.Context, slug string) (*entity.Hut, error) {
	query := `SELECT ` + hutColumns + ` FROM huts WHERE slug = $1`

	var hut entity.Hut
	err := r.db.GetContext(ctx, &hut, query, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("HutRepository:GetHutBySlug:Error", "error", err)
		return nil, err
	}
	return &hut, nil
}

func (r *hutRepository) GetHutsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]entity.Hut, error) {
	query := `SELECT ` + hutColumns + ` FROM huts WHERE owner_id = $1 ORDER BY created_at`

	var huts []entity.Hut
	if err := r.db.SelectContext(ctx, &huts, query, ownerID); err != nil {
		logger.Error("HutRepository:GetHutsByOwnerID:Error", "error", err)
		return nil, err
	}
	return huts, nil
}

func (r *hutRepository) UpdateHut(ctx context.Context, hut *entity.Hut) error {
	query := `
		UPDATE huts
		SET name = $2, description = $3, timezone = $4, availability = $5,
		    recurring_sessions = $6, updated_at = NOW()
		WHERE id = $1
	`
	return r.db.ExecContext(ctx, query,
		hut.ID, hut.Name, hut.Description, hut.Timezone,
		hut.Availability, hut.RecurringSessions,
	)
}

func (r *hutRepository) UpdateSyncSettings(ctx context.Context, id uuid.UUID, calendarID *string, enabled bool, direction string) error {
	query := `
		UPDATE huts
		SET google_calendar_id = $2, sync_enabled = $3, sync_direction = $4, updated_at = NOW()
		WHERE id = $1
	`
	return r.db.ExecContext(ctx, query, id, calendarID, enabled, direction)
}

func (r *hutRepository) UpdateLastSyncedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE huts SET last_synced_at = $2, updated_at = NOW() WHERE id = $1`
	return r.db.ExecContext(ctx, query, id, at)
}

func (r *hutRepository) SetPhotoURL(ctx context.Context, id uuid.UUID, url string) error {
	query := `UPDATE huts SET photo_url = $2, updated_at = NOW() WHERE id = $1`
	return r.db.ExecContext(ctx, query, id, url)
}

func (r *hutRepository) ListSyncEnabledHuts(ctx context.Context) ([]entity.Hut, error) {
	query := `SELECT ` + hutColumns + ` FROM huts WHERE sync_enabled = true AND google_calendar_id IS NOT NULL`

	var huts []entity.Hut
	if err := r.db.SelectContext(ctx, &huts, query); err != nil {
		logger.Error("HutRepository:ListSyncEnabledHuts:Error", "error", err)
		return nil, err
	}
	return huts, nil
}

func (r *hutRepository) IsSyncEnabled(ctx context.Context, id uuid.UUID) (bool, error) {
	var enabled bool
	err := r.db.GetContext(ctx, &enabled, `SELECT sync_enabled FROM huts WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return enabled, nil
}

func (r *hutRepository) DisableSyncForOwner(ctx context.Context, ownerID uuid.UUID) error {
	query := `UPDATE huts SET sync_enabled = false, updated_at = NOW() WHERE owner_id = $1`
	return r.db.ExecContext(ctx, query, ownerID)
}
