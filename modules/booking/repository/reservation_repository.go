package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hutbook/core/database"
	"hutbook/core/logger"
	"hutbook/modules/booking/entity"

	"github.com/google/uuid"
)

type ReservationRepository interface {
	Create(ctx context.Context, res *entity.Reservation) (*entity.Reservation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	GetByHutID(ctx context.Context, hutID uuid.UUID, status string, limit, offset int) ([]entity.Reservation, error)
	CountByHutID(ctx context.Context, hutID uuid.UUID, status string) (int, error)
	// GetBlockingOverlapping returns confirmed and pending reservations whose
	// half-open interval intersects [start, end), optionally excluding one id.
	GetBlockingOverlapping(ctx context.Context, hutID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]entity.Reservation, error)
	GetConfirmedFuture(ctx context.Context, hutID uuid.UUID, after time.Time) ([]entity.Reservation, error)
	Update(ctx context.Context, res *entity.Reservation) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type reservationRepository struct {
	db database.Database
}

func NewReservationRepository(db database.Database) ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, hut_id, title, contact_name, contact_email, contact_phone, notes,
       reference, start_time, end_time, status, created_at, updated_at`

func (r *reservationRepository) Create(ctx context.Context, res *entity.Reservation) (*entity.Reservation, error) {
	query := `
		INSERT INTO reservations (hut_id, title, contact_name, contact_email, contact_phone, notes, reference, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		res.HutID, res.Title, res.ContactName, res.ContactEmail, res.ContactPhone,
		res.Notes, res.Reference, res.StartTime, res.EndTime, res.Status,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		logger.Error("ReservationRepository:Create:Error", "error", err, "hut_id", res.HutID)
		return nil, err
	}
	return res, nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	var res entity.Reservation
	err := r.db.GetContext(ctx, &res, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ReservationRepository:GetByID:Error", "error", err)
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) GetByHutID(ctx context.Context, hutID uuid.UUID, status string, limit, offset int) ([]entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE hut_id = $1`
	args := []any{hutID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY start_time LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var reservations []entity.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		logger.Error("ReservationRepository:GetByHutID:Error", "error", err, "hut_id", hutID)
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) CountByHutID(ctx context.Context, hutID uuid.UUID, status string) (int, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE hut_id = $1`
	args := []any{hutID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		logger.Error("ReservationRepository:CountByHutID:Error", "error", err, "hut_id", hutID)
		return 0, err
	}
	return count, nil
}

func (r *reservationRepository) GetBlockingOverlapping(ctx context.Context, hutID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE hut_id = $1
		  AND status IN ($2, $3)
		  AND start_time < $5 AND end_time > $4`
	args := []any{hutID, entity.StatusConfirmed, entity.StatusPending, start, end}
	if excludeID != nil {
		query += ` AND id <> $6`
		args = append(args, *excludeID)
	}
	query += ` ORDER BY start_time`

	var reservations []entity.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		logger.Error("ReservationRepository:GetBlockingOverlapping:Error", "error", err, "hut_id", hutID)
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) GetConfirmedFuture(ctx context.Context, hutID uuid.UUID, after time.Time) ([]entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE hut_id = $1 AND status = $2 AND start_time > $3
		ORDER BY start_time`

	var reservations []entity.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, hutID, entity.StatusConfirmed, after); err != nil {
		logger.Error("ReservationRepository:GetConfirmedFuture:Error", "error", err, "hut_id", hutID)
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) Update(ctx context.Context, res *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET title = $2, notes = $3, start_time = $4, end_time = $5, updated_at = NOW()
		WHERE id = $1
	`
	return r.db.ExecContext(ctx, query, res.ID, res.Title, res.Notes, res.StartTime, res.EndTime)
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE reservations SET status = $2, updated_at = NOW() WHERE id = $1`
	return r.db.ExecContext(ctx, query, id, status)
}

func (r *reservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
}
