package repository

import (
	"context"

	"hutbook/core/database"
	"hutbook/core/logger"
	"hutbook/modules/notification/entity"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) (*entity.Notification, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type notificationRepository struct {
	db database.Database
}

func NewNotificationRepository(db database.Database) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) (*entity.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, kind, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Kind, n.Payload).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		logger.Error("NotificationRepository:Create:Error", "error", err, "user_id", n.UserID)
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, kind, payload, read_at, created_at, updated_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var notifications []entity.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		logger.Error("NotificationRepository:GetByUserID:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	query := `UPDATE notifications SET read_at = NOW(), updated_at = NOW() WHERE id = $1 AND user_id = $2 AND read_at IS NULL`
	return r.db.ExecContext(ctx, query, id, userID)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE notifications SET read_at = NOW(), updated_at = NOW() WHERE user_id = $1 AND read_at IS NULL`
	return r.db.ExecContext(ctx, query, userID)
}
