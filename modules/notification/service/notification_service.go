package service

import (
	"context"
	"encoding/json"
	"fmt"

	coreEntity "hutbook/core/entity"
	"hutbook/core/errors"
	"hutbook/core/logger"
	"hutbook/core/params"
	"hutbook/modules/notification/dto"
	"hutbook/modules/notification/entity"
	"hutbook/modules/notification/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeDeliver is the background task that persists a notification.
const TypeDeliver = "notification:deliver"

type NotificationService interface {
	// Notify queues a notification for delivery. Failures are logged and
	// swallowed; a lost notification never fails the triggering operation.
	Notify(ctx context.Context, input *dto.CreateNotificationInput)

	// HandleDeliver is the asynq handler that writes the notification row.
	HandleDeliver(ctx context.Context, t *asynq.Task) error

	List(ctx context.Context, userID uuid.UUID, page params.QueryParams) (*dto.NotificationListResponse, *errors.AppError)
	MarkRead(ctx context.Context, userID, id uuid.UUID) *errors.AppError
	MarkAllRead(ctx context.Context, userID uuid.UUID) *errors.AppError
}

type notificationService struct {
	repo   repository.NotificationRepository
	client *asynq.Client
}

func NewNotificationService(repo repository.NotificationRepository, client *asynq.Client) NotificationService {
	return &notificationService{repo: repo, client: client}
}

func (s *notificationService) Notify(ctx context.Context, input *dto.CreateNotificationInput) {
	payload, err := json.Marshal(input)
	if err != nil {
		logger.Error("NotificationService:Notify:Marshal:Error", "error", err)
		return
	}
	task := asynq.NewTask(TypeDeliver, payload)
	if _, err := s.client.EnqueueContext(ctx, task); err != nil {
		logger.Error("NotificationService:Notify:Enqueue:Error", "error", err, "kind", input.Kind, "user_id", input.UserID)
	}
}

func (s *notificationService) HandleDeliver(ctx context.Context, t *asynq.Task) error {
	var input dto.CreateNotificationInput
	if err := json.Unmarshal(t.Payload(), &input); err != nil {
		return fmt.Errorf("failed to parse notification payload: %w: %w", err, asynq.SkipRetry)
	}

	payload := entity.Payload{
		"hut_id":   input.HutID.String(),
		"hut_name": input.HutName,
	}
	if input.ReservationID != nil {
		payload["reservation_id"] = input.ReservationID.String()
	}
	if input.Reference != "" {
		payload["reference"] = input.Reference
	}
	if input.Title != "" {
		payload["title"] = input.Title
	}
	if input.StartTime != nil {
		payload["start_time"] = input.StartTime
	}
	if input.EndTime != nil {
		payload["end_time"] = input.EndTime
	}
	if input.ContactName != "" {
		payload["contact_name"] = input.ContactName
	}

	if _, err := s.repo.Create(ctx, &entity.Notification{
		UserID:  input.UserID,
		Kind:    input.Kind,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("failed to persist notification: %w", err)
	}

	logger.Info("NotificationService:HandleDeliver:Delivered", "kind", input.Kind, "user_id", input.UserID)
	return nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, page params.QueryParams) (*dto.NotificationListResponse, *errors.AppError) {
	page = page.Normalize()
	total, err := s.repo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to count notifications", err)
	}
	notifications, err := s.repo.GetByUserID(ctx, userID, page.PageSize, (page.PageNumber-1)*page.PageSize)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list notifications", err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to count unread notifications", err)
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, dto.NotificationResponse{
			ID:        n.ID.String(),
			Kind:      n.Kind,
			Payload:   n.Payload,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}
	resp := &dto.NotificationListResponse{UnreadCount: unread}
	resp.Pagination = *coreEntity.NewPagination(items, total, page.PageNumber, page.PageSize)
	return resp, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) *errors.AppError {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to mark notification read", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) *errors.AppError {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to mark notifications read", err)
	}
	return nil
}
