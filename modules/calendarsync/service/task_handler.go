package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"hutbook/core/logger"
	"hutbook/modules/calendarsync/dto"
	"hutbook/modules/calendarsync/tasks"
	venueRepository "hutbook/modules/venue/repository"

	"github.com/hibiken/asynq"
)

// TaskHandler processes the background sync tasks.
type TaskHandler struct {
	syncService SyncService
	hutRepo     venueRepository.HutRepository
	client      *asynq.Client
}

func NewTaskHandler(syncService SyncService, hutRepo venueRepository.HutRepository, client *asynq.Client) *TaskHandler {
	return &TaskHandler{
		syncService: syncService,
		hutRepo:     hutRepo,
		client:      client,
	}
}

// HandleSyncAll fans the periodic tick out into one task per sync-enabled
// hut. A hut whose previous task is still queued or running is skipped by
// the task ID conflict.
func (h *TaskHandler) HandleSyncAll(ctx context.Context, t *asynq.Task) error {
	huts, err := h.hutRepo.ListSyncEnabledHuts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sync-enabled huts: %w", err)
	}

	enqueued := 0
	for _, hut := range huts {
		task, err := tasks.NewSyncHutTask(hut.ID)
		if err != nil {
			return err
		}
		if _, err := h.client.EnqueueContext(ctx, task); err != nil {
			if stderrors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			logger.Error("TaskHandler:HandleSyncAll:Enqueue:Error", "error", err, "hut_id", hut.ID)
			continue
		}
		enqueued++
	}

	logger.Info("TaskHandler:HandleSyncAll:Done", "huts", len(huts), "enqueued", enqueued)
	return nil
}

// HandleSyncHut runs the full reconciliation for one hut. Only a degraded
// outcome is returned as an error so asynq retries it.
func (h *TaskHandler) HandleSyncHut(ctx context.Context, t *asynq.Task) error {
	var payload tasks.SyncHutPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to parse sync:hut payload: %w: %w", err, asynq.SkipRetry)
	}

	result := h.syncService.SyncHut(ctx, payload.HutID)
	if result.Status == dto.SyncStatusDegraded {
		return fmt.Errorf("sync degraded for hut %s: %s", payload.HutID, result.Message)
	}
	return nil
}
