package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeSyncAll = "sync:all"
	TypeSyncHut = "sync:hut"
)

type SyncHutPayload struct {
	HutID uuid.UUID `json:"hut_id"`
}

// NewSyncAllTask fans out into one sync:hut task per sync-enabled hut.
func NewSyncAllTask() *asynq.Task {
	return asynq.NewTask(TypeSyncAll, nil)
}

// NewSyncHutTask syncs a single hut. The task ID pins one in-flight task
// per hut so the scheduler cannot pile up duplicates in the queue.
func NewSyncHutTask(hutID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncHutPayload{HutID: hutID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSyncHut, payload, asynq.TaskID("sync:hut:"+hutID.String())), nil
}
