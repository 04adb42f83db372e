package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLookupsRefresh invalidates cached option lists and reloads the PO book.
	TaskLookupsRefresh = "lookups:refresh"
)

// LookupsRefreshPayload describes why a refresh was requested.
type LookupsRefreshPayload struct {
	Reason string `json:"reason"`
}

// NewLookupsRefreshTask constructs an Asynq task.
func NewLookupsRefreshTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "scheduled"
	}
	data, err := json.Marshal(LookupsRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLookupsRefresh, data), nil
}
