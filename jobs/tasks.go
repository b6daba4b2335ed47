package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDailySnapshot recomputes and caches a business day's summary.
	TaskDailySnapshot = "accounting:daily_snapshot"
)

// DailySnapshotPayload selects the day to snapshot. An empty date means today.
type DailySnapshotPayload struct {
	Date string `json:"date,omitempty"`
}

// NewDailySnapshotTask constructs an Asynq task.
func NewDailySnapshotTask(date string) (*asynq.Task, error) {
	data, err := json.Marshal(DailySnapshotPayload{Date: date})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailySnapshot, data), nil
}
