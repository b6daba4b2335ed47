package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/foodzone/foodzone-pos/jobs"
)

// snapshotRetention keeps a finished snapshot task id reserved so a second
// trigger for the same day is rejected instead of queued twice.
const snapshotRetention = 24 * time.Hour

// ErrAlreadyQueued is returned when the snapshot for a day was already triggered.
var ErrAlreadyQueued = errors.New("jobs cli: snapshot already queued for this day")

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type queueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI enqueues and inspects background jobs from the command line.
type JobsCLI struct {
	client    enqueuer
	inspector queueInspector
	queue     string
	stdout    io.Writer
}

// NewJobsCLI connects the helpers to the worker's Redis.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if redisAddr == "" {
		return nil, errors.New("jobs cli: REDIS_ADDR is required")
	}
	opt := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     jobs.QueueDefault,
		stdout:    os.Stdout,
	}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// Trigger enqueues a job by name. date scopes the snapshot to a business day;
// empty means the worker's current day.
func (c *JobsCLI) Trigger(ctx context.Context, name, date string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskDailySnapshot, "snapshot":
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}

	task, err := jobs.NewDailySnapshotTask(date)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(c.queue), asynq.MaxRetry(3)}
	if date != "" {
		opts = append(opts, asynq.TaskID("snapshot:"+date), asynq.Retention(snapshotRetention))
	}
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil, ErrAlreadyQueued
	}
	return info, err
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
	Failed    int
}

// InspectQueue reports counts for the snapshot queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	if err := ctx.Err(); err != nil {
		return QueueStats{}, err
	}
	info, err := c.inspector.GetQueueInfo(c.queue)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: c.queue}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
		stats.Failed = info.Failed
	}
	return stats, nil
}

// ListScheduled returns the first page of scheduled tasks.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(c.queue, asynq.PageSize(size), asynq.Page(1))
}

// PrintStats writes the queue counts as a single line.
func (c *JobsCLI) PrintStats(stats QueueStats) {
	fmt.Fprintf(c.stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d failed=%d archived=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Failed, stats.Archived)
}
