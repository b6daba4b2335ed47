package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	jobmetrics "github.com/foodzone/foodzone-pos/internal/jobs"
	"github.com/foodzone/foodzone-pos/internal/ledger"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Summaries is the accounting surface the snapshot job needs.
type Summaries interface {
	ParseDay(value string) (ledger.Window, error)
	Summary(ctx context.Context, w ledger.Window) (accounting.Summary, error)
}

// DailySnapshotJob warms the summary cache for a day, exports its expected
// drawer totals and flags the previous day when it was never closed out.
type DailySnapshotJob struct {
	Summaries Summaries
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDailySnapshotJob wires dependencies for the snapshot handler.
func NewDailySnapshotJob(summaries Summaries, logger *slog.Logger, metrics *jobmetrics.Metrics) *DailySnapshotJob {
	return &DailySnapshotJob{Summaries: summaries, Logger: logger, Metrics: metrics}
}

// Handle processes daily snapshot tasks.
func (j *DailySnapshotJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Summaries == nil {
		return errors.New("daily snapshot: handler not configured")
	}
	var payload DailySnapshotPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	window, err := j.Summaries.ParseDay(payload.Date)
	if err != nil {
		return errors.Join(err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskDailySnapshot)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("period", window.Label()))
	start := time.Now()

	summary, err := j.Summaries.Summary(ctx, window)
	if err != nil {
		logger.Error("compute summary", slog.Any("error", err))
		return err
	}
	j.metrics().SetExpectation(summary.Expectation.ExpectedCash, summary.Expectation.ExpectedMomo)

	previous := ledger.Day(window.Start.Add(-time.Hour), window.Start.Location())
	prior, err := j.Summaries.Summary(ctx, previous)
	if err != nil {
		logger.Error("compute previous summary", slog.Any("error", err))
		return err
	}
	open := !prior.Closed && len(prior.Stats.ActivityOrders) > 0
	j.metrics().SetDayOpen(open)
	if open {
		logger.Warn("previous business day not closed out",
			slog.String("previous", previous.Label()),
			slog.Float64("expected_cash", prior.Expectation.ExpectedCash),
			slog.Float64("expected_momo", prior.Expectation.ExpectedMomo))
	}

	logger.Info("daily snapshot completed",
		slog.Float64("expected_cash", summary.Expectation.ExpectedCash),
		slog.Float64("expected_momo", summary.Expectation.ExpectedMomo),
		slog.Int("activity_orders", len(summary.Stats.ActivityOrders)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DailySnapshotJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDailySnapshot))
	}
	return slog.Default().With(slog.String("job", TaskDailySnapshot))
}

func (j *DailySnapshotJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
