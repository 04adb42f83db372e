package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jhipl/backoffice/internal/jobs"
)

// Invalidator drops cached lookups and reloads the PO book.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// BookSizer reports how many purchase orders are loaded.
type BookSizer interface {
	Len() int
}

// LookupsRefreshJob handles TaskLookupsRefresh.
type LookupsRefreshJob struct {
	Lookups Invalidator
	Book    BookSizer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLookupsRefreshJob wires dependencies for the refresh handler. book and
// metrics may be nil.
func NewLookupsRefreshJob(lookups Invalidator, book BookSizer, logger *slog.Logger, metrics *jobmetrics.Metrics) *LookupsRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupsRefreshJob{Lookups: lookups, Book: book, Logger: logger, Metrics: metrics}
}

// Handle processes lookup refresh tasks.
func (j *LookupsRefreshJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Lookups == nil {
		return errors.New("lookups refresh: handler not configured")
	}
	var payload LookupsRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskLookupsRefresh)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.Logger.With(slog.String("reason", payload.Reason))
	if err := j.Lookups.Invalidate(ctx); err != nil {
		logger.Error("refresh lookups", slog.Any("error", err))
		return err
	}
	if j.Book != nil {
		j.Metrics.SetItems(TaskLookupsRefresh, j.Book.Len())
		logger.Info("lookups refreshed", slog.Int("purchase_orders", j.Book.Len()))
	}
	return nil
}
