package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/appbox-io/appbox/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokenPurge is the task type for purging expired refresh token records.
	TaskTokenPurge = "token:purge"
)

// TokenPurger removes refresh token records whose validity window has passed.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// TokenPurgePayload bounds a single purge run.
type TokenPurgePayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

// NewTokenPurgeTask constructs an Asynq task.
func NewTokenPurgeTask() (*asynq.Task, error) {
	data, err := json.Marshal(TokenPurgePayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokenPurge, data), nil
}

// HandleTokenPurgeTask processes TaskTokenPurge tasks.
func HandleTokenPurgeTask(purger TokenPurger, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTokenPurge)
		var payload TokenPurgePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		purged, err := purger.PurgeExpired(ctx)
		if err != nil {
			return tracker.End(err)
		}
		_ = tracker.End(nil)
		if logger != nil {
			logger.Info("purged expired refresh tokens",
				slog.Int64("count", purged),
				slog.Time("requestedAt", payload.RequestedAt))
		}
		return nil
	}
}
