package enrichment

import (
	"context"
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/utils"

	"github.com/cockroachdb/errors"
	"github.com/riverqueue/river"
)

type enrichPushUsecase interface {
	EnrichPush(ctx context.Context, pushId string) (models.EnrichmentResult, error)
}

type EnrichPushWorker struct {
	river.WorkerDefaults[models.EnrichPushArgs]

	usecase enrichPushUsecase
}

func NewEnrichPushWorker(usecase enrichPushUsecase) *EnrichPushWorker {
	return &EnrichPushWorker{
		usecase: usecase,
	}
}

func (w *EnrichPushWorker) Timeout(job *river.Job[models.EnrichPushArgs]) time.Duration {
	return 30 * time.Second
}

// Work maps the enrichment error taxonomy onto the queue's retry policy: a
// rate limit snoozes the job until the quota resets, a missing record cancels
// it, anything else is retried with the job's backoff.
func (w *EnrichPushWorker) Work(ctx context.Context, job *river.Job[models.EnrichPushArgs]) error {
	logger := utils.LoggerFromContext(ctx)

	result, err := w.usecase.EnrichPush(ctx, job.Args.PushId)
	if err != nil {
		var rateLimited models.RateLimitExceededError
		switch {
		case errors.As(err, &rateLimited):
			snoozeFor := time.Until(rateLimited.Quota.ResetAt)
			if snoozeFor <= 0 {
				snoozeFor = time.Minute
			}
			logger.InfoContext(ctx, "enrichment rate limited, snoozing",
				"push_id", job.Args.PushId, "snooze", snoozeFor.String())
			return river.JobSnooze(snoozeFor)

		case errors.Is(err, models.RateLimitError):
			return river.JobSnooze(time.Minute)

		case errors.Is(err, models.NotFoundError):
			logger.WarnContext(ctx, "push event gone, discarding enrichment job",
				"push_id", job.Args.PushId)
			return river.JobCancel(err)

		default:
			return err
		}
	}

	logger.InfoContext(ctx, "push event enriched",
		"push_id", job.Args.PushId,
		"status", result.Status.String(),
		"partial", result.Partial(),
	)
	return nil
}
