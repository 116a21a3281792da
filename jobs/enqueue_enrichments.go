package jobs

import (
	"context"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/usecases"
	"github.com/hublens/hublens-backend/utils"

	"github.com/riverqueue/river"
)

const (
	enrichmentBatchSize  = 100
	enrichmentMaxRetries = 5
)

// EnqueuePendingEnrichments pushes an enrichment job for every push event
// still waiting on one. Uniqueness on args makes re-enqueuing a pending
// record across passes a no-op.
func EnqueuePendingEnrichments(ctx context.Context, usecases usecases.Usecases) error {
	logger := utils.LoggerFromContext(ctx)

	executorFactory := usecases.NewExecutorFactory()
	pushEvents, err := usecases.Repositories.HublensDbRepository.ListPushEventsByStatus(
		ctx, executorFactory.NewExecutor(), models.EnrichmentPending, enrichmentBatchSize)
	if err != nil {
		return err
	}
	if len(pushEvents) == 0 {
		return nil
	}

	params := make([]river.InsertManyParams, 0, len(pushEvents))
	for _, pushEvent := range pushEvents {
		params = append(params, river.InsertManyParams{
			Args: models.EnrichPushArgs{PushId: pushEvent.PushId},
			InsertOpts: &river.InsertOpts{
				MaxAttempts: enrichmentMaxRetries,
				UniqueOpts: river.UniqueOpts{
					ByArgs: true,
				},
			},
		})
	}

	results, err := usecases.Repositories.RiverClient.InsertMany(ctx, params)
	if err != nil {
		return err
	}

	inserted := 0
	for _, result := range results {
		if !result.UniqueSkippedAsDuplicate {
			inserted++
		}
	}
	logger.InfoContext(ctx, "enqueued enrichment jobs",
		"pending", len(pushEvents), "inserted", inserted)
	return nil
}
