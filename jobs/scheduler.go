package jobs

import (
	"context"

	"github.com/adhocore/gronx/pkg/tasker"
	"github.com/hublens/hublens-backend/usecases"
	"github.com/hublens/hublens-backend/utils"
)

func errToReturnCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

// RunScheduler drives the polling loop: one cron pass ingests the events
// feed, another enqueues enrichment jobs for freshly created push events, and
// a slower one offloads aged inline payloads to the bucket. Passes never
// overlap with themselves.
func RunScheduler(ctx context.Context, usecases usecases.Usecases) {
	taskr := tasker.New(tasker.Option{
		Verbose: true,
	}).WithContext(ctx)

	notConcurrent := false
	taskr.Task("* * * * *", func(ctx context.Context) (int, error) {
		logger := utils.LoggerFromContext(ctx).With("job", "ingest_feed")
		ctx = utils.StoreLoggerInContext(ctx, logger)
		err := IngestFeed(ctx, usecases)
		return errToReturnCode(err), err
	}, notConcurrent)

	taskr.Task("* * * * *", func(ctx context.Context) (int, error) {
		logger := utils.LoggerFromContext(ctx).With("job", "enqueue_enrichments")
		ctx = utils.StoreLoggerInContext(ctx, logger)
		err := EnqueuePendingEnrichments(ctx, usecases)
		return errToReturnCode(err), err
	}, notConcurrent)

	taskr.Task("*/10 * * * *", func(ctx context.Context) (int, error) {
		logger := utils.LoggerFromContext(ctx).With("job", "offload_payloads")
		ctx = utils.StoreLoggerInContext(ctx, logger)
		err := OffloadPayloads(ctx, usecases)
		return errToReturnCode(err), err
	}, notConcurrent)

	taskr.Run()
}
