package jobs

import (
	"context"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/usecases"
	"github.com/hublens/hublens-backend/utils"

	"github.com/cockroachdb/errors"
)

// IngestFeed runs one polling pass of the events feed. A rate limit is not an
// error at this level: the next cron tick simply tries again after the reset.
func IngestFeed(ctx context.Context, usecases usecases.Usecases) error {
	usecase := usecases.NewIngestionUsecase()

	_, err := usecase.IngestFeed(ctx)
	if errors.Is(err, models.RateLimitError) {
		utils.LoggerFromContext(ctx).WarnContext(ctx,
			"events feed rate limited, skipping this pass", "error", err.Error())
		return nil
	}
	return err
}
