package cmd

import (
	"context"
	"time"

	"github.com/hublens/hublens-backend/infra"
	"github.com/hublens/hublens-backend/jobs"
	"github.com/hublens/hublens-backend/repositories"
	"github.com/hublens/hublens-backend/usecases"
	"github.com/hublens/hublens-backend/utils"

	"github.com/getsentry/sentry-go"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// RunScheduler runs the cron loop: the feed polling pass and the enrichment
// enqueue pass. Enrichment itself runs in the worker process.
func RunScheduler() error {
	config := loadConfiguration()

	logger := utils.NewLogger(config.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	infra.SetupSentry(config.sentryDsn, config.env, apiVersion)
	defer sentry.Flush(3 * time.Second)

	telemetryRessources, err := infra.InitTelemetry(ctx, infra.TelemetryConfiguration{
		Enabled:         config.enableTracing,
		ApplicationName: appName,
	}, apiVersion)
	if err != nil {
		utils.LogAndReportSentryError(ctx, err)
	}
	ctx = utils.StoreOpenTelemetryTracerInContext(ctx, telemetryRessources.Tracer)

	pool, err := infra.NewPostgresConnectionPool(ctx, config.pgConfig.GetConnectionString(),
		config.pgConfig.MaxPoolConnections)
	if err != nil {
		utils.LogAndReportSentryError(ctx, err)
		return err
	}

	// insert-only client, jobs are worked by the worker process
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		utils.LogAndReportSentryError(ctx, err)
		return err
	}

	repos := repositories.NewRepositories(
		pool,
		config.feedConfig,
		config.offloadingConfig,
		repositories.WithRiverClient(riverClient),
	)
	uc := usecases.NewUsecases(repos,
		usecases.WithCacheTTL(config.cacheTTL),
		usecases.WithOffloadBefore(config.offloadingConfig.OffloadBefore),
	)

	jobs.RunScheduler(ctx, uc)
	return nil
}
