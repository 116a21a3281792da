package cmd

import (
	"time"

	"github.com/hublens/hublens-backend/infra"
	"github.com/hublens/hublens-backend/utils"
)

const appName = "hublens-backend"

var apiVersion = "dev"

type appConfiguration struct {
	env              string
	loggingFormat    string
	sentryDsn        string
	enableTracing    bool
	probePort        string
	cacheTTL         time.Duration
	pgConfig         infra.PgConfig
	feedConfig       infra.FeedConfig
	offloadingConfig infra.OffloadingConfig
}

func loadConfiguration() appConfiguration {
	return appConfiguration{
		env:           utils.GetEnv("ENV", "development"),
		loggingFormat: utils.GetEnv("LOGGING_FORMAT", "text"),
		sentryDsn:     utils.GetEnv("SENTRY_DSN", ""),
		enableTracing: utils.GetEnv("ENABLE_TRACING", false),
		probePort:     utils.GetEnv("PROBE_PORT", ""),
		cacheTTL:      utils.GetEnv("PROFILE_CACHE_TTL", 24*time.Hour),
		pgConfig: infra.PgConfig{
			ConnectionString:   utils.GetEnv("PG_CONNECTION_STRING", ""),
			Database:           "hublens",
			Hostname:           utils.GetEnv("PG_HOSTNAME", ""),
			Password:           utils.GetEnv("PG_PASSWORD", ""),
			Port:               utils.GetEnv("PG_PORT", "5432"),
			User:               utils.GetEnv("PG_USER", ""),
			MaxPoolConnections: utils.GetEnv("PG_MAX_POOL_SIZE", infra.DEFAULT_MAX_CONNECTIONS),
			SslMode:            utils.GetEnv("PG_SSL_MODE", "prefer"),
		},
		feedConfig: infra.FeedConfig{
			BaseUrl:    utils.GetEnv("GITHUB_API_URL", "https://api.github.com"),
			Token:      utils.GetEnv("GITHUB_TOKEN", ""),
			Timeout:    utils.GetEnv("GITHUB_TIMEOUT", 10*time.Second),
			MaxRetries: utils.GetEnv("GITHUB_MAX_RETRIES", 3),
		},
		offloadingConfig: loadOffloadingConfiguration(),
	}
}

func loadOffloadingConfiguration() infra.OffloadingConfig {
	config := infra.OffloadingConfig{
		Enabled:       utils.GetEnv("OFFLOADING_ENABLED", false),
		OffloadBefore: utils.GetEnv("OFFLOADING_BEFORE", time.Hour),
	}
	if config.Enabled {
		config.BucketUrl = utils.GetRequiredEnv[string]("OFFLOADING_BUCKET_URL")
	}
	return config
}
