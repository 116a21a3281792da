package usecases

import (
	"time"

	"github.com/hublens/hublens-backend/repositories"
	"github.com/hublens/hublens-backend/usecases/enrichment"
	"github.com/hublens/hublens-backend/usecases/executor_factory"
	"github.com/hublens/hublens-backend/usecases/ingestion"
	"github.com/hublens/hublens-backend/usecases/offloading"
	"github.com/hublens/hublens-backend/usecases/payload_reader"
)

const (
	DefaultCacheTTL      = 24 * time.Hour
	DefaultOffloadBefore = time.Hour
)

type Usecases struct {
	Repositories repositories.Repositories

	cacheTTL      time.Duration
	offloadBefore time.Duration
}

type Option func(*options)

type options struct {
	cacheTTL      time.Duration
	offloadBefore time.Duration
}

// WithCacheTTL sets the freshness window of actor and repository cache rows.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = ttl
	}
}

// WithOffloadBefore sets the minimum age of a processed raw event before its
// inline payload is moved to the bucket.
func WithOffloadBefore(age time.Duration) Option {
	return func(o *options) {
		o.offloadBefore = age
	}
}

func NewUsecases(repositories repositories.Repositories, opts ...Option) Usecases {
	o := &options{
		cacheTTL:      DefaultCacheTTL,
		offloadBefore: DefaultOffloadBefore,
	}
	for _, apply := range opts {
		apply(o)
	}

	return Usecases{
		Repositories:  repositories,
		cacheTTL:      o.cacheTTL,
		offloadBefore: o.offloadBefore,
	}
}

func (usecases Usecases) NewExecutorFactory() executor_factory.ExecutorFactory {
	return executor_factory.NewDbExecutorFactory(usecases.Repositories.ExecutorGetter)
}

func (usecases Usecases) NewIngestionUsecase() ingestion.IngestionUsecase {
	return ingestion.NewIngestionUsecase(
		usecases.NewExecutorFactory(),
		usecases.Repositories.GithubFeedRepository,
		&usecases.Repositories.HublensDbRepository,
		usecases.Repositories.PayloadStoreRepository,
	)
}

func (usecases Usecases) NewOffloadingUsecase() offloading.OffloadingUsecase {
	return offloading.NewOffloadingUsecase(
		usecases.NewExecutorFactory(),
		&usecases.Repositories.HublensDbRepository,
		usecases.Repositories.PayloadStoreRepository,
		usecases.offloadBefore,
	)
}

func (usecases Usecases) NewEnrichPushWorker() *enrichment.EnrichPushWorker {
	return enrichment.NewEnrichPushWorker(usecases.NewEnrichmentUsecase())
}

func (usecases Usecases) NewEnrichmentUsecase() enrichment.EnrichmentUsecase {
	return enrichment.NewEnrichmentUsecase(
		usecases.NewExecutorFactory(),
		&usecases.Repositories.HublensDbRepository,
		usecases.Repositories.GithubFeedRepository,
		payload_reader.NewPayloadReader(usecases.Repositories.PayloadStoreRepository),
		usecases.cacheTTL,
	)
}
