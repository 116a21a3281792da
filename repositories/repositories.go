package repositories

import (
	"net/http"

	"github.com/hublens/hublens-backend/infra"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
)

// HublensDbRepository groups every postgres-backed repository method. It is
// stateless: callers pass the Executor they want each call to run on.
type HublensDbRepository struct{}

type Repositories struct {
	ExecutorGetter         ExecutorGetter
	HublensDbRepository    HublensDbRepository
	GithubFeedRepository   *GithubFeedRepository
	BlobRepository         BlobRepository
	PayloadStoreRepository *PayloadStoreRepository
	RiverClient            *river.Client[pgx.Tx]
}

type Option func(*options)

type options struct {
	riverClient    *river.Client[pgx.Tx]
	feedHttpClient *http.Client
}

func WithRiverClient(client *river.Client[pgx.Tx]) Option {
	return func(o *options) {
		o.riverClient = client
	}
}

// WithFeedHttpClient overrides the upstream API http client, mostly so tests
// can intercept requests.
func WithFeedHttpClient(client *http.Client) Option {
	return func(o *options) {
		o.feedHttpClient = client
	}
}

func NewRepositories(
	pool *pgxpool.Pool,
	feedConfig infra.FeedConfig,
	offloadingConfig infra.OffloadingConfig,
	opts ...Option,
) Repositories {
	o := &options{}
	for _, apply := range opts {
		apply(o)
	}

	blobRepository := NewBlobRepository()

	return Repositories{
		ExecutorGetter:         NewExecutorGetter(pool),
		HublensDbRepository:    HublensDbRepository{},
		GithubFeedRepository:   NewGithubFeedRepository(feedConfig, o.feedHttpClient),
		BlobRepository:         blobRepository,
		PayloadStoreRepository: NewPayloadStoreRepository(offloadingConfig, blobRepository),
		RiverClient:            o.riverClient,
	}
}
