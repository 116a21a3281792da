package enrichment

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/repositories"
	"github.com/hublens/hublens-backend/repositories/httpmodels"
	"github.com/hublens/hublens-backend/usecases/executor_factory"
	"github.com/hublens/hublens-backend/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/tidwall/gjson"
)

type enrichmentFeedRepository interface {
	FetchResource(ctx context.Context, resourceUrl, etag string) (models.Resource, error)
	UserUrl(login string) (string, error)
	RepositoryUrl(fullName string) (string, error)
}

type enrichmentDbRepository interface {
	GetPushEventByPushId(ctx context.Context, exec repositories.Executor, pushId string) (models.PushEvent, error)
	GetRawEventById(ctx context.Context, exec repositories.Executor, id uuid.UUID) (models.RawEvent, error)
	UpdatePushEventStatus(ctx context.Context, exec repositories.Executor, id uuid.UUID, status models.EnrichmentStatus) error
	UpdatePushEventEnrichment(ctx context.Context, exec repositories.Executor, input models.PushEventEnrichmentUpdate) error
	GetProfileByExternalId(ctx context.Context, exec repositories.Executor, kind models.ProfileKind, externalId string) (*models.GithubProfile, error)
	UpsertProfile(ctx context.Context, exec repositories.Executor, kind models.ProfileKind, input models.GithubProfileUpsert) (models.GithubProfile, error)
}

type payloadReader interface {
	Read(ctx context.Context, rawEvent models.RawEvent) (json.RawMessage, error)
}

type EnrichmentUsecase struct {
	executorFactory executor_factory.ExecutorFactory
	repository      enrichmentDbRepository
	feedRepository  enrichmentFeedRepository
	payloadReader   payloadReader
	cacheTTL        time.Duration
}

func NewEnrichmentUsecase(
	executorFactory executor_factory.ExecutorFactory,
	repository enrichmentDbRepository,
	feedRepository enrichmentFeedRepository,
	payloadReader payloadReader,
	cacheTTL time.Duration,
) EnrichmentUsecase {
	return EnrichmentUsecase{
		executorFactory: executorFactory,
		repository:      repository,
		feedRepository:  feedRepository,
		payloadReader:   payloadReader,
		cacheTTL:        cacheTTL,
	}
}

// EnrichPush runs one enrichment attempt for the push event identified by its
// push id. The actor and the repository are resolved independently; a fetch
// failure on one never blocks the other. A rate limit signal aborts the
// attempt without a terminal status so the caller can retry it after the
// reset; any internal failure forces the record to failed and surfaces an
// EnrichmentError.
func (uc EnrichmentUsecase) EnrichPush(ctx context.Context, pushId string) (models.EnrichmentResult, error) {
	logger := utils.LoggerFromContext(ctx)
	exec := uc.executorFactory.NewExecutor()

	pushEvent, err := uc.repository.GetPushEventByPushId(ctx, exec, pushId)
	if err != nil {
		return models.EnrichmentResult{}, err
	}

	status, err := pushEvent.Status.StartEnrichment()
	if err != nil {
		// already in a terminal state, nothing to do
		logger.DebugContext(ctx, "skipping enrichment",
			"push_id", pushId, "status", pushEvent.Status.String())
		return models.EnrichmentResult{Status: pushEvent.Status}, nil
	}
	if err := uc.repository.UpdatePushEventStatus(ctx, exec, pushEvent.Id, status); err != nil {
		return models.EnrichmentResult{}, uc.forceFailed(ctx, exec, pushEvent.Id, err)
	}

	rawEvent, err := uc.repository.GetRawEventById(ctx, exec, pushEvent.RawEventId)
	if err != nil {
		return models.EnrichmentResult{}, uc.forceFailed(ctx, exec, pushEvent.Id, err)
	}
	payload, err := uc.payloadReader.Read(ctx, rawEvent)
	if err != nil {
		return models.EnrichmentResult{}, uc.forceFailed(ctx, exec, pushEvent.Id, err)
	}
	doc := gjson.ParseBytes(payload)

	actorId, actorEnriched, err := uc.enrichResource(ctx, exec, models.ProfileKindActor, doc, pushEvent)
	if err != nil {
		if errors.Is(err, models.RateLimitError) {
			return models.EnrichmentResult{}, err
		}
		return models.EnrichmentResult{}, uc.forceFailed(ctx, exec, pushEvent.Id, err)
	}
	repositoryId, repositoryEnriched, err := uc.enrichResource(ctx, exec, models.ProfileKindRepository, doc, pushEvent)
	if err != nil {
		if errors.Is(err, models.RateLimitError) {
			return models.EnrichmentResult{}, err
		}
		return models.EnrichmentResult{}, uc.forceFailed(ctx, exec, pushEvent.Id, err)
	}

	finalStatus := models.FinishEnrichment(actorEnriched, repositoryEnriched)
	err = uc.repository.UpdatePushEventEnrichment(ctx, exec, models.PushEventEnrichmentUpdate{
		Id:                  pushEvent.Id,
		Status:              finalStatus,
		ActorId:             actorId,
		RepositoryProfileId: repositoryId,
	})
	if err != nil {
		return models.EnrichmentResult{}, uc.forceFailed(ctx, exec, pushEvent.Id, err)
	}

	result := models.EnrichmentResult{
		ActorEnriched:      actorEnriched,
		RepositoryEnriched: repositoryEnriched,
		Status:             finalStatus,
	}
	if result.Partial() {
		logger.InfoContext(ctx, "push event partially enriched",
			"push_id", pushId,
			"actor_enriched", actorEnriched,
			"repository_enriched", repositoryEnriched,
		)
	}
	return result, nil
}

// forceFailed pins the record to failed after an internal error, so it never
// stays in_progress forever, then wraps the cause for the caller.
func (uc EnrichmentUsecase) forceFailed(ctx context.Context, exec repositories.Executor,
	id uuid.UUID, cause error,
) error {
	if err := uc.repository.UpdatePushEventStatus(ctx, exec, id, models.EnrichmentFailed); err != nil {
		utils.LoggerFromContext(ctx).ErrorContext(ctx,
			"failed to mark push event as failed",
			"push_event_id", id.String(), "error", err.Error())
	}
	return errors.Wrap(models.EnrichmentError, cause.Error())
}

// enrichResource resolves one profile: from the cache when fresh, otherwise
// by fetching the resource url derived from the payload. The returned error
// is only set for conditions that must abort the whole attempt (rate limit,
// database failure); fetch failures count as not-enriched.
func (uc EnrichmentUsecase) enrichResource(ctx context.Context, exec repositories.Executor,
	kind models.ProfileKind, doc gjson.Result, pushEvent models.PushEvent,
) (null.String, bool, error) {
	logger := utils.LoggerFromContext(ctx)

	if externalId := resourceExternalId(kind, doc); externalId != "" {
		cached, err := uc.repository.GetProfileByExternalId(ctx, exec, kind, externalId)
		if err != nil {
			return null.String{}, false, err
		}
		if cached != nil && !cached.Stale(time.Now(), uc.cacheTTL) {
			return null.StringFrom(cached.Id.String()), true, nil
		}
	}

	resourceUrl := uc.resourceUrl(kind, doc, pushEvent)
	if resourceUrl == "" {
		logger.DebugContext(ctx, "no usable resource url, skipping",
			"kind", kind.String(), "push_id", pushEvent.PushId)
		return null.String{}, false, nil
	}

	resource, err := uc.feedRepository.FetchResource(ctx, resourceUrl, "")
	if err != nil {
		if errors.Is(err, models.RateLimitError) {
			return null.String{}, false, err
		}
		logger.WarnContext(ctx, "resource fetch failed",
			"kind", kind.String(), "url", resourceUrl, "error", err.Error())
		return null.String{}, false, nil
	}
	if resource.NotModified || len(resource.Data) == 0 {
		return null.String{}, false, nil
	}

	upsert, err := httpmodels.AdaptGithubProfileUpsert(resource.Data)
	if err != nil {
		logger.WarnContext(ctx, "unusable resource document",
			"kind", kind.String(), "url", resourceUrl, "error", err.Error())
		return null.String{}, false, nil
	}

	profile, err := uc.repository.UpsertProfile(ctx, exec, kind, upsert)
	if err != nil {
		if repositories.IsUniqueViolationError(err) {
			existing, err := uc.repository.GetProfileByExternalId(ctx, exec, kind, upsert.ExternalId)
			if err != nil || existing == nil {
				return null.String{}, false, err
			}
			profile = *existing
		} else {
			return null.String{}, false, err
		}
	}

	return null.StringFrom(profile.Id.String()), true, nil
}

func resourceExternalId(kind models.ProfileKind, doc gjson.Result) string {
	switch kind {
	case models.ProfileKindActor:
		return doc.Get("actor.id").String()
	default:
		return doc.Get("repo.id").String()
	}
}

// resourceUrl walks the lookup url fallback chain: explicit api url, url
// built from the login or full name, url rewritten from the html-facing one,
// and for repositories the record's own repository identifier as a last
// resort.
func (uc EnrichmentUsecase) resourceUrl(kind models.ProfileKind, doc gjson.Result,
	pushEvent models.PushEvent,
) string {
	if kind == models.ProfileKindActor {
		if apiUrl := doc.Get("actor.url").String(); apiUrl != "" {
			return apiUrl
		}
		if login := doc.Get("actor.login").String(); login != "" {
			if apiUrl, err := uc.feedRepository.UserUrl(login); err == nil {
				return apiUrl
			}
		}
		if login := lastPathSegment(doc.Get("actor.html_url").String()); login != "" {
			if apiUrl, err := uc.feedRepository.UserUrl(login); err == nil {
				return apiUrl
			}
		}
		return ""
	}

	if apiUrl := doc.Get("repo.url").String(); apiUrl != "" {
		return apiUrl
	}
	for _, fullName := range []string{
		doc.Get("repo.full_name").String(),
		doc.Get("repo.name").String(),
		htmlUrlPath(doc.Get("repo.html_url").String()),
		pushEvent.RepositoryId,
	} {
		if fullName == "" {
			continue
		}
		if apiUrl, err := uc.feedRepository.RepositoryUrl(fullName); err == nil {
			return apiUrl
		}
	}
	return ""
}

func lastPathSegment(rawUrl string) string {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	return segments[len(segments)-1]
}

func htmlUrlPath(rawUrl string) string {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return ""
	}
	return strings.Trim(parsed.Path, "/")
}
