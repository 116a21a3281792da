package ingestion

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/repositories"
	"github.com/hublens/hublens-backend/usecases/executor_factory"
	"github.com/hublens/hublens-backend/usecases/push_parser"
	"github.com/hublens/hublens-backend/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

type feedRepository interface {
	FetchEvents(ctx context.Context, etag string) (models.FeedPage, error)
}

type ingestionDbRepository interface {
	GetRawEventByExternalId(ctx context.Context, exec repositories.Executor, externalId string) (models.RawEvent, error)
	CreateRawEvent(ctx context.Context, exec repositories.Executor, input models.RawEventCreate) (models.RawEvent, error)
	MarkRawEventProcessed(ctx context.Context, exec repositories.Executor, id uuid.UUID, processedAt time.Time) error
	GetPushEventByPushId(ctx context.Context, exec repositories.Executor, pushId string) (models.PushEvent, error)
	GetPushEventByRawEventId(ctx context.Context, exec repositories.Executor, rawEventId uuid.UUID) (*models.PushEvent, error)
	CreatePushEvent(ctx context.Context, exec repositories.Executor, input models.PushEventCreate) (models.PushEvent, error)
	GetCursor(ctx context.Context, exec repositories.Executor, key string) (*models.Cursor, error)
	SaveCursor(ctx context.Context, exec repositories.Executor, key, value string) error
}

type payloadStore interface {
	StorePayload(ctx context.Context, ingestedAt time.Time, externalId string,
		payload json.RawMessage) (null.String, error)
}

type IngestionUsecase struct {
	executorFactory executor_factory.ExecutorFactory
	feedRepository  feedRepository
	repository      ingestionDbRepository
	payloadStore    payloadStore
}

func NewIngestionUsecase(
	executorFactory executor_factory.ExecutorFactory,
	feedRepository feedRepository,
	repository ingestionDbRepository,
	payloadStore payloadStore,
) IngestionUsecase {
	return IngestionUsecase{
		executorFactory: executorFactory,
		feedRepository:  feedRepository,
		repository:      repository,
		payloadStore:    payloadStore,
	}
}

// IngestFeed runs one polling pass: a conditional fetch of the events feed,
// then an independent ingestion of every returned item. Per-item failures are
// counted and logged, never propagated; only a failure of the feed fetch
// itself aborts the pass.
func (uc IngestionUsecase) IngestFeed(ctx context.Context) (models.IngestionReport, error) {
	logger := utils.LoggerFromContext(ctx)
	exec := uc.executorFactory.NewExecutor()

	var etag string
	cursor, err := uc.repository.GetCursor(ctx, exec, models.CursorEventsFeedETag)
	if err != nil {
		return models.IngestionReport{}, err
	}
	if cursor != nil {
		etag = cursor.Value
	}

	page, err := uc.feedRepository.FetchEvents(ctx, etag)
	if err != nil {
		return models.IngestionReport{}, err
	}

	report := models.IngestionReport{ETag: page.ETag, NotModified: page.NotModified}
	if page.NotModified {
		logger.InfoContext(ctx, "events feed unchanged", "etag", etag)
		return report, nil
	}

	for _, item := range page.Items {
		report.Seen++
		outcome, err := uc.ingestItem(ctx, exec, item)
		if err != nil {
			report.Errors++
			logger.WarnContext(ctx, "failed to ingest feed item",
				"external_id", item.ExternalId, "error", err.Error())
			continue
		}
		if outcome.created {
			report.Created++
		}
		if outcome.alreadyProcessed {
			report.AlreadyProcessed++
		}
		if outcome.pushCreated {
			report.PushesCreated++
		}
	}

	if page.ETag != "" && page.ETag != etag {
		if err := uc.repository.SaveCursor(ctx, exec, models.CursorEventsFeedETag, page.ETag); err != nil {
			return report, err
		}
	}

	logger.InfoContext(ctx, "ingestion pass done",
		"seen", report.Seen,
		"created", report.Created,
		"already_processed", report.AlreadyProcessed,
		"pushes_created", report.PushesCreated,
		"errors", report.Errors,
	)
	return report, nil
}

type itemOutcome struct {
	created          bool
	alreadyProcessed bool
	pushCreated      bool
}

func (uc IngestionUsecase) ingestItem(ctx context.Context, exec repositories.Executor,
	item models.FeedItem,
) (itemOutcome, error) {
	var outcome itemOutcome

	rawEvent, err := uc.repository.GetRawEventByExternalId(ctx, exec, item.ExternalId)
	switch {
	case err == nil:
		if rawEvent.Processed() {
			outcome.alreadyProcessed = true
			return outcome, nil
		}
	case errors.Is(err, models.NotFoundError):
		rawEvent, err = uc.createRawEvent(ctx, exec, item)
		if err != nil {
			return outcome, err
		}
		outcome.created = true
	default:
		return outcome, err
	}

	if item.Type == push_parser.PushEventType {
		pushCreated, err := uc.ensurePushEvent(ctx, exec, rawEvent, item.Payload)
		if err != nil {
			return outcome, err
		}
		outcome.pushCreated = pushCreated
	}

	if err := uc.repository.MarkRawEventProcessed(ctx, exec, rawEvent.Id, time.Now()); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (uc IngestionUsecase) createRawEvent(ctx context.Context, exec repositories.Executor,
	item models.FeedItem,
) (models.RawEvent, error) {
	blobKey, err := uc.payloadStore.StorePayload(ctx, time.Now(), item.ExternalId, item.Payload)
	if err != nil {
		return models.RawEvent{}, err
	}

	input := models.RawEventCreate{
		ExternalId:     item.ExternalId,
		EventType:      item.Type,
		PayloadBlobKey: blobKey,
	}
	if !blobKey.Valid {
		input.Payload = item.Payload
	}

	rawEvent, err := uc.repository.CreateRawEvent(ctx, exec, input)
	if repositories.IsUniqueViolationError(err) {
		// a concurrent pass created it first, use that row
		return uc.repository.GetRawEventByExternalId(ctx, exec, item.ExternalId)
	}
	return rawEvent, err
}

func (uc IngestionUsecase) ensurePushEvent(ctx context.Context, exec repositories.Executor,
	rawEvent models.RawEvent, payload json.RawMessage,
) (bool, error) {
	existing, err := uc.repository.GetPushEventByRawEventId(ctx, exec, rawEvent.Id)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	fields, err := push_parser.Extract(payload)
	if err != nil {
		return false, err
	}

	_, err = uc.repository.CreatePushEvent(ctx, exec, models.PushEventCreate{
		RawEventId: rawEvent.Id,
		Fields:     fields,
	})
	if repositories.IsUniqueViolationError(err) {
		if _, err := uc.repository.GetPushEventByPushId(ctx, exec, fields.PushId); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
