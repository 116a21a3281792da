package offloading

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/repositories"
	"github.com/hublens/hublens-backend/usecases/executor_factory"
	"github.com/hublens/hublens-backend/utils"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

const offloadBatchSize = 100

type offloadingDbRepository interface {
	ListRawEventsToOffload(ctx context.Context, exec repositories.Executor,
		before time.Time, limit uint64) ([]models.RawEvent, error)
	SetRawEventBlobKey(ctx context.Context, exec repositories.Executor,
		id uuid.UUID, blobKey string) error
}

type payloadStore interface {
	Enabled() bool
	StorePayload(ctx context.Context, ingestedAt time.Time, externalId string,
		payload json.RawMessage) (null.String, error)
}

type OffloadingUsecase struct {
	executorFactory executor_factory.ExecutorFactory
	repository      offloadingDbRepository
	payloadStore    payloadStore
	offloadBefore   time.Duration
}

func NewOffloadingUsecase(
	executorFactory executor_factory.ExecutorFactory,
	repository offloadingDbRepository,
	payloadStore payloadStore,
	offloadBefore time.Duration,
) OffloadingUsecase {
	return OffloadingUsecase{
		executorFactory: executorFactory,
		repository:      repository,
		payloadStore:    payloadStore,
		offloadBefore:   offloadBefore,
	}
}

// OffloadPayloads moves inline payloads of processed events older than the
// configured age to the bucket. Per-item failures are logged and skipped; a
// row keeps its inline payload until a later pass succeeds.
func (uc OffloadingUsecase) OffloadPayloads(ctx context.Context) (int, error) {
	if !uc.payloadStore.Enabled() {
		return 0, nil
	}

	logger := utils.LoggerFromContext(ctx)
	exec := uc.executorFactory.NewExecutor()

	rawEvents, err := uc.repository.ListRawEventsToOffload(ctx, exec,
		time.Now().Add(-uc.offloadBefore), offloadBatchSize)
	if err != nil {
		return 0, err
	}
	if len(rawEvents) == 0 {
		return 0, nil
	}

	offloaded := 0
	for _, rawEvent := range rawEvents {
		blobKey, err := uc.payloadStore.StorePayload(ctx,
			rawEvent.IngestedAt, rawEvent.ExternalId, rawEvent.Payload)
		if err != nil {
			logger.WarnContext(ctx, "failed to offload payload",
				"raw_event_id", rawEvent.Id.String(), "error", err.Error())
			continue
		}
		if !blobKey.Valid {
			continue
		}

		if err := uc.repository.SetRawEventBlobKey(ctx, exec, rawEvent.Id, blobKey.String); err != nil {
			logger.WarnContext(ctx, "failed to record payload blob key",
				"raw_event_id", rawEvent.Id.String(), "error", err.Error())
			continue
		}
		offloaded++
	}

	logger.InfoContext(ctx, "offloading pass done",
		"candidates", len(rawEvents), "offloaded", offloaded)
	return offloaded, nil
}
