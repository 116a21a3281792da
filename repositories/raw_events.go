package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/repositories/dbmodels"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

func selectRawEvents() squirrel.SelectBuilder {
	return NewQueryBuilder().
		Select(dbmodels.SelectRawEventColumn...).
		From(dbmodels.TABLE_RAW_EVENTS)
}

func (repo *HublensDbRepository) GetRawEventById(ctx context.Context, exec Executor, id uuid.UUID) (models.RawEvent, error) {
	if err := validateDbExecutor(exec); err != nil {
		return models.RawEvent{}, err
	}

	return SqlToModel(
		ctx,
		exec,
		selectRawEvents().Where(squirrel.Eq{"id": id}),
		dbmodels.AdaptRawEvent,
	)
}

func (repo *HublensDbRepository) GetRawEventByExternalId(ctx context.Context, exec Executor, externalId string) (models.RawEvent, error) {
	if err := validateDbExecutor(exec); err != nil {
		return models.RawEvent{}, err
	}

	return SqlToModel(
		ctx,
		exec,
		selectRawEvents().Where(squirrel.Eq{"external_id": externalId}),
		dbmodels.AdaptRawEvent,
	)
}

func (repo *HublensDbRepository) CreateRawEvent(ctx context.Context, exec Executor,
	input models.RawEventCreate,
) (models.RawEvent, error) {
	if err := validateDbExecutor(exec); err != nil {
		return models.RawEvent{}, err
	}
	if err := input.Validate(); err != nil {
		return models.RawEvent{}, err
	}

	query := NewQueryBuilder().
		Insert(dbmodels.TABLE_RAW_EVENTS).
		Columns(
			"id",
			"external_id",
			"event_type",
			"payload",
			"payload_blob_key",
			"ingested_at",
		).
		Values(
			uuid.Must(uuid.NewV7()),
			input.ExternalId,
			input.EventType,
			[]byte(input.Payload),
			input.PayloadBlobKey.Ptr(),
			time.Now(),
		).
		Suffix("returning " + strings.Join(dbmodels.SelectRawEventColumn, ", "))

	return SqlToModel(ctx, exec, query, dbmodels.AdaptRawEvent)
}

// ListRawEventsToOffload returns processed rows whose payload is still
// inline, oldest first.
func (repo *HublensDbRepository) ListRawEventsToOffload(ctx context.Context, exec Executor,
	before time.Time, limit uint64,
) ([]models.RawEvent, error) {
	if err := validateDbExecutor(exec); err != nil {
		return nil, err
	}

	return SqlToListOfModels(
		ctx,
		exec,
		selectRawEvents().
			Where(squirrel.Eq{"payload_blob_key": nil}).
			Where(squirrel.NotEq{"processed_at": nil}).
			Where(squirrel.Lt{"ingested_at": before}).
			OrderBy("ingested_at").
			Limit(limit),
		dbmodels.AdaptRawEvent,
	)
}

// SetRawEventBlobKey records where an already persisted payload was offloaded
// to. Set at most once; the inline payload is cleared in the same write to
// preserve the exactly-one-location invariant.
func (repo *HublensDbRepository) SetRawEventBlobKey(ctx context.Context, exec Executor,
	id uuid.UUID, blobKey string,
) error {
	if err := validateDbExecutor(exec); err != nil {
		return err
	}

	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().
			Update(dbmodels.TABLE_RAW_EVENTS).
			Set("payload_blob_key", blobKey).
			Set("payload", nil).
			Where(squirrel.Eq{"id": id}).
			Where(squirrel.Eq{"payload_blob_key": nil}),
	)
}

func (repo *HublensDbRepository) MarkRawEventProcessed(ctx context.Context, exec Executor,
	id uuid.UUID, processedAt time.Time,
) error {
	if err := validateDbExecutor(exec); err != nil {
		return err
	}

	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().
			Update(dbmodels.TABLE_RAW_EVENTS).
			Set("processed_at", processedAt).
			Where(squirrel.Eq{"id": id}),
	)
}
