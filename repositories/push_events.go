package repositories

import (
	"context"
	"strings"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/repositories/dbmodels"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

func selectPushEvents() squirrel.SelectBuilder {
	return NewQueryBuilder().
		Select(dbmodels.SelectPushEventColumn...).
		From(dbmodels.TABLE_PUSH_EVENTS)
}

func (repo *HublensDbRepository) GetPushEventByPushId(ctx context.Context, exec Executor, pushId string) (models.PushEvent, error) {
	if err := validateDbExecutor(exec); err != nil {
		return models.PushEvent{}, err
	}

	return SqlToModel(
		ctx,
		exec,
		selectPushEvents().Where(squirrel.Eq{"push_id": pushId}),
		dbmodels.AdaptPushEvent,
	)
}

func (repo *HublensDbRepository) GetPushEventByRawEventId(ctx context.Context, exec Executor, rawEventId uuid.UUID) (*models.PushEvent, error) {
	if err := validateDbExecutor(exec); err != nil {
		return nil, err
	}

	return SqlToOptionalModel(
		ctx,
		exec,
		selectPushEvents().Where(squirrel.Eq{"raw_event_id": rawEventId}),
		dbmodels.AdaptPushEvent,
	)
}

func (repo *HublensDbRepository) ListPushEventsByStatus(ctx context.Context, exec Executor,
	status models.EnrichmentStatus, limit uint64,
) ([]models.PushEvent, error) {
	if err := validateDbExecutor(exec); err != nil {
		return nil, err
	}

	return SqlToListOfModels(
		ctx,
		exec,
		selectPushEvents().
			Where(squirrel.Eq{"enrichment_status": status.String()}).
			OrderBy("created_at").
			Limit(limit),
		dbmodels.AdaptPushEvent,
	)
}

func (repo *HublensDbRepository) CreatePushEvent(ctx context.Context, exec Executor,
	input models.PushEventCreate,
) (models.PushEvent, error) {
	if err := validateDbExecutor(exec); err != nil {
		return models.PushEvent{}, err
	}

	query := NewQueryBuilder().
		Insert(dbmodels.TABLE_PUSH_EVENTS).
		Columns(
			"id",
			"push_id",
			"raw_event_id",
			"repository_id",
			"ref",
			"head_sha",
			"before_sha",
			"enrichment_status",
		).
		Values(
			uuid.Must(uuid.NewV7()),
			input.Fields.PushId,
			input.RawEventId,
			input.Fields.RepositoryId,
			input.Fields.Ref,
			input.Fields.HeadSha,
			input.Fields.BeforeSha,
			models.EnrichmentPending.String(),
		).
		Suffix("returning " + strings.Join(dbmodels.SelectPushEventColumn, ", "))

	return SqlToModel(ctx, exec, query, dbmodels.AdaptPushEvent)
}

func (repo *HublensDbRepository) UpdatePushEventStatus(ctx context.Context, exec Executor,
	id uuid.UUID, status models.EnrichmentStatus,
) error {
	if err := validateDbExecutor(exec); err != nil {
		return err
	}

	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().
			Update(dbmodels.TABLE_PUSH_EVENTS).
			Set("enrichment_status", status.String()).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": id}),
	)
}

// UpdatePushEventEnrichment persists the outcome of one enrichment attempt,
// terminal status and resolved links together, in a single write.
func (repo *HublensDbRepository) UpdatePushEventEnrichment(ctx context.Context, exec Executor,
	input models.PushEventEnrichmentUpdate,
) error {
	if err := validateDbExecutor(exec); err != nil {
		return err
	}

	query := NewQueryBuilder().
		Update(dbmodels.TABLE_PUSH_EVENTS).
		Set("enrichment_status", input.Status.String()).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": input.Id})

	if input.ActorId.Valid {
		query = query.Set("actor_id", input.ActorId.String)
	}
	if input.RepositoryProfileId.Valid {
		query = query.Set("repository_profile_id", input.RepositoryProfileId.String)
	}

	return ExecBuilder(ctx, exec, query)
}
