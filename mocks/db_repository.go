package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/google/uuid"
	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/repositories"
)

type Database struct {
	mock.Mock
}

func (r *Database) GetRawEventById(ctx context.Context, exec repositories.Executor, id uuid.UUID) (models.RawEvent, error) {
	args := r.Called(ctx, exec, id)
	return args.Get(0).(models.RawEvent), args.Error(1)
}

func (r *Database) GetRawEventByExternalId(ctx context.Context, exec repositories.Executor, externalId string) (models.RawEvent, error) {
	args := r.Called(ctx, exec, externalId)
	return args.Get(0).(models.RawEvent), args.Error(1)
}

func (r *Database) CreateRawEvent(ctx context.Context, exec repositories.Executor, input models.RawEventCreate) (models.RawEvent, error) {
	args := r.Called(ctx, exec, input)
	return args.Get(0).(models.RawEvent), args.Error(1)
}

func (r *Database) MarkRawEventProcessed(ctx context.Context, exec repositories.Executor, id uuid.UUID, processedAt time.Time) error {
	args := r.Called(ctx, exec, id, processedAt)
	return args.Error(0)
}

func (r *Database) ListRawEventsToOffload(ctx context.Context, exec repositories.Executor,
	before time.Time, limit uint64,
) ([]models.RawEvent, error) {
	args := r.Called(ctx, exec, before, limit)
	return args.Get(0).([]models.RawEvent), args.Error(1)
}

func (r *Database) SetRawEventBlobKey(ctx context.Context, exec repositories.Executor,
	id uuid.UUID, blobKey string,
) error {
	args := r.Called(ctx, exec, id, blobKey)
	return args.Error(0)
}

func (r *Database) GetPushEventByPushId(ctx context.Context, exec repositories.Executor, pushId string) (models.PushEvent, error) {
	args := r.Called(ctx, exec, pushId)
	return args.Get(0).(models.PushEvent), args.Error(1)
}

func (r *Database) GetPushEventByRawEventId(ctx context.Context, exec repositories.Executor, rawEventId uuid.UUID) (*models.PushEvent, error) {
	args := r.Called(ctx, exec, rawEventId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PushEvent), args.Error(1)
}

func (r *Database) CreatePushEvent(ctx context.Context, exec repositories.Executor, input models.PushEventCreate) (models.PushEvent, error) {
	args := r.Called(ctx, exec, input)
	return args.Get(0).(models.PushEvent), args.Error(1)
}

func (r *Database) ListPushEventsByStatus(ctx context.Context, exec repositories.Executor,
	status models.EnrichmentStatus, limit uint64,
) ([]models.PushEvent, error) {
	args := r.Called(ctx, exec, status, limit)
	return args.Get(0).([]models.PushEvent), args.Error(1)
}

func (r *Database) UpdatePushEventStatus(ctx context.Context, exec repositories.Executor,
	id uuid.UUID, status models.EnrichmentStatus,
) error {
	args := r.Called(ctx, exec, id, status)
	return args.Error(0)
}

func (r *Database) UpdatePushEventEnrichment(ctx context.Context, exec repositories.Executor,
	input models.PushEventEnrichmentUpdate,
) error {
	args := r.Called(ctx, exec, input)
	return args.Error(0)
}

func (r *Database) GetProfileByExternalId(ctx context.Context, exec repositories.Executor,
	kind models.ProfileKind, externalId string,
) (*models.GithubProfile, error) {
	args := r.Called(ctx, exec, kind, externalId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GithubProfile), args.Error(1)
}

func (r *Database) UpsertProfile(ctx context.Context, exec repositories.Executor,
	kind models.ProfileKind, input models.GithubProfileUpsert,
) (models.GithubProfile, error) {
	args := r.Called(ctx, exec, kind, input)
	return args.Get(0).(models.GithubProfile), args.Error(1)
}

func (r *Database) GetCursor(ctx context.Context, exec repositories.Executor, key string) (*models.Cursor, error) {
	args := r.Called(ctx, exec, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cursor), args.Error(1)
}

func (r *Database) SaveCursor(ctx context.Context, exec repositories.Executor, key, value string) error {
	args := r.Called(ctx, exec, key, value)
	return args.Error(0)
}
