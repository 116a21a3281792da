package enrichment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hublens/hublens-backend/mocks"
	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/usecases/executor_factory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type EnrichmentUsecaseTestSuite struct {
	suite.Suite

	executorFactory executor_factory.ExecutorFactoryStub
	repository      *mocks.Database
	feedRepository  *mocks.FeedRepository
	payloadReader   *mocks.PayloadReader

	ctx       context.Context
	pushEvent models.PushEvent
	rawEvent  models.RawEvent
}

const testEventPayload = `{
	"type": "PushEvent",
	"id": "1",
	"actor": {"id": 5, "login": "octocat", "url": "https://api.github.test/users/octocat"},
	"repo": {"id": 9, "name": "o/r", "url": "https://api.github.test/repos/o/r"},
	"payload": {"ref": "refs/heads/main", "head": "abc"}
}`

func (suite *EnrichmentUsecaseTestSuite) SetupTest() {
	suite.executorFactory = executor_factory.NewExecutorFactoryStub()
	suite.repository = new(mocks.Database)
	suite.feedRepository = new(mocks.FeedRepository)
	suite.payloadReader = new(mocks.PayloadReader)
	suite.ctx = context.Background()

	rawEventId := uuid.New()
	suite.rawEvent = models.RawEvent{
		Id:      rawEventId,
		Payload: json.RawMessage(testEventPayload),
	}
	suite.pushEvent = models.PushEvent{
		Id:           uuid.New(),
		PushId:       "p1",
		RawEventId:   rawEventId,
		RepositoryId: "o/r",
		Status:       models.EnrichmentPending,
	}
}

func (suite *EnrichmentUsecaseTestSuite) makeUsecase() EnrichmentUsecase {
	return NewEnrichmentUsecase(
		suite.executorFactory,
		suite.repository,
		suite.feedRepository,
		suite.payloadReader,
		24*time.Hour,
	)
}

func (suite *EnrichmentUsecaseTestSuite) expectAttemptSetup() {
	suite.repository.On("GetPushEventByPushId", suite.ctx, mock.Anything, "p1").
		Return(suite.pushEvent, nil)
	suite.repository.On("UpdatePushEventStatus", suite.ctx, mock.Anything,
		suite.pushEvent.Id, models.EnrichmentInProgress).Return(nil)
	suite.repository.On("GetRawEventById", suite.ctx, mock.Anything, suite.rawEvent.Id).
		Return(suite.rawEvent, nil)
	suite.payloadReader.On("Read", suite.ctx, suite.rawEvent).
		Return(suite.rawEvent.Payload, nil)
}

func (suite *EnrichmentUsecaseTestSuite) TestBothResourcesEnriched() {
	suite.expectAttemptSetup()

	actorProfileId := uuid.New()
	repoProfileId := uuid.New()

	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindActor, "5").Return(nil, nil)
	suite.feedRepository.On("FetchResource", suite.ctx,
		"https://api.github.test/users/octocat", "").
		Return(models.Resource{Data: json.RawMessage(`{"id": 5, "login": "octocat"}`)}, nil)
	suite.repository.On("UpsertProfile", suite.ctx, mock.Anything,
		models.ProfileKindActor, mock.MatchedBy(func(input models.GithubProfileUpsert) bool {
			return input.ExternalId == "5" && input.Login == "octocat"
		})).Return(models.GithubProfile{Id: actorProfileId, ExternalId: "5"}, nil)

	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindRepository, "9").Return(nil, nil)
	suite.feedRepository.On("FetchResource", suite.ctx,
		"https://api.github.test/repos/o/r", "").
		Return(models.Resource{Data: json.RawMessage(`{"id": 9, "full_name": "o/r"}`)}, nil)
	suite.repository.On("UpsertProfile", suite.ctx, mock.Anything,
		models.ProfileKindRepository, mock.MatchedBy(func(input models.GithubProfileUpsert) bool {
			return input.ExternalId == "9"
		})).Return(models.GithubProfile{Id: repoProfileId, ExternalId: "9"}, nil)

	suite.repository.On("UpdatePushEventEnrichment", suite.ctx, mock.Anything,
		mock.MatchedBy(func(input models.PushEventEnrichmentUpdate) bool {
			return input.Status == models.EnrichmentCompleted &&
				input.ActorId.String == actorProfileId.String() &&
				input.RepositoryProfileId.String == repoProfileId.String()
		})).Return(nil)

	result, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.NoError(err)
	suite.Equal(models.EnrichmentCompleted, result.Status)
	suite.True(result.ActorEnriched)
	suite.True(result.RepositoryEnriched)
	suite.False(result.Partial())
	suite.repository.AssertExpectations(suite.T())
	suite.feedRepository.AssertExpectations(suite.T())
}

func (suite *EnrichmentUsecaseTestSuite) TestPartialEnrichmentStillCompletes() {
	suite.expectAttemptSetup()

	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindActor, "5").Return(nil, nil)
	suite.feedRepository.On("FetchResource", suite.ctx,
		"https://api.github.test/users/octocat", "").
		Return(models.Resource{}, models.ApiError)

	repoProfileId := uuid.New()
	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindRepository, "9").Return(nil, nil)
	suite.feedRepository.On("FetchResource", suite.ctx,
		"https://api.github.test/repos/o/r", "").
		Return(models.Resource{Data: json.RawMessage(`{"id": 9, "full_name": "o/r"}`)}, nil)
	suite.repository.On("UpsertProfile", suite.ctx, mock.Anything,
		models.ProfileKindRepository, mock.Anything).
		Return(models.GithubProfile{Id: repoProfileId, ExternalId: "9"}, nil)

	suite.repository.On("UpdatePushEventEnrichment", suite.ctx, mock.Anything,
		mock.MatchedBy(func(input models.PushEventEnrichmentUpdate) bool {
			return input.Status == models.EnrichmentCompleted &&
				!input.ActorId.Valid &&
				input.RepositoryProfileId.Valid
		})).Return(nil)

	result, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.NoError(err)
	suite.Equal(models.EnrichmentCompleted, result.Status)
	suite.True(result.Partial())
	suite.repository.AssertExpectations(suite.T())
}

func (suite *EnrichmentUsecaseTestSuite) TestNeitherResourceEnrichedFails() {
	suite.expectAttemptSetup()

	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindActor, "5").Return(nil, nil)
	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindRepository, "9").Return(nil, nil)
	suite.feedRepository.On("FetchResource", suite.ctx, mock.Anything, "").
		Return(models.Resource{}, models.NetworkError)

	suite.repository.On("UpdatePushEventEnrichment", suite.ctx, mock.Anything,
		mock.MatchedBy(func(input models.PushEventEnrichmentUpdate) bool {
			return input.Status == models.EnrichmentFailed
		})).Return(nil)

	result, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.NoError(err)
	suite.Equal(models.EnrichmentFailed, result.Status)
	suite.False(result.ActorEnriched)
	suite.False(result.RepositoryEnriched)
	suite.repository.AssertExpectations(suite.T())
}

func (suite *EnrichmentUsecaseTestSuite) TestFreshCacheRowIsReusedWithoutFetching() {
	suite.expectAttemptSetup()

	actorProfileId := uuid.New()
	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindActor, "5").
		Return(&models.GithubProfile{
			Id:         actorProfileId,
			ExternalId: "5",
			FetchedAt:  time.Now().Add(-time.Hour),
		}, nil)

	repoProfileId := uuid.New()
	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindRepository, "9").
		Return(&models.GithubProfile{
			Id:         repoProfileId,
			ExternalId: "9",
			FetchedAt:  time.Now().Add(-time.Hour),
		}, nil)

	suite.repository.On("UpdatePushEventEnrichment", suite.ctx, mock.Anything,
		mock.MatchedBy(func(input models.PushEventEnrichmentUpdate) bool {
			return input.Status == models.EnrichmentCompleted
		})).Return(nil)

	result, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.NoError(err)
	suite.True(result.ActorEnriched)
	suite.True(result.RepositoryEnriched)
	suite.feedRepository.AssertNotCalled(suite.T(), "FetchResource",
		mock.Anything, mock.Anything, mock.Anything)
	suite.repository.AssertExpectations(suite.T())
}

func (suite *EnrichmentUsecaseTestSuite) TestStaleCacheRowIsRefetched() {
	suite.expectAttemptSetup()

	actorProfileId := uuid.New()
	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindActor, "5").
		Return(&models.GithubProfile{
			Id:         actorProfileId,
			ExternalId: "5",
			FetchedAt:  time.Now().Add(-25 * time.Hour),
		}, nil)
	suite.feedRepository.On("FetchResource", suite.ctx,
		"https://api.github.test/users/octocat", "").
		Return(models.Resource{Data: json.RawMessage(`{"id": 5, "login": "octocat"}`)}, nil)
	suite.repository.On("UpsertProfile", suite.ctx, mock.Anything,
		models.ProfileKindActor, mock.Anything).
		Return(models.GithubProfile{Id: actorProfileId, ExternalId: "5"}, nil)

	repoProfileId := uuid.New()
	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindRepository, "9").
		Return(&models.GithubProfile{
			Id:         repoProfileId,
			ExternalId: "9",
			FetchedAt:  time.Now().Add(-time.Hour),
		}, nil)

	suite.repository.On("UpdatePushEventEnrichment", suite.ctx, mock.Anything, mock.Anything).
		Return(nil)

	result, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.NoError(err)
	suite.True(result.ActorEnriched)
	suite.repository.AssertExpectations(suite.T())
	suite.feedRepository.AssertExpectations(suite.T())
}

func (suite *EnrichmentUsecaseTestSuite) TestRateLimitAbortsWithoutTerminalStatus() {
	suite.expectAttemptSetup()

	suite.repository.On("GetProfileByExternalId", suite.ctx, mock.Anything,
		models.ProfileKindActor, "5").Return(nil, nil)
	suite.feedRepository.On("FetchResource", suite.ctx,
		"https://api.github.test/users/octocat", "").
		Return(models.Resource{}, models.RateLimitExceededError{
			Quota: models.RateLimitSnapshot{ResetAt: time.Now().Add(time.Hour)},
		})

	_, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.ErrorIs(err, models.RateLimitError)
	suite.repository.AssertNotCalled(suite.T(), "UpdatePushEventEnrichment",
		mock.Anything, mock.Anything, mock.Anything)
	suite.repository.AssertNotCalled(suite.T(), "UpdatePushEventStatus",
		suite.ctx, mock.Anything, suite.pushEvent.Id, models.EnrichmentFailed)
}

func (suite *EnrichmentUsecaseTestSuite) TestTerminalStatusIsNotReEnriched() {
	suite.pushEvent.Status = models.EnrichmentCompleted
	suite.repository.On("GetPushEventByPushId", suite.ctx, mock.Anything, "p1").
		Return(suite.pushEvent, nil)

	result, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.NoError(err)
	suite.Equal(models.EnrichmentCompleted, result.Status)
	suite.repository.AssertNotCalled(suite.T(), "UpdatePushEventStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EnrichmentUsecaseTestSuite) TestInternalFailureForcesFailed() {
	suite.repository.On("GetPushEventByPushId", suite.ctx, mock.Anything, "p1").
		Return(suite.pushEvent, nil)
	suite.repository.On("UpdatePushEventStatus", suite.ctx, mock.Anything,
		suite.pushEvent.Id, models.EnrichmentInProgress).Return(nil)
	suite.repository.On("GetRawEventById", suite.ctx, mock.Anything, suite.rawEvent.Id).
		Return(models.RawEvent{}, models.StorageError)
	suite.repository.On("UpdatePushEventStatus", suite.ctx, mock.Anything,
		suite.pushEvent.Id, models.EnrichmentFailed).Return(nil)

	_, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.ErrorIs(err, models.EnrichmentError)
	suite.repository.AssertExpectations(suite.T())
}

func (suite *EnrichmentUsecaseTestSuite) TestMissingPushEventPropagatesNotFound() {
	suite.repository.On("GetPushEventByPushId", suite.ctx, mock.Anything, "p1").
		Return(models.PushEvent{}, models.NotFoundError)

	_, err := suite.makeUsecase().EnrichPush(suite.ctx, "p1")

	suite.ErrorIs(err, models.NotFoundError)
}

func TestEnrichmentUsecase(t *testing.T) {
	suite.Run(t, new(EnrichmentUsecaseTestSuite))
}
