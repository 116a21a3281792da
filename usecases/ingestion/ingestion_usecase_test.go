package ingestion

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hublens/hublens-backend/mocks"
	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/usecases/executor_factory"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type IngestionUsecaseTestSuite struct {
	suite.Suite

	executorFactory executor_factory.ExecutorFactoryStub
	feedRepository  *mocks.FeedRepository
	repository      *mocks.Database
	payloadStore    *mocks.PayloadStore

	ctx context.Context
}

func (suite *IngestionUsecaseTestSuite) SetupTest() {
	suite.executorFactory = executor_factory.NewExecutorFactoryStub()
	suite.feedRepository = new(mocks.FeedRepository)
	suite.repository = new(mocks.Database)
	suite.payloadStore = new(mocks.PayloadStore)
	suite.ctx = context.Background()
}

func (suite *IngestionUsecaseTestSuite) makeUsecase() IngestionUsecase {
	return NewIngestionUsecase(
		suite.executorFactory,
		suite.feedRepository,
		suite.repository,
		suite.payloadStore,
	)
}

func (suite *IngestionUsecaseTestSuite) AssertExpectations() {
	t := suite.T()
	suite.feedRepository.AssertExpectations(t)
	suite.repository.AssertExpectations(t)
	suite.payloadStore.AssertExpectations(t)
}

func pushItem(id string) models.FeedItem {
	return models.FeedItem{
		ExternalId: id,
		Type:       "PushEvent",
		Payload: json.RawMessage(`{
			"type": "PushEvent",
			"id": "` + id + `",
			"repo": {"full_name": "o/r"},
			"payload": {"ref": "refs/heads/main", "head": "abc", "before": "def"}
		}`),
	}
}

func (suite *IngestionUsecaseTestSuite) TestNotModifiedIsANoop() {
	suite.repository.On("GetCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag).
		Return(&models.Cursor{Key: models.CursorEventsFeedETag, Value: `"X"`}, nil)
	suite.feedRepository.On("FetchEvents", suite.ctx, `"X"`).
		Return(models.FeedPage{ETag: `"X"`, NotModified: true}, nil)

	report, err := suite.makeUsecase().IngestFeed(suite.ctx)

	suite.NoError(err)
	suite.True(report.NotModified)
	suite.Equal(0, report.Seen)
	suite.AssertExpectations()
}

func (suite *IngestionUsecaseTestSuite) TestIngestNewPushEvent() {
	item := pushItem("1")
	rawEventId := uuid.New()

	suite.repository.On("GetCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag).
		Return(nil, nil)
	suite.feedRepository.On("FetchEvents", suite.ctx, "").
		Return(models.FeedPage{Items: []models.FeedItem{item}, ETag: `"new"`}, nil)

	suite.repository.On("GetRawEventByExternalId", suite.ctx, mock.Anything, "1").
		Return(models.RawEvent{}, models.NotFoundError)
	suite.payloadStore.On("StorePayload", suite.ctx, mock.Anything, "1", item.Payload).
		Return(null.String{}, nil)
	suite.repository.On("CreateRawEvent", suite.ctx, mock.Anything, models.RawEventCreate{
		ExternalId: "1",
		EventType:  "PushEvent",
		Payload:    item.Payload,
	}).Return(models.RawEvent{Id: rawEventId, ExternalId: "1", Payload: item.Payload}, nil)

	suite.repository.On("GetPushEventByRawEventId", suite.ctx, mock.Anything, rawEventId).
		Return(nil, nil)
	suite.repository.On("CreatePushEvent", suite.ctx, mock.Anything, models.PushEventCreate{
		RawEventId: rawEventId,
		Fields: models.PushFields{
			PushId:       "1",
			RepositoryId: "o/r",
			Ref:          "refs/heads/main",
			HeadSha:      "abc",
			BeforeSha:    "def",
		},
	}).Return(models.PushEvent{Id: uuid.New(), PushId: "1"}, nil)
	suite.repository.On("MarkRawEventProcessed", suite.ctx, mock.Anything, rawEventId, mock.Anything).
		Return(nil)
	suite.repository.On("SaveCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag, `"new"`).
		Return(nil)

	report, err := suite.makeUsecase().IngestFeed(suite.ctx)

	suite.NoError(err)
	suite.Equal(1, report.Seen)
	suite.Equal(1, report.Created)
	suite.Equal(1, report.PushesCreated)
	suite.Equal(0, report.Errors)
	suite.AssertExpectations()
}

func (suite *IngestionUsecaseTestSuite) TestAlreadyProcessedEventIsSkipped() {
	item := pushItem("1")

	suite.repository.On("GetCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag).
		Return(nil, nil)
	suite.feedRepository.On("FetchEvents", suite.ctx, "").
		Return(models.FeedPage{Items: []models.FeedItem{item}, ETag: `"new"`}, nil)
	suite.repository.On("GetRawEventByExternalId", suite.ctx, mock.Anything, "1").
		Return(models.RawEvent{
			Id:          uuid.New(),
			ExternalId:  "1",
			ProcessedAt: null.TimeFrom(time.Now()),
		}, nil)
	suite.repository.On("SaveCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag, `"new"`).
		Return(nil)

	report, err := suite.makeUsecase().IngestFeed(suite.ctx)

	suite.NoError(err)
	suite.Equal(1, report.AlreadyProcessed)
	suite.Equal(0, report.Created)
	suite.repository.AssertNotCalled(suite.T(), "MarkRawEventProcessed",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.AssertExpectations()
}

func (suite *IngestionUsecaseTestSuite) TestParseErrorDoesNotAbortTheBatch() {
	malformed := models.FeedItem{
		ExternalId: "1",
		Type:       "PushEvent",
		Payload:    json.RawMessage(`{"type": "PushEvent", "id": "1"}`),
	}
	ok := pushItem("2")
	malformedRawId := uuid.New()
	okRawId := uuid.New()

	suite.repository.On("GetCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag).
		Return(nil, nil)
	suite.feedRepository.On("FetchEvents", suite.ctx, "").
		Return(models.FeedPage{Items: []models.FeedItem{malformed, ok}, ETag: `"new"`}, nil)

	suite.repository.On("GetRawEventByExternalId", suite.ctx, mock.Anything, "1").
		Return(models.RawEvent{}, models.NotFoundError)
	suite.repository.On("GetRawEventByExternalId", suite.ctx, mock.Anything, "2").
		Return(models.RawEvent{}, models.NotFoundError)
	suite.payloadStore.On("StorePayload", suite.ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(null.String{}, nil)
	suite.repository.On("CreateRawEvent", suite.ctx, mock.Anything, mock.MatchedBy(
		func(input models.RawEventCreate) bool { return input.ExternalId == "1" })).
		Return(models.RawEvent{Id: malformedRawId, ExternalId: "1"}, nil)
	suite.repository.On("CreateRawEvent", suite.ctx, mock.Anything, mock.MatchedBy(
		func(input models.RawEventCreate) bool { return input.ExternalId == "2" })).
		Return(models.RawEvent{Id: okRawId, ExternalId: "2"}, nil)
	suite.repository.On("GetPushEventByRawEventId", suite.ctx, mock.Anything, mock.Anything).
		Return(nil, nil)
	suite.repository.On("CreatePushEvent", suite.ctx, mock.Anything, mock.Anything).
		Return(models.PushEvent{Id: uuid.New(), PushId: "2"}, nil)
	suite.repository.On("MarkRawEventProcessed", suite.ctx, mock.Anything, okRawId, mock.Anything).
		Return(nil)
	suite.repository.On("SaveCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag, `"new"`).
		Return(nil)

	report, err := suite.makeUsecase().IngestFeed(suite.ctx)

	suite.NoError(err)
	suite.Equal(2, report.Seen)
	suite.Equal(1, report.Errors)
	suite.Equal(1, report.PushesCreated)
	// the malformed item's raw event stays unprocessed for a later pass
	suite.repository.AssertNotCalled(suite.T(), "MarkRawEventProcessed",
		suite.ctx, mock.Anything, malformedRawId, mock.Anything)
	suite.AssertExpectations()
}

func (suite *IngestionUsecaseTestSuite) TestUniqueConflictIsTreatedAsSuccess() {
	item := pushItem("1")
	rawEventId := uuid.New()
	uniqueViolation := &pgconn.PgError{Code: pgerrcode.UniqueViolation}

	suite.repository.On("GetCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag).
		Return(nil, nil)
	suite.feedRepository.On("FetchEvents", suite.ctx, "").
		Return(models.FeedPage{Items: []models.FeedItem{item}, ETag: `"new"`}, nil)

	suite.repository.On("GetRawEventByExternalId", suite.ctx, mock.Anything, "1").
		Return(models.RawEvent{}, models.NotFoundError).Once()
	suite.payloadStore.On("StorePayload", suite.ctx, mock.Anything, "1", item.Payload).
		Return(null.String{}, nil)
	suite.repository.On("CreateRawEvent", suite.ctx, mock.Anything, mock.Anything).
		Return(models.RawEvent{}, uniqueViolation)
	suite.repository.On("GetRawEventByExternalId", suite.ctx, mock.Anything, "1").
		Return(models.RawEvent{Id: rawEventId, ExternalId: "1"}, nil).Once()

	suite.repository.On("GetPushEventByRawEventId", suite.ctx, mock.Anything, rawEventId).
		Return(nil, nil)
	suite.repository.On("CreatePushEvent", suite.ctx, mock.Anything, mock.Anything).
		Return(models.PushEvent{}, uniqueViolation)
	suite.repository.On("GetPushEventByPushId", suite.ctx, mock.Anything, "1").
		Return(models.PushEvent{Id: uuid.New(), PushId: "1"}, nil)
	suite.repository.On("MarkRawEventProcessed", suite.ctx, mock.Anything, rawEventId, mock.Anything).
		Return(nil)
	suite.repository.On("SaveCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag, `"new"`).
		Return(nil)

	report, err := suite.makeUsecase().IngestFeed(suite.ctx)

	suite.NoError(err)
	suite.Equal(0, report.Errors)
	suite.Equal(0, report.PushesCreated)
	suite.AssertExpectations()
}

func (suite *IngestionUsecaseTestSuite) TestFeedFetchFailurePropagates() {
	suite.repository.On("GetCursor", suite.ctx, mock.Anything, models.CursorEventsFeedETag).
		Return(nil, nil)
	suite.feedRepository.On("FetchEvents", suite.ctx, "").
		Return(models.FeedPage{}, models.RateLimitExceededError{})

	_, err := suite.makeUsecase().IngestFeed(suite.ctx)

	assert.ErrorIs(suite.T(), err, models.RateLimitError)
	suite.AssertExpectations()
}

func TestIngestionUsecase(t *testing.T) {
	suite.Run(t, new(IngestionUsecaseTestSuite))
}
