package payload_reader

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hublens/hublens-backend/mocks"
	"github.com/hublens/hublens-backend/models"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReadInlinePayload(t *testing.T) {
	store := new(mocks.PayloadStore)
	reader := NewPayloadReader(store)

	payload, err := reader.Read(context.Background(), models.RawEvent{
		Id:      uuid.New(),
		Payload: json.RawMessage(`{"a": 1}`),
	})

	assert.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(payload))
	store.AssertNotCalled(t, "RetrievePayload", mock.Anything, mock.Anything)
}

func TestReadOffloadedPayloadIsMemoized(t *testing.T) {
	store := new(mocks.PayloadStore)
	reader := NewPayloadReader(store)
	ctx := context.Background()

	rawEvent := models.RawEvent{
		Id:             uuid.New(),
		PayloadBlobKey: null.StringFrom("events/2026/08/23/1.json"),
	}
	store.On("RetrievePayload", ctx, "events/2026/08/23/1.json").
		Return(json.RawMessage(`{"a": 1}`), nil).Once()

	for range 3 {
		payload, err := reader.Read(ctx, rawEvent)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"a": 1}`, string(payload))
	}
	store.AssertExpectations(t)
}

func TestReadCacheIsBounded(t *testing.T) {
	store := new(mocks.PayloadStore)
	reader := NewPayloadReader(store)
	ctx := context.Background()

	first := models.RawEvent{
		Id:             uuid.New(),
		PayloadBlobKey: null.StringFrom("events/2026/08/23/first.json"),
	}
	store.On("RetrievePayload", ctx, "events/2026/08/23/first.json").
		Return(json.RawMessage(`{"a": 1}`), nil).Twice()

	_, err := reader.Read(ctx, first)
	assert.NoError(t, err)

	// a full cache worth of other events evicts the oldest entry
	for i := range payloadCacheSize {
		key := fmt.Sprintf("events/2026/08/23/%d.json", i)
		store.On("RetrievePayload", ctx, key).Return(json.RawMessage(`{}`), nil).Once()

		_, err := reader.Read(ctx, models.RawEvent{
			Id:             uuid.New(),
			PayloadBlobKey: null.StringFrom(key),
		})
		assert.NoError(t, err)
	}

	_, err = reader.Read(ctx, first)
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReadFallsBackToInlineOnBlobFailure(t *testing.T) {
	store := new(mocks.PayloadStore)
	reader := NewPayloadReader(store)
	ctx := context.Background()

	rawEvent := models.RawEvent{
		Id:             uuid.New(),
		Payload:        json.RawMessage(`{"a": 1}`),
		PayloadBlobKey: null.StringFrom("events/2026/08/23/1.json"),
	}
	store.On("RetrievePayload", ctx, "events/2026/08/23/1.json").
		Return(nil, models.NotFoundError)

	payload, err := reader.Read(ctx, rawEvent)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(payload))
}

func TestReadBlobFailureWithoutInlineCopy(t *testing.T) {
	store := new(mocks.PayloadStore)
	reader := NewPayloadReader(store)
	ctx := context.Background()

	rawEvent := models.RawEvent{
		Id:             uuid.New(),
		PayloadBlobKey: null.StringFrom("events/2026/08/23/1.json"),
	}
	store.On("RetrievePayload", ctx, "events/2026/08/23/1.json").
		Return(nil, models.StorageError)

	_, err := reader.Read(ctx, rawEvent)
	assert.ErrorIs(t, err, models.StorageError)
}
