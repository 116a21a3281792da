package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/guregu/null/v5"
)

type PayloadStore struct {
	mock.Mock
}

func (s *PayloadStore) Enabled() bool {
	args := s.Called()
	return args.Bool(0)
}

func (s *PayloadStore) StorePayload(ctx context.Context, ingestedAt time.Time,
	externalId string, payload json.RawMessage,
) (null.String, error) {
	args := s.Called(ctx, ingestedAt, externalId, payload)
	return args.Get(0).(null.String), args.Error(1)
}

func (s *PayloadStore) RetrievePayload(ctx context.Context, blobKey string) (json.RawMessage, error) {
	args := s.Called(ctx, blobKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (s *PayloadStore) DeletePayload(ctx context.Context, blobKey string) error {
	args := s.Called(ctx, blobKey)
	return args.Error(0)
}
