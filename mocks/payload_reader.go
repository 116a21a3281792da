package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/hublens/hublens-backend/models"
)

type PayloadReader struct {
	mock.Mock
}

func (r *PayloadReader) Read(ctx context.Context, rawEvent models.RawEvent) (json.RawMessage, error) {
	args := r.Called(ctx, rawEvent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
