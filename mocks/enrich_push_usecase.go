package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hublens/hublens-backend/models"
)

type EnrichPushUsecase struct {
	mock.Mock
}

func (u *EnrichPushUsecase) EnrichPush(ctx context.Context, pushId string) (models.EnrichmentResult, error) {
	args := u.Called(ctx, pushId)
	return args.Get(0).(models.EnrichmentResult), args.Error(1)
}
