package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hublens/hublens-backend/models"
)

type FeedRepository struct {
	mock.Mock
}

func (r *FeedRepository) FetchEvents(ctx context.Context, etag string) (models.FeedPage, error) {
	args := r.Called(ctx, etag)
	return args.Get(0).(models.FeedPage), args.Error(1)
}

func (r *FeedRepository) FetchResource(ctx context.Context, resourceUrl, etag string) (models.Resource, error) {
	args := r.Called(ctx, resourceUrl, etag)
	return args.Get(0).(models.Resource), args.Error(1)
}

func (r *FeedRepository) UserUrl(login string) (string, error) {
	args := r.Called(login)
	return args.String(0), args.Error(1)
}

func (r *FeedRepository) RepositoryUrl(fullName string) (string, error) {
	args := r.Called(fullName)
	return args.String(0), args.Error(1)
}
