package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hublens/hublens-backend/infra"
	"github.com/hublens/hublens-backend/models"

	"github.com/cockroachdb/errors"
	"github.com/guregu/null/v5"
)

// PayloadStoreRepository writes event payloads to the configured bucket, keyed
// by ingestion date so old partitions can be expired wholesale. When
// offloading is disabled every call is a no-op and payloads stay inline in
// the database row.
type PayloadStoreRepository struct {
	config   infra.OffloadingConfig
	blobRepo BlobRepository
}

func NewPayloadStoreRepository(config infra.OffloadingConfig, blobRepo BlobRepository) *PayloadStoreRepository {
	return &PayloadStoreRepository{
		config:   config,
		blobRepo: blobRepo,
	}
}

func PayloadKey(ingestedAt time.Time, externalId string) string {
	return fmt.Sprintf("events/%s/%s.json", ingestedAt.UTC().Format("2006/01/02"), externalId)
}

func (repo *PayloadStoreRepository) Enabled() bool {
	return repo.config.Enabled
}

// StorePayload uploads the payload and returns the blob key, or an invalid
// key when offloading is disabled.
func (repo *PayloadStoreRepository) StorePayload(ctx context.Context,
	ingestedAt time.Time, externalId string, payload json.RawMessage,
) (null.String, error) {
	if !repo.config.Enabled {
		return null.String{}, nil
	}

	key := PayloadKey(ingestedAt, externalId)

	writer, err := repo.blobRepo.OpenStream(ctx, repo.config.BucketUrl, key)
	if err != nil {
		return null.String{}, errors.Wrap(models.StorageError, err.Error())
	}
	if _, err := writer.Write(payload); err != nil {
		_ = writer.Close()
		return null.String{}, errors.Wrap(models.StorageError, err.Error())
	}
	if err := writer.Close(); err != nil {
		return null.String{}, errors.Wrap(models.StorageError, err.Error())
	}

	return null.StringFrom(key), nil
}

func (repo *PayloadStoreRepository) RetrievePayload(ctx context.Context, blobKey string) (json.RawMessage, error) {
	blob, err := repo.blobRepo.GetBlob(ctx, repo.config.BucketUrl, blobKey)
	if err != nil {
		if errors.Is(err, models.NotFoundError) {
			return nil, err
		}
		return nil, errors.Wrap(models.StorageError, err.Error())
	}
	defer blob.ReadCloser.Close()

	payload, err := io.ReadAll(blob.ReadCloser)
	if err != nil {
		return nil, errors.Wrap(models.StorageError, err.Error())
	}
	return payload, nil
}

func (repo *PayloadStoreRepository) DeletePayload(ctx context.Context, blobKey string) error {
	if err := repo.blobRepo.DeleteFile(ctx, repo.config.BucketUrl, blobKey); err != nil {
		return errors.Wrap(models.StorageError, err.Error())
	}
	return nil
}
