package payload_reader

import (
	"context"
	"encoding/json"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const payloadCacheSize = 128

type payloadStore interface {
	RetrievePayload(ctx context.Context, blobKey string) (json.RawMessage, error)
}

// PayloadReader resolves a raw event's payload wherever it lives. Offloaded
// payloads are fetched once and memoized in a bounded cache, so the extractor
// and the enrichment steps of one attempt share a single blob read without the
// long-lived worker accumulating every payload it ever saw.
type PayloadReader struct {
	payloadStore payloadStore
	cache        *lru.Cache[uuid.UUID, json.RawMessage]
}

func NewPayloadReader(payloadStore payloadStore) *PayloadReader {
	cache, _ := lru.New[uuid.UUID, json.RawMessage](payloadCacheSize)
	return &PayloadReader{
		payloadStore: payloadStore,
		cache:        cache,
	}
}

func (r *PayloadReader) Read(ctx context.Context, rawEvent models.RawEvent) (json.RawMessage, error) {
	if !rawEvent.PayloadBlobKey.Valid {
		if len(rawEvent.Payload) == 0 {
			return nil, errors.Wrapf(models.StorageError,
				"raw event %s has neither an inline payload nor a blob key", rawEvent.Id)
		}
		return rawEvent.Payload, nil
	}

	if payload, ok := r.cache.Get(rawEvent.Id); ok {
		return payload, nil
	}

	payload, err := r.payloadStore.RetrievePayload(ctx, rawEvent.PayloadBlobKey.String)
	if err != nil {
		// rows written before offloading was enabled can carry both; prefer the
		// blob but fall back to the inline copy rather than failing the read
		if len(rawEvent.Payload) > 0 {
			utils.LoggerFromContext(ctx).WarnContext(ctx,
				"failed to read offloaded payload, using inline copy",
				"raw_event_id", rawEvent.Id.String(), "error", err.Error())
			return rawEvent.Payload, nil
		}
		return nil, err
	}

	r.cache.Add(rawEvent.Id, payload)

	return payload, nil
}
