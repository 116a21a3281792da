package models

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

// RawEvent is one upstream event as received, keyed by the upstream event id.
// The payload lives either inline or in the blob store, never both and never
// neither.
type RawEvent struct {
	Id             uuid.UUID
	ExternalId     string
	EventType      string
	Payload        json.RawMessage
	PayloadBlobKey null.String
	IngestedAt     time.Time
	ProcessedAt    null.Time
}

func (e RawEvent) Processed() bool {
	return e.ProcessedAt.Valid
}

type RawEventCreate struct {
	ExternalId     string
	EventType      string
	Payload        json.RawMessage
	PayloadBlobKey null.String
}

func (c RawEventCreate) Validate() error {
	inline := len(c.Payload) > 0
	offloaded := c.PayloadBlobKey.Valid && c.PayloadBlobKey.String != ""
	if inline == offloaded {
		return errors.Wrap(BadParameterError,
			"a raw event must carry exactly one of an inline payload or a blob key")
	}
	return nil
}
