package dbmodels

import (
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/utils"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBRawEvent struct {
	Id             uuid.UUID          `db:"id"`
	ExternalId     string             `db:"external_id"`
	EventType      string             `db:"event_type"`
	Payload        []byte             `db:"payload"`
	PayloadBlobKey pgtype.Text        `db:"payload_blob_key"`
	IngestedAt     time.Time          `db:"ingested_at"`
	ProcessedAt    pgtype.Timestamptz `db:"processed_at"`
}

const TABLE_RAW_EVENTS = "raw_events"

var SelectRawEventColumn = utils.ColumnList[DBRawEvent]()

func AdaptRawEvent(db DBRawEvent) (models.RawEvent, error) {
	event := models.RawEvent{
		Id:         db.Id,
		ExternalId: db.ExternalId,
		EventType:  db.EventType,
		Payload:    db.Payload,
		IngestedAt: db.IngestedAt,
	}

	if db.PayloadBlobKey.Valid {
		event.PayloadBlobKey = null.StringFrom(db.PayloadBlobKey.String)
	}
	if db.ProcessedAt.Valid {
		event.ProcessedAt = null.TimeFrom(db.ProcessedAt.Time)
	}

	return event, nil
}
