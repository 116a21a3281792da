package dbmodels

import (
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/utils"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBPushEvent struct {
	Id                  uuid.UUID   `db:"id"`
	PushId              string      `db:"push_id"`
	RawEventId          uuid.UUID   `db:"raw_event_id"`
	RepositoryId        string      `db:"repository_id"`
	Ref                 string      `db:"ref"`
	HeadSha             string      `db:"head_sha"`
	BeforeSha           string      `db:"before_sha"`
	EnrichmentStatus    string      `db:"enrichment_status"`
	ActorId             pgtype.UUID `db:"actor_id"`
	RepositoryProfileId pgtype.UUID `db:"repository_profile_id"`
	CreatedAt           time.Time   `db:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at"`
}

const TABLE_PUSH_EVENTS = "push_events"

var SelectPushEventColumn = utils.ColumnList[DBPushEvent]()

func AdaptPushEvent(db DBPushEvent) (models.PushEvent, error) {
	push := models.PushEvent{
		Id:           db.Id,
		PushId:       db.PushId,
		RawEventId:   db.RawEventId,
		RepositoryId: db.RepositoryId,
		Ref:          db.Ref,
		HeadSha:      db.HeadSha,
		BeforeSha:    db.BeforeSha,
		Status:       models.EnrichmentStatusFrom(db.EnrichmentStatus),
		CreatedAt:    db.CreatedAt,
		UpdatedAt:    db.UpdatedAt,
	}

	if db.ActorId.Valid {
		actorId, _ := uuid.FromBytes(db.ActorId.Bytes[:])
		push.ActorId = null.StringFrom(actorId.String())
	}
	if db.RepositoryProfileId.Valid {
		profileId, _ := uuid.FromBytes(db.RepositoryProfileId.Bytes[:])
		push.RepositoryProfileId = null.StringFrom(profileId.String())
	}

	return push, nil
}
