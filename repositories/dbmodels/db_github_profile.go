package dbmodels

import (
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBGithubProfile struct {
	Id          uuid.UUID   `db:"id"`
	ExternalId  string      `db:"external_id"`
	Login       string      `db:"login"`
	DisplayName pgtype.Text `db:"display_name"`
	AvatarUrl   pgtype.Text `db:"avatar_url"`
	HtmlUrl     pgtype.Text `db:"html_url"`
	Raw         []byte      `db:"raw"`
	FetchedAt   time.Time   `db:"fetched_at"`
}

const (
	TABLE_ACTORS              = "actors"
	TABLE_REPOSITORY_PROFILES = "repository_profiles"
)

var SelectGithubProfileColumn = utils.ColumnList[DBGithubProfile]()

// ProfileTable maps a profile kind to the table holding its cache rows. The
// two tables are structurally identical.
func ProfileTable(kind models.ProfileKind) string {
	if kind == models.ProfileKindRepository {
		return TABLE_REPOSITORY_PROFILES
	}
	return TABLE_ACTORS
}

func AdaptGithubProfile(db DBGithubProfile) (models.GithubProfile, error) {
	profile := models.GithubProfile{
		Id:         db.Id,
		ExternalId: db.ExternalId,
		Login:      db.Login,
		Raw:        db.Raw,
		FetchedAt:  db.FetchedAt,
	}

	if db.DisplayName.Valid {
		profile.DisplayName = db.DisplayName.String
	}
	if db.AvatarUrl.Valid {
		profile.AvatarUrl = db.AvatarUrl.String
	}
	if db.HtmlUrl.Valid {
		profile.HtmlUrl = db.HtmlUrl.String
	}

	return profile, nil
}
