package repositories

import (
	"context"
	"strings"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/repositories/dbmodels"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

func (repo *HublensDbRepository) GetProfileByExternalId(ctx context.Context, exec Executor,
	kind models.ProfileKind, externalId string,
) (*models.GithubProfile, error) {
	if err := validateDbExecutor(exec); err != nil {
		return nil, err
	}

	query := NewQueryBuilder().
		Select(dbmodels.SelectGithubProfileColumn...).
		From(dbmodels.ProfileTable(kind)).
		Where(squirrel.Eq{"external_id": externalId})

	return SqlToOptionalModel(ctx, exec, query, dbmodels.AdaptGithubProfile)
}

// UpsertProfile creates or refreshes a cache row keyed by the upstream id,
// bumping fetched_at so the freshness window restarts.
func (repo *HublensDbRepository) UpsertProfile(ctx context.Context, exec Executor,
	kind models.ProfileKind, input models.GithubProfileUpsert,
) (models.GithubProfile, error) {
	if err := validateDbExecutor(exec); err != nil {
		return models.GithubProfile{}, err
	}

	query := NewQueryBuilder().
		Insert(dbmodels.ProfileTable(kind)).
		Columns(
			"id",
			"external_id",
			"login",
			"display_name",
			"avatar_url",
			"html_url",
			"raw",
			"fetched_at",
		).
		Values(
			uuid.Must(uuid.NewV7()),
			input.ExternalId,
			input.Login,
			input.DisplayName,
			input.AvatarUrl,
			input.HtmlUrl,
			[]byte(input.Raw),
			squirrel.Expr("NOW()"),
		).
		Suffix("on conflict (external_id) do update set").
		Suffix("login = excluded.login,").
		Suffix("display_name = excluded.display_name,").
		Suffix("avatar_url = excluded.avatar_url,").
		Suffix("html_url = excluded.html_url,").
		Suffix("raw = excluded.raw,").
		Suffix("fetched_at = excluded.fetched_at").
		Suffix("returning " + strings.Join(dbmodels.SelectGithubProfileColumn, ", "))

	return SqlToModel(ctx, exec, query, dbmodels.AdaptGithubProfile)
}
