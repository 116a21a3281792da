package httpmodels

import (
	"encoding/json"
	"strconv"

	"github.com/hublens/hublens-backend/models"

	"github.com/cockroachdb/errors"
)

// HTTPGithubProfile is the subset of a user or repository document we promote
// to columns. Users carry login+name, repositories carry full_name; the
// adapter folds both shapes into one upsert.
type HTTPGithubProfile struct {
	Id        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	AvatarUrl string `json:"avatar_url"`
	HtmlUrl   string `json:"html_url"`
}

func AdaptGithubProfileUpsert(raw json.RawMessage) (models.GithubProfileUpsert, error) {
	var profile HTTPGithubProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return models.GithubProfileUpsert{}, errors.Wrap(models.ApiError, err.Error())
	}
	if profile.Id == 0 {
		return models.GithubProfileUpsert{}, errors.Wrap(models.ApiError,
			"profile document has no id")
	}

	login := profile.Login
	if login == "" {
		login = profile.FullName
	}
	displayName := profile.Name
	if displayName == "" {
		displayName = profile.FullName
	}
	if displayName == "" {
		displayName = login
	}

	return models.GithubProfileUpsert{
		ExternalId:  strconv.FormatInt(profile.Id, 10),
		Login:       login,
		DisplayName: displayName,
		AvatarUrl:   profile.AvatarUrl,
		HtmlUrl:     profile.HtmlUrl,
		Raw:         raw,
	}, nil
}
