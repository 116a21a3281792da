package push_parser

import (
	"encoding/json"

	"github.com/hublens/hublens-backend/models"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

const PushEventType = "PushEvent"

// Extract turns one raw event payload into the structured push fields. Every
// field is resolved through a deterministic fallback chain; absence along the
// way is not an error, only the final validation is.
func Extract(payload json.RawMessage) (models.PushFields, error) {
	doc := gjson.ParseBytes(payload)

	if eventType := doc.Get("type").String(); eventType != PushEventType {
		return models.PushFields{}, errors.Wrapf(models.ParseError,
			"event type %q is not a push event", eventType)
	}

	fields := models.PushFields{
		PushId:       firstString(doc, "payload.push_id", "id"),
		RepositoryId: firstString(doc, "repo.full_name", "repo.name", "repo.id"),
		Ref:          firstString(doc, "payload.ref", "ref"),
		HeadSha:      headSha(doc),
		BeforeSha:    firstString(doc, "payload.before"),
	}

	var missing []string
	if fields.RepositoryId == "" {
		missing = append(missing, "repository_id")
	}
	if fields.PushId == "" {
		missing = append(missing, "push_id")
	}
	if fields.Ref == "" {
		missing = append(missing, "ref")
	}
	if fields.HeadSha == "" {
		missing = append(missing, "head_sha")
	}
	if len(missing) > 0 {
		return models.PushFields{}, models.MissingFieldsError{Fields: missing}
	}

	return fields, nil
}

// firstString walks the paths in order and returns the first one present.
// Numbers are rendered as their decimal string so ids can be used as keys.
func firstString(doc gjson.Result, paths ...string) string {
	for _, path := range paths {
		if value := doc.Get(path); value.Exists() && value.String() != "" {
			return value.String()
		}
	}
	return ""
}

func headSha(doc gjson.Result) string {
	if head := doc.Get("payload.head"); head.Exists() && head.String() != "" {
		return head.String()
	}
	if commits := doc.Get("payload.commits").Array(); len(commits) > 0 {
		if sha := commits[len(commits)-1].Get("sha").String(); sha != "" {
			return sha
		}
	}
	return firstString(doc, "payload.head_commit.id", "payload.head_commit.sha")
}
