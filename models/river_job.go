package models

// job that runs one enrichment attempt for a push event
type EnrichPushArgs struct {
	PushId string `json:"push_id"`
}

func (EnrichPushArgs) Kind() string { return "enrich_push" }
