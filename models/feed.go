package models

import "encoding/json"

// FeedItem is one element of the public events feed, with just enough fields
// promoted for routing; the payload keeps the full document.
type FeedItem struct {
	ExternalId string
	Type       string
	Payload    json.RawMessage
}

type FeedPage struct {
	Items       []FeedItem
	ETag        string
	NotModified bool
	Quota       RateLimitSnapshot
}

// Resource is the result of fetching a single actor or repository document.
type Resource struct {
	Data        json.RawMessage
	ETag        string
	NotModified bool
	Quota       RateLimitSnapshot
}
