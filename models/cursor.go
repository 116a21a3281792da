package models

import "time"

// CursorEventsFeedETag is the key under which the last conditional-request
// token of the events feed is persisted between polling runs.
const CursorEventsFeedETag = "events_feed_etag"

type Cursor struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
