package infra

import "time"

// OffloadingConfig controls whether raw event payloads are written to the
// blob store instead of inline jsonb. When disabled, payloads stay inline.
// OffloadBefore is the minimum age of a processed row before the deferred
// offloading pass moves its inline payload to the bucket.
type OffloadingConfig struct {
	Enabled       bool
	BucketUrl     string
	OffloadBefore time.Duration
}
