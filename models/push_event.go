package models

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

type EnrichmentStatus int

const (
	// The push event has been extracted and is waiting for an enrichment worker to pick it up.
	EnrichmentPending EnrichmentStatus = iota
	// An enrichment attempt owns the record.
	EnrichmentInProgress
	// At least one of the two resources was enriched. A partially enriched
	// push also lands here; the distinction only exists on the attempt's
	// EnrichmentResult.
	EnrichmentCompleted
	// Neither resource was enriched, or the attempt failed internally. There
	// is no automatic transition out of this state.
	EnrichmentFailed
)

func (s EnrichmentStatus) String() string {
	switch s {
	case EnrichmentPending:
		return "pending"
	case EnrichmentInProgress:
		return "in_progress"
	case EnrichmentCompleted:
		return "completed"
	case EnrichmentFailed:
		return "failed"
	}
	panic(fmt.Errorf("unknown enrichment status: %d", int(s)))
}

func EnrichmentStatusFrom(s string) EnrichmentStatus {
	switch s {
	case "pending":
		return EnrichmentPending
	case "in_progress":
		return EnrichmentInProgress
	case "completed":
		return EnrichmentCompleted
	case "failed":
		return EnrichmentFailed
	}
	panic(fmt.Errorf("unknown enrichment status: %s", s))
}

// StartEnrichment is the entry transition of one enrichment attempt. A record
// already in progress may be taken over (a previous attempt crashed or was
// snoozed); terminal states are refused, failed records must be reset
// explicitly.
func (s EnrichmentStatus) StartEnrichment() (EnrichmentStatus, error) {
	switch s {
	case EnrichmentPending, EnrichmentInProgress:
		return EnrichmentInProgress, nil
	default:
		return s, errors.Wrapf(BadParameterError,
			"cannot start enrichment from status %q", s.String())
	}
}

// FinishEnrichment computes the terminal status of an attempt. One enriched
// resource is enough to complete; the caller flags the result as partial.
func FinishEnrichment(actorEnriched, repositoryEnriched bool) EnrichmentStatus {
	if actorEnriched || repositoryEnriched {
		return EnrichmentCompleted
	}
	return EnrichmentFailed
}

// PushEvent is the structured record extracted from a push-type raw event.
type PushEvent struct {
	Id                  uuid.UUID
	PushId              string
	RawEventId          uuid.UUID
	RepositoryId        string
	Ref                 string
	HeadSha             string
	BeforeSha           string
	Status              EnrichmentStatus
	ActorId             null.String
	RepositoryProfileId null.String
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type PushEventCreate struct {
	RawEventId uuid.UUID
	Fields     PushFields
}

// PushFields is the output of the field extractor.
type PushFields struct {
	PushId       string
	RepositoryId string
	Ref          string
	HeadSha      string
	BeforeSha    string
}

// PushEventEnrichmentUpdate persists the outcome of one enrichment attempt in
// a single write: the terminal status plus whichever links were resolved.
type PushEventEnrichmentUpdate struct {
	Id                  uuid.UUID
	Status              EnrichmentStatus
	ActorId             null.String
	RepositoryProfileId null.String
}

type EnrichmentResult struct {
	ActorEnriched      bool
	RepositoryEnriched bool
	Status             EnrichmentStatus
}

// Partial reports that exactly one of the two resources was enriched. The
// persisted status is still "completed" in that case.
func (r EnrichmentResult) Partial() bool {
	return r.Status == EnrichmentCompleted && r.ActorEnriched != r.RepositoryEnriched
}
