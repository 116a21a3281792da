package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ProfileKind int

const (
	ProfileKindActor ProfileKind = iota
	ProfileKindRepository
)

func (k ProfileKind) String() string {
	switch k {
	case ProfileKindActor:
		return "actor"
	case ProfileKindRepository:
		return "repository"
	}
	panic(fmt.Errorf("unknown profile kind: %d", int(k)))
}

// GithubProfile is a cached upstream resource (an actor or a repository),
// keyed by the upstream numeric id. Rows are shared by many push events and
// refreshed when older than the configured TTL.
type GithubProfile struct {
	Id          uuid.UUID
	ExternalId  string
	Login       string
	DisplayName string
	AvatarUrl   string
	HtmlUrl     string
	Raw         json.RawMessage
	FetchedAt   time.Time
}

func (p GithubProfile) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.FetchedAt) > ttl
}

type GithubProfileUpsert struct {
	ExternalId  string
	Login       string
	DisplayName string
	AvatarUrl   string
	HtmlUrl     string
	Raw         json.RawMessage
}
