package repositories

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hublens/hublens-backend/infra"
	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/utils"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const quotaCacheSize = 16

// GithubFeedRepository talks to the GitHub REST API: the public events feed
// and the per-resource actor/repository endpoints. Every response's rate
// limit headers are snapshotted and the last snapshot per host is kept, so a
// call made while the quota is known to be exhausted fails locally without
// spending a request.
type GithubFeedRepository struct {
	config infra.FeedConfig
	client *http.Client
	quotas *lru.Cache[string, models.RateLimitSnapshot]
}

func NewGithubFeedRepository(config infra.FeedConfig, client *http.Client) *GithubFeedRepository {
	if client == nil {
		client = &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	quotas, _ := lru.New[string, models.RateLimitSnapshot](quotaCacheSize)
	return &GithubFeedRepository{
		config: config,
		client: client,
		quotas: quotas,
	}
}

// FetchEvents performs a conditional GET of the public events feed. A 304
// comes back as a page with NotModified set and no items.
func (repo *GithubFeedRepository) FetchEvents(ctx context.Context, etag string) (models.FeedPage, error) {
	endpoint, err := url.JoinPath(repo.config.BaseUrl, "events")
	if err != nil {
		return models.FeedPage{}, errors.Wrap(models.ApiError, err.Error())
	}

	resp, err := repo.do(ctx, endpoint, etag)
	if err != nil {
		return models.FeedPage{}, err
	}

	page := models.FeedPage{
		ETag:        resp.etag,
		NotModified: resp.notModified,
		Quota:       resp.quota,
	}
	if resp.notModified {
		return page, nil
	}

	parsed := gjson.ParseBytes(resp.body)
	if !parsed.IsArray() {
		return models.FeedPage{}, errors.Wrap(models.ApiError, "events response is not a JSON array")
	}
	for _, item := range parsed.Array() {
		page.Items = append(page.Items, models.FeedItem{
			ExternalId: item.Get("id").String(),
			Type:       item.Get("type").String(),
			Payload:    []byte(item.Raw),
		})
	}
	return page, nil
}

// FetchResource fetches a single actor or repository document by absolute URL.
func (repo *GithubFeedRepository) FetchResource(ctx context.Context, resourceUrl, etag string) (models.Resource, error) {
	resp, err := repo.do(ctx, resourceUrl, etag)
	if err != nil {
		return models.Resource{}, err
	}

	return models.Resource{
		Data:        resp.body,
		ETag:        resp.etag,
		NotModified: resp.notModified,
		Quota:       resp.quota,
	}, nil
}

type feedResponse struct {
	body        []byte
	etag        string
	notModified bool
	quota       models.RateLimitSnapshot
}

func (repo *GithubFeedRepository) do(ctx context.Context, rawUrl, etag string) (feedResponse, error) {
	logger := utils.LoggerFromContext(ctx)

	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return feedResponse{}, errors.Wrapf(models.ApiError, "invalid url %s", rawUrl)
	}
	host := parsed.Host

	if quota, ok := repo.quotas.Get(host); ok && quota.Exhausted(time.Now()) {
		logger.DebugContext(ctx, "skipping request, rate limit known exhausted",
			"host", host, "reset_at", quota.ResetAt)
		return feedResponse{}, models.RateLimitExceededError{Quota: quota}
	}

	var out feedResponse
	err = retry.Do(
		func() error {
			resp, err := repo.roundTrip(ctx, rawUrl, etag)
			if err != nil {
				return err
			}
			out = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(repo.config.MaxRetries)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, models.NetworkError) || errors.Is(err, errRetryableStatus)
		}),
	)
	if err != nil {
		if errors.Is(err, errRetryableStatus) {
			return feedResponse{}, errors.Wrap(models.ApiError, err.Error())
		}
		return feedResponse{}, err
	}
	return out, nil
}

// errRetryableStatus marks a 5xx response inside the retry loop; it is mapped
// to ApiError once attempts are exhausted.
var errRetryableStatus = errors.New("retryable upstream status")

func (repo *GithubFeedRepository) roundTrip(ctx context.Context, rawUrl, etag string) (feedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		return feedResponse{}, errors.Wrap(models.ApiError, err.Error())
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if repo.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+repo.config.Token)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	httpResp, err := repo.client.Do(req)
	if err != nil {
		return feedResponse{}, errors.Wrap(models.NetworkError, err.Error())
	}
	defer httpResp.Body.Close()

	// quota state is refreshed from every response, error responses included
	quota := parseRateLimitHeaders(httpResp.Header)
	if quota.Known() {
		repo.quotas.Add(req.URL.Host, quota)
	}

	// a zero remaining header classifies the 403 on its own; the reset header
	// only feeds the local fast-fail
	remainingHeader := strings.TrimSpace(httpResp.Header.Get("X-RateLimit-Remaining"))

	switch {
	case httpResp.StatusCode == http.StatusNotModified:
		return feedResponse{
			etag:        etagOrPrevious(httpResp.Header, etag),
			notModified: true,
			quota:       quota,
		}, nil

	case httpResp.StatusCode == http.StatusForbidden && remainingHeader == "0",
		httpResp.StatusCode == http.StatusTooManyRequests:
		return feedResponse{}, models.RateLimitExceededError{Quota: quota}

	case httpResp.StatusCode >= http.StatusInternalServerError:
		return feedResponse{}, errors.Wrapf(errRetryableStatus,
			"GET %s: status %d", rawUrl, httpResp.StatusCode)

	case httpResp.StatusCode == http.StatusNotFound:
		return feedResponse{}, errors.Wrapf(models.NotFoundError, "GET %s: status 404", rawUrl)

	case httpResp.StatusCode != http.StatusOK:
		return feedResponse{}, errors.Wrapf(models.ApiError,
			"GET %s: unexpected status %d", rawUrl, httpResp.StatusCode)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return feedResponse{}, errors.Wrap(models.NetworkError, err.Error())
	}

	return feedResponse{
		body:  body,
		etag:  httpResp.Header.Get("ETag"),
		quota: quota,
	}, nil
}

// etagOrPrevious keeps the etag the conditional request was made with: on a
// 304 that value is still current, whatever the response header says.
func etagOrPrevious(header http.Header, previous string) string {
	if previous != "" {
		return previous
	}
	return header.Get("ETag")
}

func parseRateLimitHeaders(header http.Header) models.RateLimitSnapshot {
	var quota models.RateLimitSnapshot

	if limit, err := strconv.Atoi(header.Get("X-RateLimit-Limit")); err == nil {
		quota.Limit = limit
	}
	remaining := strings.TrimSpace(header.Get("X-RateLimit-Remaining"))
	if remaining == "" {
		return models.RateLimitSnapshot{}
	}
	if value, err := strconv.Atoi(remaining); err == nil {
		quota.Remaining = value
	} else {
		return models.RateLimitSnapshot{}
	}
	if resetUnix, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		quota.ResetAt = time.Unix(resetUnix, 0).UTC()
	}
	return quota
}

// UserUrl and RepositoryUrl build canonical API urls for the enrichment
// fallback chains, when the payload itself does not carry one.
func (repo *GithubFeedRepository) UserUrl(login string) (string, error) {
	return url.JoinPath(repo.config.BaseUrl, "users", login)
}

func (repo *GithubFeedRepository) RepositoryUrl(fullName string) (string, error) {
	if !strings.Contains(fullName, "/") {
		return "", errors.Wrapf(models.BadParameterError, "repository name %q is not owner/name", fullName)
	}
	base := strings.TrimSuffix(repo.config.BaseUrl, "/")
	return fmt.Sprintf("%s/repos/%s", base, fullName), nil
}
