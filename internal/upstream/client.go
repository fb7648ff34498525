// Package upstream issues authenticated GET requests against the game
// data API through the response cache, normalizing transport and HTTP
// errors into a uniform (payload, status) shape so callers never need
// separate handling branches.
package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"armory-gateway/internal/common/cache"
	"armory-gateway/internal/common/logging"
	"armory-gateway/internal/token"
)

// TokenSource supplies a valid bearer token for outbound requests.
type TokenSource interface {
	Get(ctx context.Context) (*token.Token, error)
}

// Client fetches upstream resources. A 4xx/5xx from the data API is
// returned as data, not as a failure; transport-level failures become a
// synthetic {"error": ...} payload with status 500.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	cache      *cache.ResponseCache
	logger     logging.Logger
}

// NewClient creates an upstream client with a per-call timeout.
func NewClient(tokens TokenSource, respCache *cache.ResponseCache, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
		cache:      respCache,
		logger:     logger,
	}
}

// Fetch returns the response payload and HTTP status for the given URL,
// consulting the response cache first. The cache key is the literal URL
// string. Results are cached regardless of status code.
func (c *Client) Fetch(ctx context.Context, url string) (json.RawMessage, int) {
	res, err := c.cache.GetOrFetch(ctx, url, func(ctx context.Context) (cache.Result, error) {
		return c.fetchDirect(ctx, url), nil
	})
	if err != nil {
		// GetOrFetch never errors for this fetch function
		return errorPayload(err.Error()), http.StatusInternalServerError
	}
	return res.Payload, res.Status
}

// fetchDirect performs the actual authenticated GET. It never fails:
// every outcome is folded into a Result.
func (c *Client) fetchDirect(ctx context.Context, url string) cache.Result {
	tok, err := c.tokens.Get(ctx)
	if err != nil {
		c.logger.Error("No access token for upstream fetch", err,
			logging.String("url", url))
		return cache.Result{
			Payload: errorPayload("No access token available."),
			Status:  http.StatusInternalServerError,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return cache.Result{
			Payload: errorPayload(err.Error()),
			Status:  http.StatusInternalServerError,
		}
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			logging.String("url", url),
			logging.Err(err))
		return cache.Result{
			Payload: errorPayload(err.Error()),
			Status:  http.StatusInternalServerError,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cache.Result{
			Payload: errorPayload(err.Error()),
			Status:  http.StatusInternalServerError,
		}
	}

	if !json.Valid(body) {
		c.logger.Warn("Upstream returned malformed body",
			logging.String("url", url),
			logging.Int("status", resp.StatusCode))
		return cache.Result{
			Payload: errorPayload("malformed upstream response"),
			Status:  http.StatusInternalServerError,
		}
	}

	c.logger.Debug("Upstream fetch completed",
		logging.String("url", url),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", time.Since(start)))

	return cache.Result{Payload: body, Status: resp.StatusCode}
}

// errorPayload builds the uniform {"error": message} JSON envelope.
func errorPayload(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}
