package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Result is a cached upstream response: the raw JSON payload plus the
// HTTP status it arrived with. Error responses are cached the same way
// as successes, matching upstream behavior.
type Result struct {
	Payload json.RawMessage `json:"payload"`
	Status  int             `json:"status"`
}

// ResponseCache layers get-or-fetch TTL semantics over a Cache backend,
// keyed by the literal request URL string.
//
// Entries expire lazily; there is no size bound. Concurrent misses for
// the same cold key may fetch more than once, which is tolerated.
type ResponseCache struct {
	backend Cache
	ttl     time.Duration
}

// NewResponseCache creates a response cache with a fixed TTL
func NewResponseCache(backend Cache, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		backend: backend,
		ttl:     ttl,
	}
}

// GetOrFetch returns the cached result for key when present and fresh,
// otherwise invokes fetch, stores its result regardless of status code,
// and returns it. Errors from fetch are propagated and nothing is stored.
func (rc *ResponseCache) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (Result, error)) (Result, error) {
	if res, ok := rc.lookup(ctx, key); ok {
		return res, nil
	}

	res, err := fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	if setErr := rc.backend.Set(ctx, key, res, rc.ttl); setErr != nil {
		// A failed store only costs a refetch later
		return res, nil
	}

	return res, nil
}

// lookup reads a cached Result, decoding backends that round-trip
// values through JSON (Redis) as well as ones that store them directly.
func (rc *ResponseCache) lookup(ctx context.Context, key string) (Result, bool) {
	raw, ok := rc.backend.Get(ctx, key)
	if !ok {
		return Result{}, false
	}

	switch v := raw.(type) {
	case Result:
		return v, true
	case string:
		var res Result
		if err := json.Unmarshal([]byte(v), &res); err == nil && res.Status != 0 {
			return res, true
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Result{}, false
		}
		var res Result
		if err := json.Unmarshal(data, &res); err == nil && res.Status != 0 {
			return res, true
		}
	}

	return Result{}, false
}
