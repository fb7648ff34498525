// Package handlers implements the inbound HTTP surface of the gateway.
// Most routes are thin pass-throughs of upstream JSON; the aggregation
// routes are backed by the aggregate package.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"armory-gateway/internal/aggregate"
	"armory-gateway/internal/common/logging"
	"armory-gateway/internal/config"
	"armory-gateway/internal/upstream"
)

// Handlers carries the shared dependencies of all route handlers.
type Handlers struct {
	fetcher    aggregate.Fetcher
	aggregator *aggregate.Aggregator
	endpoints  upstream.Endpoints
	config     *config.Config
}

// New creates the handler set.
func New(fetcher aggregate.Fetcher, aggregator *aggregate.Aggregator, endpoints upstream.Endpoints, cfg *config.Config) *Handlers {
	return &Handlers{
		fetcher:    fetcher,
		aggregator: aggregator,
		endpoints:  endpoints,
		config:     cfg,
	}
}

// regionLocale reads the region and locale query parameters, falling
// back to the configured defaults.
func (h *Handlers) regionLocale(r *http.Request) (string, string) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = h.config.DefaultRegion
	}
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = h.config.DefaultLocale
	}
	return region, locale
}

// intQuery reads an integer query parameter, falling back to def when
// absent or unparsable.
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// stringQuery reads a string query parameter with a default.
func stringQuery(r *http.Request, name, def string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return def
}

// writeRaw pipes an upstream payload and status through verbatim.
func writeRaw(w http.ResponseWriter, status int, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		logging.Warn("Failed to write response", logging.Err(err))
	}
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to encode response", logging.Err(err))
	}
}

// writeError writes the uniform {"error": message} envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HealthCheck reports gateway liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
