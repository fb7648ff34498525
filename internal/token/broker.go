// Package token owns the OAuth2 client-credentials token lifecycle for
// the upstream API. A single Broker is shared by all inbound requests;
// refreshes are coalesced so concurrent callers racing on an expired
// token produce exactly one exchange in flight.
package token

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"armory-gateway/internal/circuitbreaker"
	"armory-gateway/internal/common/errors"
	"armory-gateway/internal/common/logging"
)

// expirySafetyMargin is subtracted from the upstream expires_in so a
// token is never handed out moments before it stops working.
const expirySafetyMargin = 60 * time.Second

// defaultExpiresIn is used when the token response omits expires_in.
const defaultExpiresIn = 3600

// Token is an issued bearer token. Immutable once issued; the broker
// replaces it wholesale on refresh.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token can still be handed out at the given
// instant. The safety margin is already folded into ExpiresAt.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// tokenResponse maps the OAuth 2.0 token response fields we consume.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Broker performs the client-credentials exchange against the upstream
// auth endpoint and caches the resulting token until expiry.
type Broker struct {
	clientID     string
	clientSecret string
	authURL      string
	httpClient   *http.Client
	breaker      *circuitbreaker.GoBreakerAdapter
	logger       logging.Logger

	// mu protects current; refreshes are additionally coalesced
	// through group so only one exchange is in flight at a time
	mu      sync.RWMutex
	current *Token
	group   singleflight.Group

	now func() time.Time
}

// NewBroker creates a token broker for the given credentials and token endpoint.
func NewBroker(clientID, clientSecret, authURL string, logger logging.Logger) *Broker {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Broker{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      authURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		breaker:      circuitbreaker.NewGoBreaker("oauth2-token", circuitbreaker.OAuthConfig, logger),
		logger:       logger,
		now:          time.Now,
	}
}

// Get returns a valid bearer token, performing a client-credentials
// exchange when no unexpired token is cached. On a failed exchange the
// previously stored token is left untouched, so a still-valid token
// keeps serving concurrent callers until it truly expires.
func (b *Broker) Get(ctx context.Context) (*Token, error) {
	b.mu.RLock()
	current := b.current
	b.mu.RUnlock()

	if current.Valid(b.now()) {
		return current, nil
	}

	v, err, _ := b.group.Do("exchange", func() (interface{}, error) {
		// A concurrent caller may have refreshed while we waited
		b.mu.RLock()
		tok := b.current
		b.mu.RUnlock()
		if tok.Valid(b.now()) {
			return tok, nil
		}
		return b.exchange(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Token), nil
}

// exchange performs the client-credentials grant and stores the new token.
func (b *Broker) exchange(ctx context.Context) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.authURL,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return nil, errors.AuthError("failed to build token request", err)
	}
	req.SetBasicAuth(b.clientID, b.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp *http.Response
	err = b.breaker.Execute(ctx, func() error {
		var httpErr error
		resp, httpErr = b.httpClient.Do(req)
		return httpErr
	})
	if err != nil {
		return nil, errors.AuthError("token exchange request failed", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, errors.AuthError("failed to read token response", readErr)
	}

	if resp.StatusCode != http.StatusOK {
		b.logger.Warn("Token exchange rejected",
			logging.Int("status", resp.StatusCode))
		return nil, errors.AuthError("token exchange failed", nil).
			WithStatus(resp.StatusCode).
			WithContext("body", string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, errors.AuthError("failed to decode token response", err)
	}
	if tr.AccessToken == "" {
		return nil, errors.AuthError("token response missing access_token", nil)
	}

	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	tok := &Token{
		AccessToken: tr.AccessToken,
		ExpiresAt:   b.now().Add(time.Duration(expiresIn)*time.Second - expirySafetyMargin),
	}

	b.mu.Lock()
	b.current = tok
	b.mu.Unlock()

	b.logger.Debug("Token refreshed",
		logging.Any("expires_at", tok.ExpiresAt))

	return tok, nil
}
