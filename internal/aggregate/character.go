package aggregate

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"

	"armory-gateway/internal/common/errors"
	"armory-gateway/internal/common/logging"
)

// emptyObject is attached when a hero's item fetch fails or carries no items.
var emptyObject = json.RawMessage(`{}`)

// CharacterHeroes fetches an account profile and attaches each hero's
// equipped items under an "items" key. Heroes whose item fetch fails
// get an empty item map; a failed profile fetch is fatal for the call.
func (a *Aggregator) CharacterHeroes(ctx context.Context, region, locale, account string) ([]map[string]json.RawMessage, error) {
	payload, status := a.fetcher.Fetch(ctx, a.endpoints.Profile(region, account, locale))
	if status != http.StatusOK {
		return nil, errors.UpstreamError("failed to fetch profile data", status)
	}

	var profile struct {
		Heroes []map[string]json.RawMessage `json:"heroes"`
	}
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, errors.UpstreamError("unexpected profile payload", http.StatusInternalServerError)
	}

	detailed := make([]map[string]json.RawMessage, 0, len(profile.Heroes))
	for _, hero := range profile.Heroes {
		if _, ok := hero["id"]; ok {
			detailed = append(detailed, hero)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for _, hero := range detailed {
		hero := hero
		var heroID int64
		if err := json.Unmarshal(hero["id"], &heroID); err != nil {
			hero["items"] = emptyObject
			continue
		}
		g.Go(func() error {
			hero["items"] = a.attachedItems(gctx, region, locale, account, heroID)
			return nil
		})
	}
	_ = g.Wait()

	return detailed, nil
}

// attachedItems fetches one hero's item map for profile attachment.
func (a *Aggregator) attachedItems(ctx context.Context, region, locale, account string, heroID int64) json.RawMessage {
	payload, status := a.fetcher.Fetch(ctx, a.endpoints.HeroItems(region, account, heroID, locale))
	if status != http.StatusOK {
		a.logger.Debug("Hero item attachment failed",
			logging.String("account", account),
			logging.Any("hero_id", heroID),
			logging.Int("status", status))
		return emptyObject
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return emptyObject
	}
	if wrapped, ok := top["items"]; ok {
		return wrapped
	}
	return emptyObject
}
