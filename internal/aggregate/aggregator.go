// Package aggregate orchestrates the one-to-many fan-out flows: the
// most-used-items leaderboard aggregation and the per-hero item
// attachment for character profiles. Per-player and per-hero fetch
// failures are tolerated and logged, never propagated.
package aggregate

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"armory-gateway/internal/common/errors"
	"armory-gateway/internal/common/logging"
	"armory-gateway/internal/upstream"
)

// leaderboardSampleSize caps the fan-out volume: only the top ranked
// players contribute to the aggregation.
const leaderboardSampleSize = 15

// Fetcher issues upstream requests with the uniform (payload, status)
// return shape.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (json.RawMessage, int)
}

// SlotPick is the winning item for one equipment slot: the first-seen
// representative descriptor and how many sampled heroes equip it.
type SlotPick struct {
	Item  json.RawMessage `json:"item"`
	Count int             `json:"count"`
}

// Aggregator owns all per-request transient state of an aggregation;
// nothing it builds outlives the request.
type Aggregator struct {
	fetcher   Fetcher
	endpoints upstream.Endpoints
	region    string
	locale    string
	limit     int
	logger    logging.Logger
}

// New creates an aggregator. limit bounds the number of concurrent
// per-player fetches.
func New(fetcher Fetcher, endpoints upstream.Endpoints, region, locale string, limit int, logger logging.Logger) *Aggregator {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Aggregator{
		fetcher:   fetcher,
		endpoints: endpoints,
		region:    region,
		locale:    locale,
		limit:     limit,
		logger:    logger,
	}
}

// Minimal projections of the upstream schemas; only the fields the
// aggregation reads are modeled.

type leaderboardResponse struct {
	Row []leaderboardRow `json:"row"`
}

type leaderboardRow struct {
	Player []struct {
		Data []struct {
			String string `json:"string"`
		} `json:"data"`
	} `json:"player"`
}

// battleTag extracts the player identifier at the fixed structural path
// player[0].data[0].string, or "" when absent.
func (r leaderboardRow) battleTag() string {
	if len(r.Player) == 0 || len(r.Player[0].Data) == 0 {
		return ""
	}
	return r.Player[0].Data[0].String
}

type profileResponse struct {
	Heroes []heroSummary `json:"heroes"`
}

type heroSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	ClassSlug string `json:"classSlug"`
}

// classID returns the hero's class identifier, preferring classSlug
// where the upstream provides it.
func (h heroSummary) classID() string {
	if h.ClassSlug != "" {
		return h.ClassSlug
	}
	return h.Class
}

// itemName is the projection used to key occurrence tallies.
type itemName struct {
	Name string `json:"name"`
}

// heroLoot is one hero's equipment: slot names in deterministic
// (sorted) order plus the raw descriptor per slot.
type heroLoot struct {
	slots []string
	items map[string]json.RawMessage
}

// occurrence tallies one distinct item name within a slot.
type occurrence struct {
	item  json.RawMessage
	count int
}

// slotTally preserves first-seen order of item names within a slot so
// ties resolve deterministically.
type slotTally struct {
	byName map[string]*occurrence
	order  []string
}

// MostUsedItems computes the most-frequently-equipped item per slot
// among the top leaderboard players of the given class. An empty
// leaderboard or zero matching heroes yields an empty mapping.
func (a *Aggregator) MostUsedItems(ctx context.Context, seasonID int, classSlug string) (map[string]SlotPick, error) {
	lbURL := a.endpoints.Leaderboard(a.region, seasonID, classSlug, a.locale)
	payload, status := a.fetcher.Fetch(ctx, lbURL)
	if status != http.StatusOK {
		a.logger.Warn("Leaderboard fetch failed",
			logging.Int("season_id", seasonID),
			logging.String("class_slug", classSlug),
			logging.Int("status", status))
		return nil, errors.UpstreamError("failed to fetch leaderboard data", status)
	}

	var lb leaderboardResponse
	if err := json.Unmarshal(payload, &lb); err != nil {
		return nil, errors.UpstreamError("unexpected leaderboard payload", http.StatusInternalServerError)
	}

	rows := lb.Row
	if len(rows) > leaderboardSampleSize {
		rows = rows[:leaderboardSampleSize]
	}

	// The class to match is the trailing segment of the board slug,
	// e.g. rift-monk -> monk.
	parts := strings.Split(classSlug, "-")
	class := parts[len(parts)-1]

	// Fan out per player with bounded concurrency. Results are
	// collected positionally so the tally scan below stays in rank
	// order no matter which fetch finishes first.
	loot := make([][]heroLoot, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i, row := range rows {
		tag := row.battleTag()
		if tag == "" {
			continue
		}
		i := i
		g.Go(func() error {
			loot[i] = a.collectPlayer(gctx, tag, class)
			return nil
		})
	}
	// Worker funcs never return errors; partial failure is per-player
	_ = g.Wait()

	tallies := make(map[string]*slotTally)
	slotOrder := []string{}
	skippedPlayers := 0

	for _, playerLoot := range loot {
		// nil covers rows without a battle tag as well as players
		// whose profile fetch failed or carried no heroes field
		if playerLoot == nil {
			skippedPlayers++
			continue
		}
		for _, hero := range playerLoot {
			for _, slot := range hero.slots {
				raw := hero.items[slot]
				var in itemName
				if err := json.Unmarshal(raw, &in); err != nil || in.Name == "" {
					continue
				}

				tally, ok := tallies[slot]
				if !ok {
					tally = &slotTally{byName: make(map[string]*occurrence)}
					tallies[slot] = tally
					slotOrder = append(slotOrder, slot)
				}

				occ, ok := tally.byName[in.Name]
				if !ok {
					occ = &occurrence{item: raw}
					tally.byName[in.Name] = occ
					tally.order = append(tally.order, in.Name)
				}
				occ.count++
			}
		}
	}

	if skippedPlayers > 0 {
		a.logger.Info("Aggregation skipped players",
			logging.Int("skipped", skippedPlayers),
			logging.Int("sampled", len(rows)))
	}

	mostUsed := make(map[string]SlotPick, len(tallies))
	for _, slot := range slotOrder {
		tally := tallies[slot]
		var best *occurrence
		for _, name := range tally.order {
			occ := tally.byName[name]
			// Strict greater-than keeps the first-seen winner on ties
			if best == nil || occ.count > best.count {
				best = occ
			}
		}
		if best != nil {
			mostUsed[slot] = SlotPick{Item: best.item, Count: best.count}
		}
	}

	return mostUsed, nil
}

// collectPlayer fetches one player's profile and the item maps of their
// matching heroes. Returns nil when the player must be skipped.
func (a *Aggregator) collectPlayer(ctx context.Context, tag, class string) []heroLoot {
	account := upstream.NormalizeBattleTag(tag)

	payload, status := a.fetcher.Fetch(ctx, a.endpoints.Profile(a.region, account, a.locale))
	if status != http.StatusOK {
		a.logger.Debug("Skipping player, profile fetch failed",
			logging.String("battle_tag", tag),
			logging.Int("status", status))
		return nil
	}

	var profile profileResponse
	if err := json.Unmarshal(payload, &profile); err != nil || profile.Heroes == nil {
		a.logger.Debug("Skipping player, profile has no heroes",
			logging.String("battle_tag", tag))
		return nil
	}

	collected := make([]heroLoot, 0, len(profile.Heroes))
	for _, hero := range profile.Heroes {
		if hero.classID() != class {
			continue
		}

		items, ok := a.fetchHeroItems(ctx, account, hero.ID)
		if !ok {
			a.logger.Debug("Skipping hero, item fetch failed",
				logging.String("battle_tag", tag),
				logging.Any("hero_id", hero.ID))
			continue
		}
		collected = append(collected, items)
	}
	return collected
}

// fetchHeroItems fetches one hero's per-slot item map and returns it
// with slot names sorted for a deterministic tally scan.
func (a *Aggregator) fetchHeroItems(ctx context.Context, account string, heroID int64) (heroLoot, bool) {
	payload, status := a.fetcher.Fetch(ctx, a.endpoints.HeroItems(a.region, account, heroID, a.locale))
	if status != http.StatusOK {
		return heroLoot{}, false
	}

	items := decodeSlotMap(payload)
	if len(items) == 0 {
		return heroLoot{}, false
	}

	slots := make([]string, 0, len(items))
	for slot := range items {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	return heroLoot{slots: slots, items: items}, true
}

// decodeSlotMap reads a hero items payload into slot -> descriptor.
// The upstream returns either the slot map directly or wrapped under
// an "items" key; both shapes are accepted.
func decodeSlotMap(payload json.RawMessage) map[string]json.RawMessage {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil
	}

	if wrapped, ok := top["items"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(wrapped, &inner); err == nil {
			return onlyObjects(inner)
		}
	}

	return onlyObjects(top)
}

// onlyObjects drops non-object values (metadata fields alongside the
// slot entries) from a decoded item map.
func onlyObjects(m map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		trimmed := strings.TrimSpace(string(v))
		if strings.HasPrefix(trimmed, "{") {
			out[k] = v
		}
	}
	return out
}
