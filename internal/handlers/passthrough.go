package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"armory-gateway/internal/upstream"
)

// Pass-through routes: each builds the upstream URL and pipes the raw
// JSON and status back verbatim, including upstream error responses.

// GetSeasons serves the season index.
func (h *Handlers) GetSeasons(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Seasons(region, locale))
	writeRaw(w, status, payload)
}

// GetLeaderboard serves a season leaderboard by board name.
func (h *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	seasonID := intQuery(r, "season_id", 23)
	board := stringQuery(r, "leaderboard_name", "rift-barbarian")
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Leaderboard(region, seasonID, board, locale))
	writeRaw(w, status, payload)
}

// GetItem serves item details by slug.
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Item(region, mux.Vars(r)["itemSlug"], locale))
	writeRaw(w, status, payload)
}

// GetAccountProfile serves the raw account profile.
func (h *Handlers) GetAccountProfile(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Profile(region, mux.Vars(r)["account"], locale))
	writeRaw(w, status, payload)
}

// GetAccountAchievements serves account achievements.
func (h *Handlers) GetAccountAchievements(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Achievements(region, mux.Vars(r)["account"], locale))
	if status != http.StatusOK {
		writeError(w, status, "Failed to fetch achievements.")
		return
	}
	writeRaw(w, status, payload)
}

// GetHero serves a detailed hero profile.
func (h *Handlers) GetHero(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	account, heroID, ok := heroPath(w, r)
	if !ok {
		return
	}
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Hero(region, account, heroID, locale))
	writeRaw(w, status, payload)
}

// GetHeroItems serves a hero's equipped items.
func (h *Handlers) GetHeroItems(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	account, heroID, ok := heroPath(w, r)
	if !ok {
		return
	}
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.HeroItems(region, account, heroID, locale))
	if status != http.StatusOK {
		writeError(w, status, "Failed to fetch hero items.")
		return
	}
	writeRaw(w, status, payload)
}

// GetFollowerItems serves a hero's follower items.
func (h *Handlers) GetFollowerItems(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	account, heroID, ok := heroPath(w, r)
	if !ok {
		return
	}
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.FollowerItems(region, account, heroID, locale))
	if status != http.StatusOK {
		writeError(w, status, "Failed to fetch follower items.")
		return
	}
	writeRaw(w, status, payload)
}

// GetRiftDetails serves the fixed rift leaderboard for a battle tag's season.
func (h *Handlers) GetRiftDetails(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	seasonID := intQuery(r, "season_id", 23)
	// The battle tag only selects the season context; the board is fixed
	_ = upstream.NormalizeBattleTag(mux.Vars(r)["battletag"])
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Leaderboard(region, seasonID, "rift-barbarian", locale))
	if status != http.StatusOK {
		writeError(w, status, "Failed to fetch rift details.")
		return
	}
	writeRaw(w, status, payload)
}

// GetActs serves the act index.
func (h *Handlers) GetActs(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Acts(region, locale))
	writeRaw(w, status, payload)
}

// GetArtisan serves artisan details by slug.
func (h *Handlers) GetArtisan(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Artisan(region, mux.Vars(r)["artisanSlug"], locale))
	writeRaw(w, status, payload)
}

// GetHeroClass serves hero class details by slug.
func (h *Handlers) GetHeroClass(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.HeroClass(region, mux.Vars(r)["classSlug"], locale))
	writeRaw(w, status, payload)
}

// GetSkill serves a single skill of a hero class.
func (h *Handlers) GetSkill(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	vars := mux.Vars(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Skill(region, vars["classSlug"], vars["skillSlug"], locale))
	writeRaw(w, status, payload)
}

// GetClassSkills serves the skill index of a hero class.
func (h *Handlers) GetClassSkills(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.Skills(region, mux.Vars(r)["classSlug"], locale))
	if status != http.StatusOK {
		writeError(w, status, "Failed to fetch skills data")
		return
	}
	writeRaw(w, status, payload)
}

// GetItemTypes serves the item type index.
func (h *Handlers) GetItemTypes(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	payload, status := h.fetcher.Fetch(r.Context(), h.endpoints.ItemTypes(region, locale))
	writeRaw(w, status, payload)
}

// heroPath extracts the account and hero id path variables, writing a
// validation error when the id is not numeric.
func heroPath(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	vars := mux.Vars(r)
	heroID, err := strconv.ParseInt(vars["heroID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hero id")
		return "", 0, false
	}
	return vars["account"], heroID, true
}
