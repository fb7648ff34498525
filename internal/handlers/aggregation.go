package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"armory-gateway/internal/common/errors"
	"armory-gateway/internal/upstream"
)

// GetMostUsedItems serves the most-used-item-per-slot aggregation for a
// season and class leaderboard.
func (h *Handlers) GetMostUsedItems(w http.ResponseWriter, r *http.Request) {
	seasonID := intQuery(r, "season_id", 23)
	classSlug := stringQuery(r, "class_slug", "rift-monk")

	mostUsed, err := h.aggregator.MostUsedItems(r.Context(), seasonID, classSlug)
	if err != nil {
		writeError(w, errors.GetStatus(err, http.StatusInternalServerError), "Failed to fetch leaderboard data")
		return
	}

	writeJSON(w, http.StatusOK, mostUsed)
}

// GetCharacter serves an account's heroes with their equipped items attached.
func (h *Handlers) GetCharacter(w http.ResponseWriter, r *http.Request) {
	region, locale := h.regionLocale(r)
	account := upstream.NormalizeBattleTag(mux.Vars(r)["account"])

	heroes, err := h.aggregator.CharacterHeroes(r.Context(), region, locale, account)
	if err != nil {
		writeError(w, errors.GetStatus(err, http.StatusInternalServerError), "Failed to fetch profile data.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"heroes": heroes})
}
