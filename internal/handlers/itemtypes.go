package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// itemTypeEntry describes a locally known item type.
type itemTypeEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// itemTypeCatalog is the static in-process item type lookup.
var itemTypeCatalog = map[string]itemTypeEntry{
	"craftingplansmith": {
		Name:        "Blacksmith Plan",
		Description: "A crafting plan used by the blacksmith.",
	},
	"bootsbarbarian": {
		Name:        "Barbarian Boots",
		Description: "Boots for a barbarian.",
	},
}

// GetItemType serves a locally known item type description.
func (h *Handlers) GetItemType(w http.ResponseWriter, r *http.Request) {
	entry, ok := itemTypeCatalog[mux.Vars(r)["itemType"]]
	if !ok {
		writeError(w, http.StatusNotFound, "Item type not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
