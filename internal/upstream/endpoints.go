package upstream

import (
	"fmt"
	"strings"
)

// Endpoints builds the upstream data API URLs. The zero override uses
// the per-region production host; tests and alternate deployments can
// point the whole client elsewhere.
type Endpoints struct {
	override string
}

// NewEndpoints creates an Endpoints builder. An empty override selects
// the production per-region host.
func NewEndpoints(override string) Endpoints {
	return Endpoints{override: strings.TrimSuffix(override, "/")}
}

// Base returns the API base URL for a region
func (e Endpoints) Base(region string) string {
	if e.override != "" {
		return e.override
	}
	return fmt.Sprintf("https://%s.api.blizzard.com", region)
}

// Seasons returns the season index URL
func (e Endpoints) Seasons(region, locale string) string {
	return fmt.Sprintf("%s/data/d3/season/?locale=%s", e.Base(region), locale)
}

// Leaderboard returns the leaderboard URL for a season and board name
func (e Endpoints) Leaderboard(region string, seasonID int, board, locale string) string {
	return fmt.Sprintf("%s/data/d3/season/%d/leaderboard/%s?locale=%s", e.Base(region), seasonID, board, locale)
}

// Item returns the item detail URL for an item slug
func (e Endpoints) Item(region, itemSlug, locale string) string {
	return fmt.Sprintf("%s/d3/data/item/%s?locale=%s", e.Base(region), itemSlug, locale)
}

// Profile returns the account profile URL
func (e Endpoints) Profile(region, account, locale string) string {
	return fmt.Sprintf("%s/d3/profile/%s/?locale=%s", e.Base(region), account, locale)
}

// Achievements returns the account achievements URL
func (e Endpoints) Achievements(region, account, locale string) string {
	return fmt.Sprintf("%s/d3/profile/%s/achievements?locale=%s", e.Base(region), account, locale)
}

// Hero returns the hero detail URL
func (e Endpoints) Hero(region, account string, heroID int64, locale string) string {
	return fmt.Sprintf("%s/d3/profile/%s/hero/%d/?locale=%s", e.Base(region), account, heroID, locale)
}

// HeroItems returns the hero equipped-items URL
func (e Endpoints) HeroItems(region, account string, heroID int64, locale string) string {
	return fmt.Sprintf("%s/d3/profile/%s/hero/%d/items?locale=%s", e.Base(region), account, heroID, locale)
}

// FollowerItems returns the hero follower-items URL
func (e Endpoints) FollowerItems(region, account string, heroID int64, locale string) string {
	return fmt.Sprintf("%s/d3/profile/%s/hero/%d/follower-items?locale=%s", e.Base(region), account, heroID, locale)
}

// Acts returns the act index URL
func (e Endpoints) Acts(region, locale string) string {
	return fmt.Sprintf("%s/d3/data/act?locale=%s", e.Base(region), locale)
}

// Artisan returns the artisan detail URL
func (e Endpoints) Artisan(region, artisanSlug, locale string) string {
	return fmt.Sprintf("%s/d3/data/artisan/%s?locale=%s", e.Base(region), artisanSlug, locale)
}

// HeroClass returns the hero class detail URL
func (e Endpoints) HeroClass(region, classSlug, locale string) string {
	return fmt.Sprintf("%s/d3/data/hero/%s?locale=%s", e.Base(region), classSlug, locale)
}

// Skill returns the skill detail URL for a hero class
func (e Endpoints) Skill(region, classSlug, skillSlug, locale string) string {
	return fmt.Sprintf("%s/d3/data/hero/%s/skill/%s?locale=%s", e.Base(region), classSlug, skillSlug, locale)
}

// Skills returns the skill index URL for a hero class
func (e Endpoints) Skills(region, classSlug, locale string) string {
	return fmt.Sprintf("%s/d3/data/hero/%s/skills?locale=%s", e.Base(region), classSlug, locale)
}

// ItemTypes returns the item type index URL
func (e Endpoints) ItemTypes(region, locale string) string {
	return fmt.Sprintf("%s/d3/data/item-type?locale=%s", e.Base(region), locale)
}

// NormalizeBattleTag converts the account form Name#1234 into the
// Name-1234 form the profile paths expect.
func NormalizeBattleTag(tag string) string {
	return strings.ReplaceAll(tag, "#", "-")
}
