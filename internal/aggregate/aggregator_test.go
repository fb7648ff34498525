package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armory-gateway/internal/common/errors"
	"armory-gateway/internal/upstream"
)

// fakeFetcher serves canned (payload, status) pairs by URL and records
// call counts. Unknown URLs answer 404 like the upstream would.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     map[string]int
}

type fakeResponse struct {
	payload string
	status  int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string]fakeResponse),
		calls:     make(map[string]int),
	}
}

func (f *fakeFetcher) set(url, payload string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = fakeResponse{payload: payload, status: status}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (json.RawMessage, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	r, ok := f.responses[url]
	if !ok {
		return json.RawMessage(`{"error":"not found"}`), http.StatusNotFound
	}
	return json.RawMessage(r.payload), r.status
}

// callsMatching counts calls to URLs containing the substring.
func (f *fakeFetcher) callsMatching(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for url, c := range f.calls {
		if strings.Contains(url, substr) {
			n += c
		}
	}
	return n
}

var eps = upstream.NewEndpoints("")

func newTestAggregator(f *fakeFetcher) *Aggregator {
	return New(f, eps, "us", "en_US", 4, nil)
}

// leaderboardPayload builds a leaderboard response with the given
// battle tags in rank order. An empty tag produces a row missing the
// identifier field.
func leaderboardPayload(tags ...string) string {
	rows := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			rows = append(rows, `{"player":[{"data":[]}]}`)
			continue
		}
		rows = append(rows, fmt.Sprintf(`{"player":[{"data":[{"string":%q}]}]}`, tag))
	}
	return fmt.Sprintf(`{"row":[%s]}`, strings.Join(rows, ","))
}

// profilePayload builds a profile with heroes as (id, classSlug) pairs.
func profilePayload(heroes ...[2]string) string {
	hs := make([]string, 0, len(heroes))
	for _, h := range heroes {
		hs = append(hs, fmt.Sprintf(`{"id":%s,"name":"hero-%s","classSlug":%q}`, h[0], h[0], h[1]))
	}
	return fmt.Sprintf(`{"battleTag":"x","heroes":[%s]}`, strings.Join(hs, ","))
}

func itemsPayload(slotItems map[string]string) string {
	parts := make([]string, 0, len(slotItems))
	for slot, name := range slotItems {
		parts = append(parts, fmt.Sprintf(`%q:{"id":"item-%s","name":%q}`, slot, name, name))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

const lbURL = "https://us.api.blizzard.com/data/d3/season/23/leaderboard/rift-monk?locale=en_US"

func setProfile(f *fakeFetcher, tag, payload string) {
	account := upstream.NormalizeBattleTag(tag)
	f.set(eps.Profile("us", account, "en_US"), payload, 200)
}

func setHeroItems(f *fakeFetcher, tag string, heroID int64, payload string) {
	account := upstream.NormalizeBattleTag(tag)
	f.set(eps.HeroItems("us", account, heroID, "en_US"), payload, 200)
}

func TestMostUsedItems_TwoPlayerScenario(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, leaderboardPayload("A#1", "B#2"), 200)

	setProfile(f, "A#1", profilePayload([2]string{"1", "monk"}))
	setHeroItems(f, "A#1", 1, itemsPayload(map[string]string{"mainHand": "Sword"}))

	setProfile(f, "B#2", profilePayload([2]string{"2", "monk"}))
	setHeroItems(f, "B#2", 2, itemsPayload(map[string]string{"mainHand": "Sword", "offHand": "Shield"}))

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, 2, got["mainHand"].Count)
	assert.Contains(t, string(got["mainHand"].Item), `"name":"Sword"`)
	assert.Equal(t, 1, got["offHand"].Count)
	assert.Contains(t, string(got["offHand"].Item), `"name":"Shield"`)
}

func TestMostUsedItems_EmptyLeaderboard(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, `{"row":[]}`, 200)

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMostUsedItems_LeaderboardFailureIsFatal(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, `{"error":"no such season"}`, 404)

	a := newTestAggregator(f)
	_, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.Equal(t, 404, errors.GetStatus(err, 0))
}

func TestMostUsedItems_SamplesOnlyTopFifteen(t *testing.T) {
	f := newFakeFetcher()

	tags := make([]string, 20)
	for i := range tags {
		tags[i] = fmt.Sprintf("P%d#1", i+1)
	}
	f.set(lbURL, leaderboardPayload(tags...), 200)

	for i, tag := range tags {
		setProfile(f, tag, profilePayload([2]string{fmt.Sprintf("%d", i+1), "monk"}))
		setHeroItems(f, tag, int64(i+1), itemsPayload(map[string]string{"mainHand": "Sword"}))
	}

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)

	assert.Equal(t, 15, got["mainHand"].Count)
	assert.Equal(t, 15, f.callsMatching("/d3/profile/"), "only the top 15 rows fan out")
	assert.Equal(t, 0, f.callsMatching("P16-1"))
	assert.Equal(t, 0, f.callsMatching("P20-1"))
}

func TestMostUsedItems_FirstSeenWinsTies(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, leaderboardPayload("A#1", "B#2"), 200)

	// One equip each: Axe is encountered first in row order
	setProfile(f, "A#1", profilePayload([2]string{"1", "monk"}))
	setHeroItems(f, "A#1", 1, itemsPayload(map[string]string{"mainHand": "Axe"}))

	setProfile(f, "B#2", profilePayload([2]string{"2", "monk"}))
	setHeroItems(f, "B#2", 2, itemsPayload(map[string]string{"mainHand": "Sword"}))

	a := newTestAggregator(f)

	// Repeat to shake out any ordering sensitivity from the
	// concurrent fan-out
	for i := 0; i < 10; i++ {
		got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
		require.NoError(t, err)
		require.Contains(t, got, "mainHand")
		assert.Equal(t, 1, got["mainHand"].Count)
		assert.Contains(t, string(got["mainHand"].Item), `"name":"Axe"`)
	}
}

func TestMostUsedItems_FailedPlayerIsSkipped(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, leaderboardPayload("A#1", "B#2", "C#3"), 200)

	setProfile(f, "A#1", profilePayload([2]string{"1", "monk"}))
	setHeroItems(f, "A#1", 1, itemsPayload(map[string]string{"mainHand": "Sword"}))

	// B's profile fetch blows up server-side
	f.set(eps.Profile("us", "B-2", "en_US"), `{"error":"internal"}`, 500)

	setProfile(f, "C#3", profilePayload([2]string{"3", "monk"}))
	setHeroItems(f, "C#3", 3, itemsPayload(map[string]string{"mainHand": "Sword"}))

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)
	assert.Equal(t, 2, got["mainHand"].Count, "surviving players still count")
}

func TestMostUsedItems_RowsWithoutBattleTagAreSkipped(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, leaderboardPayload("A#1", "", "C#3"), 200)

	setProfile(f, "A#1", profilePayload([2]string{"1", "monk"}))
	setHeroItems(f, "A#1", 1, itemsPayload(map[string]string{"mainHand": "Sword"}))

	setProfile(f, "C#3", profilePayload([2]string{"3", "monk"}))
	setHeroItems(f, "C#3", 3, itemsPayload(map[string]string{"mainHand": "Sword"}))

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)
	assert.Equal(t, 2, got["mainHand"].Count)
}

func TestMostUsedItems_OtherClassesIgnored(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, leaderboardPayload("A#1"), 200)

	setProfile(f, "A#1", profilePayload(
		[2]string{"1", "monk"},
		[2]string{"2", "barbarian"},
	))
	setHeroItems(f, "A#1", 1, itemsPayload(map[string]string{"mainHand": "Fist"}))
	setHeroItems(f, "A#1", 2, itemsPayload(map[string]string{"mainHand": "Axe"}))

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)

	require.Contains(t, got, "mainHand")
	assert.Contains(t, string(got["mainHand"].Item), `"name":"Fist"`)
	assert.Equal(t, 1, got["mainHand"].Count)
}

func TestMostUsedItems_ProfileWithoutHeroesSkipped(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, leaderboardPayload("A#1", "B#2"), 200)

	setProfile(f, "A#1", `{"battleTag":"A#1"}`)

	setProfile(f, "B#2", profilePayload([2]string{"2", "monk"}))
	setHeroItems(f, "B#2", 2, itemsPayload(map[string]string{"mainHand": "Sword"}))

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)
	assert.Equal(t, 1, got["mainHand"].Count)
}

func TestMostUsedItems_WrappedItemsAccepted(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, leaderboardPayload("A#1"), 200)

	setProfile(f, "A#1", profilePayload([2]string{"1", "monk"}))
	setHeroItems(f, "A#1", 1, `{"items":{"mainHand":{"id":"i","name":"Sword"}}}`)

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)
	require.Contains(t, got, "mainHand")
	assert.Equal(t, 1, got["mainHand"].Count)
}

func TestMostUsedItems_FailedHeroItemsSkipped(t *testing.T) {
	f := newFakeFetcher()
	f.set(lbURL, leaderboardPayload("A#1"), 200)

	setProfile(f, "A#1", profilePayload([2]string{"1", "monk"}, [2]string{"2", "monk"}))
	f.set(eps.HeroItems("us", "A-1", 1, "en_US"), `{"error":"internal"}`, 500)
	setHeroItems(f, "A#1", 2, itemsPayload(map[string]string{"mainHand": "Sword"}))

	a := newTestAggregator(f)
	got, err := a.MostUsedItems(context.Background(), 23, "rift-monk")
	require.NoError(t, err)
	assert.Equal(t, 1, got["mainHand"].Count)
}
