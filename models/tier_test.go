package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierForSharedCount(t *testing.T) {
	cases := []struct {
		n    int
		want Tier
	}{
		{0, TierCasual},
		{1, TierCasual},
		{2, TierCasual},
		{3, TierBuddy},
		{4, TierBuddy},
		{5, TierFriend},
		{7, TierFriend},
		{8, TierBestFriend},
		{14, TierBestFriend},
		{15, TierSoulmate},
		{40, TierSoulmate},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, TierForSharedCount(tc.n), "count %d", tc.n)
	}
}

func TestTierOrder(t *testing.T) {
	assert.Greater(t, TierSoulmate.Rank(), TierBestFriend.Rank())
	assert.Greater(t, TierBestFriend.Rank(), TierFriend.Rank())
	assert.Greater(t, TierFriend.Rank(), TierBuddy.Rank())
	assert.Greater(t, TierBuddy.Rank(), TierCasual.Rank())
}

func TestTierJSONRoundTrip(t *testing.T) {
	for _, tier := range []Tier{TierCasual, TierBuddy, TierFriend, TierBestFriend, TierSoulmate} {
		raw, err := json.Marshal(tier)
		require.NoError(t, err)

		var back Tier
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, tier, back)
	}

	raw, err := json.Marshal(TierBestFriend)
	require.NoError(t, err)
	assert.Equal(t, `"best_friend"`, string(raw))
}

func TestTierFromStringUnknown(t *testing.T) {
	_, err := TierFromString("archnemesis")
	assert.Error(t, err)
}

func TestPairKeyFor(t *testing.T) {
	assert.Equal(t, "alice_bob", PairKeyFor("alice", "bob"))
	assert.Equal(t, "alice_bob", PairKeyFor("bob", "alice"))
}
