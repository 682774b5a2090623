package markers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/geo"
	"kindred/models"
)

func at(uid string, lat, lng float64, tier models.Tier) models.Candidate {
	return models.Candidate{
		UID:        uid,
		Coordinate: models.Coordinate{Lat: lat, Lng: lng},
		Tier:       tier,
	}
}

func pairwiseSeparation(t *testing.T, cands []models.Candidate, min float64) {
	t.Helper()
	for i := range cands {
		for j := i + 1; j < len(cands); j++ {
			d := geo.Distance(
				cands[i].Coordinate.Lat, cands[i].Coordinate.Lng,
				cands[j].Coordinate.Lat, cands[j].Coordinate.Lng)
			assert.GreaterOrEqualf(t, d, min, "%s and %s only %.2fm apart", cands[i].UID, cands[j].UID, d)
		}
	}
}

func TestGroupKeyRounding(t *testing.T) {
	a := models.Coordinate{Lat: 40.1234561, Lng: -73.0000001}
	b := models.Coordinate{Lat: 40.1234564, Lng: -73.0000004}
	c := models.Coordinate{Lat: 40.1234580, Lng: -73.0000001}

	assert.Equal(t, GroupKey(a), GroupKey(b))
	assert.NotEqual(t, GroupKey(a), GroupKey(c))
}

func TestDeconflictSingletonsUntouched(t *testing.T) {
	in := []models.Candidate{
		at("a", 40.0001, -73.0001, models.TierFriend),
		at("b", 40.0005, -73.0005, models.TierCasual),
	}
	out := Deconflict(in)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].Coordinate, out[0].Coordinate)
	assert.Equal(t, in[1].Coordinate, out[1].Coordinate)
	assert.Empty(t, out[0].OriginalGroupKey)
	assert.Empty(t, out[1].OriginalGroupKey)
}

func TestDeconflictDoesNotMutateInput(t *testing.T) {
	in := []models.Candidate{
		at("a", 40.0, -73.0, models.TierFriend),
		at("b", 40.0, -73.0, models.TierCasual),
	}
	_ = Deconflict(in)
	assert.Equal(t, models.Coordinate{Lat: 40.0, Lng: -73.0}, in[1].Coordinate)
}

func TestDeconflictSmallGroup(t *testing.T) {
	in := []models.Candidate{
		at("low", 40.0, -73.0, models.TierCasual),
		at("high", 40.0, -73.0, models.TierSoulmate),
		at("mid", 40.0, -73.0, models.TierFriend),
	}
	out := Deconflict(in)
	require.Len(t, out, 3)

	byUID := map[string]models.Candidate{}
	for _, c := range out {
		byUID[c.UID] = c
		assert.Equal(t, GroupKey(in[0].Coordinate), c.OriginalGroupKey)
	}

	// Highest tier keeps the base coordinate.
	assert.Equal(t, in[0].Coordinate, byUID["high"].Coordinate)
	assert.NotEqual(t, in[0].Coordinate, byUID["mid"].Coordinate)
	assert.NotEqual(t, in[0].Coordinate, byUID["low"].Coordinate)

	pairwiseSeparation(t, out, MinMarkerDistance*0.5)
}

func TestDeconflictDeterministic(t *testing.T) {
	in := []models.Candidate{
		at("a", 40.0, -73.0, models.TierBuddy),
		at("b", 40.0, -73.0, models.TierBuddy),
		at("c", 40.0, -73.0, models.TierFriend),
	}
	first := Deconflict(in)
	second := Deconflict(in)
	assert.Equal(t, first, second)
}

func TestDeconflictTiedTiersKeepInputOrder(t *testing.T) {
	in := []models.Candidate{
		at("first", 40.0, -73.0, models.TierBuddy),
		at("second", 40.0, -73.0, models.TierBuddy),
	}
	out := Deconflict(in)
	// Stable sort: the earlier candidate wins the base slot on a tie.
	assert.Equal(t, in[0].Coordinate, out[0].Coordinate)
	assert.NotEqual(t, in[0].Coordinate, out[1].Coordinate)
}

func TestDeconflictSpiralLargeGroup(t *testing.T) {
	var in []models.Candidate
	for i := 0; i < 14; i++ {
		in = append(in, at(fmt.Sprintf("u%02d", i), 40.0, -73.0, models.TierCasual))
	}
	out := Deconflict(in)
	require.Len(t, out, 14)
	pairwiseSeparation(t, out, 2.0)

	// Later spiral rings sit farther out than the first.
	dFirst := geo.Distance(40.0, -73.0, out[1].Coordinate.Lat, out[1].Coordinate.Lng)
	dLast := geo.Distance(40.0, -73.0, out[13].Coordinate.Lat, out[13].Coordinate.Lng)
	assert.Greater(t, dLast, dFirst)
}

func TestDeconflictSpiralMixedTiersSeparated(t *testing.T) {
	// A high-tier member early in the spiral must not land on a later
	// ring's radius.
	in := []models.Candidate{
		at("s1", 40.0, -73.0, models.TierSoulmate),
		at("s2", 40.0, -73.0, models.TierSoulmate),
	}
	for i := 0; i < 7; i++ {
		in = append(in, at(fmt.Sprintf("c%d", i), 40.0, -73.0, models.TierCasual))
	}
	out := Deconflict(in)
	require.Len(t, out, 9)
	pairwiseSeparation(t, out, 2.0)
}

func TestDeconflictHigherTierWiderOffset(t *testing.T) {
	base := models.Coordinate{Lat: 40.0, Lng: -73.0}
	in := []models.Candidate{
		at("anchor", base.Lat, base.Lng, models.TierSoulmate),
		at("casual", base.Lat, base.Lng, models.TierCasual),
		at("soul2", base.Lat, base.Lng, models.TierSoulmate),
	}
	out := Deconflict(in)

	var dCasual, dSoul float64
	for _, c := range out {
		d := geo.Distance(base.Lat, base.Lng, c.Coordinate.Lat, c.Coordinate.Lng)
		switch c.UID {
		case "casual":
			dCasual = d
		case "soul2":
			dSoul = d
		}
	}
	assert.InDelta(t, MinMarkerDistance, dCasual, 0.5)
	assert.InDelta(t, MinMarkerDistance*1.5, dSoul, 0.5)
}

func TestSpiderfyAndCollapse(t *testing.T) {
	in := []models.Candidate{
		at("a", 40.0, -73.0, models.TierFriend),
		at("b", 40.0, -73.0, models.TierCasual),
		at("c", 40.0, -73.0, models.TierCasual),
		at("solo", 40.002, -73.002, models.TierSoulmate),
	}
	clustered := Deconflict(in)
	key := GroupKey(in[0].Coordinate)

	expanded := Spiderfy(clustered, key)
	require.Len(t, expanded, 4)

	base := models.Coordinate{Lat: 40.0, Lng: -73.0}
	for i, c := range expanded {
		if c.OriginalGroupKey != key || c.Coordinate == base {
			continue
		}
		dc := geo.Distance(base.Lat, base.Lng, clustered[i].Coordinate.Lat, clustered[i].Coordinate.Lng)
		de := geo.Distance(base.Lat, base.Lng, c.Coordinate.Lat, c.Coordinate.Lng)
		assert.InDelta(t, dc*SpiderfyScale, de, 0.5)
	}

	// The untouched singleton keeps its coordinate through both passes.
	assert.Equal(t, in[3].Coordinate, expanded[3].Coordinate)

	collapsed := Collapse(expanded, key)
	assert.Equal(t, clustered, collapsed)
}

func TestSpiderfyUnknownKeyIsNoop(t *testing.T) {
	in := []models.Candidate{
		at("a", 40.0, -73.0, models.TierFriend),
		at("b", 40.0, -73.0, models.TierCasual),
	}
	clustered := Deconflict(in)
	out := Spiderfy(clustered, "41.000000_-70.000000")
	assert.Equal(t, clustered, out)
}

func TestDeconflictNeverChangesDistanceOrTier(t *testing.T) {
	in := []models.Candidate{
		{UID: "a", Coordinate: models.Coordinate{Lat: 40, Lng: -73}, DistanceMeters: 12.5, Tier: models.TierFriend},
		{UID: "b", Coordinate: models.Coordinate{Lat: 40, Lng: -73}, DistanceMeters: 14.0, Tier: models.TierBuddy},
	}
	out := Deconflict(in)
	for i := range out {
		assert.Equal(t, in[i].DistanceMeters, out[i].DistanceMeters)
		assert.Equal(t, in[i].Tier, out[i].Tier)
	}
}
