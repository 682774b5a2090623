package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kindred/models"
)

func candidate(uid string, shared int, interests []string, online bool) models.Candidate {
	return models.Candidate{
		UID:         uid,
		SharedCount: shared,
		Interests:   interests,
		Online:      online,
	}
}

func TestApplyDefaultMinShared(t *testing.T) {
	in := []models.Candidate{
		candidate("a", 0, nil, true),
		candidate("b", 1, nil, true),
		candidate("c", 3, nil, true),
	}

	out := Apply(in, models.Filter{})
	assert.Len(t, out, 2)
	assert.Equal(t, "b", out[0].UID)
	assert.Equal(t, "c", out[1].UID)

	// Negative values clamp to the same default.
	assert.Equal(t, out, Apply(in, models.Filter{MinShared: -5}))
}

func TestApplyMinSharedThreshold(t *testing.T) {
	in := []models.Candidate{
		candidate("a", 2, nil, true),
		candidate("b", 5, nil, true),
	}
	out := Apply(in, models.Filter{MinShared: 3})
	assert.Len(t, out, 1)
	assert.Equal(t, "b", out[0].UID)
}

func TestApplySelectedInterests(t *testing.T) {
	in := []models.Candidate{
		candidate("a", 1, []string{"hiking", "film"}, true),
		candidate("b", 1, []string{"coffee"}, true),
		candidate("c", 1, nil, true),
	}
	out := Apply(in, models.Filter{SelectedInterests: []string{"film", "yoga"}})
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].UID)
}

func TestApplyOnlineOnly(t *testing.T) {
	in := []models.Candidate{
		candidate("a", 1, nil, false),
		candidate("b", 1, nil, true),
	}
	out := Apply(in, models.Filter{OnlineOnly: true})
	assert.Len(t, out, 1)
	assert.Equal(t, "b", out[0].UID)
}

func TestApplyPreservesOrder(t *testing.T) {
	in := []models.Candidate{
		candidate("z", 4, nil, true),
		candidate("m", 2, nil, true),
		candidate("a", 9, nil, true),
	}
	out := Apply(in, models.Filter{MinShared: 2})
	assert.Equal(t, []string{"z", "m", "a"}, []string{out[0].UID, out[1].UID, out[2].UID})
}

func TestApplyEmptyInput(t *testing.T) {
	out := Apply(nil, models.Filter{OnlineOnly: true})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestApplyCombined(t *testing.T) {
	in := []models.Candidate{
		candidate("a", 3, []string{"hiking"}, true),
		candidate("b", 3, []string{"hiking"}, false),
		candidate("c", 1, []string{"hiking"}, true),
		candidate("d", 3, []string{"coffee"}, true),
	}
	out := Apply(in, models.Filter{
		MinShared:         2,
		SelectedInterests: []string{"hiking"},
		OnlineOnly:        true,
	})
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].UID)
}
