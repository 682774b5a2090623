// Package markers turns a resolved candidate list into visually
// non-overlapping map markers. Candidates sharing a coordinate are
// fanned out on a circle (small groups) or a spiral (large groups);
// a tapped cluster can be reversibly expanded ("spiderfy").
//
// All transforms are pure and deterministic: the same input list
// yields the same output coordinates on every call, and only display
// coordinates are touched — distance and tier are never rewritten.
package markers

import (
	"fmt"
	"math"
	"sort"

	"kindred/geo"
	"kindred/models"
)

const (
	// MinMarkerDistance is the base separation between clustered
	// markers, in meters. Higher tiers scale it up to 1.5x in circle
	// layouts.
	MinMarkerDistance = 10.0

	// SpiderfyScale is the offset multiplier for an expanded cluster.
	SpiderfyScale = 2.5

	// spiralStep is how many markers share a spiral ring.
	spiralStep = 6

	// circleMax is the largest group laid out on a single circle;
	// anything bigger fans out on a spiral.
	circleMax = 8
)

// GroupKey rounds a coordinate to 6 decimals (~0.1 m), which captures
// "exact same venue" duplicates without merging distinct GPS fixes.
func GroupKey(c models.Coordinate) string {
	return fmt.Sprintf("%.6f_%.6f", c.Lat, c.Lng)
}

func tierScale(t models.Tier) float64 {
	return 1.0 + 0.125*float64(t.Rank())
}

// Deconflict groups candidates by rounded coordinate and offsets the
// members of every multi-candidate group so no two markers coincide.
// Singleton groups pass through untouched and carry no group key.
func Deconflict(candidates []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, len(candidates))
	copy(out, candidates)

	groups := make(map[string][]int)
	var order []string
	for i := range out {
		k := GroupKey(out[i].Coordinate)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	for _, k := range order {
		idxs := groups[k]
		if len(idxs) == 1 {
			continue
		}
		layoutGroup(out, idxs, 1.0)
		for _, i := range idxs {
			out[i].OriginalGroupKey = k
		}
	}
	return out
}

// Spiderfy re-renders the cluster tagged with key at expanded offsets.
// The result is display-only; Collapse restores the clustered layout.
func Spiderfy(candidates []models.Candidate, key string) []models.Candidate {
	return relayout(candidates, key, SpiderfyScale)
}

// Collapse restores the clustered layout of a spiderfied group.
func Collapse(candidates []models.Candidate, key string) []models.Candidate {
	return relayout(candidates, key, 1.0)
}

func relayout(candidates []models.Candidate, key string, expand float64) []models.Candidate {
	out := make([]models.Candidate, len(candidates))
	copy(out, candidates)

	var idxs []int
	for i := range out {
		if out[i].OriginalGroupKey == key {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) < 2 {
		return out
	}
	layoutGroup(out, idxs, expand)
	return out
}

// layoutGroup places one group: members are ranked by tier (stable, so
// resolver order breaks ties), the highest tier keeps the unmodified
// base coordinate, the rest fan out around it. The highest-tier
// member's coordinate is never rewritten, which is what lets a later
// relayout recover the group's base.
func layoutGroup(out []models.Candidate, idxs []int, expand float64) {
	sorted := append([]int(nil), idxs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return out[sorted[i]].Tier.Rank() > out[sorted[j]].Tier.Rank()
	})

	base := out[sorted[0]].Coordinate
	n := len(sorted)
	for k := 1; k < n; k++ {
		idx := sorted[k]
		var angle, radius float64
		if n <= circleMax {
			// Evenly spaced circle.
			angle = float64(k-1) * 2 * math.Pi / float64(n-1)
			radius = MinMarkerDistance * tierScale(out[idx].Tier)
		} else {
			// Spiral: a sixth of a turn per marker, a half step of
			// radius per completed ring. No tier scaling here: a
			// scaled inner marker would land on an outer ring at the
			// same angle.
			ring := (k - 1) / spiralStep
			angle = float64(k-1) * 2 * math.Pi / spiralStep
			radius = MinMarkerDistance + float64(ring)*MinMarkerDistance/2
		}
		radius *= expand

		lat, lng := geo.Offset(base.Lat, base.Lng, radius*math.Cos(angle), radius*math.Sin(angle))
		out[idx].Coordinate = models.Coordinate{Lat: lat, Lng: lng}
	}
}
