// Package filter applies the user-chosen nearby filters. Pure
// in-memory logic: re-runnable on every filter change without
// re-querying, and stable — survivors keep their resolver order.
package filter

import "kindred/models"

// Apply returns the candidates passing every predicate of f, in their
// input order. MinShared below 1 is treated as the default of 1.
func Apply(candidates []models.Candidate, f models.Filter) []models.Candidate {
	minShared := f.MinShared
	if minShared < 1 {
		minShared = 1
	}

	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.SharedCount < minShared {
			continue
		}
		if len(f.SelectedInterests) > 0 && !intersects(f.SelectedInterests, c.Interests) {
			continue
		}
		if f.OnlineOnly && !c.Online {
			continue
		}
		out = append(out, c)
	}
	return out
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
