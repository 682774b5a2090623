// Package nearby resolves the viewer's surroundings into a ranked
// candidate list: distance cut, interest join, tier classification,
// presence lookup.
package nearby

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"

	"kindred/geo"
	"kindred/models"
	"kindred/store"
)

// DefaultRadiusMeters is a quarter mile.
const DefaultRadiusMeters = 400.0

// FallbackName is shown for candidates whose profile is missing; a
// hole in the users collection must not fail the whole pass.
const FallbackName = "Unknown"

// FallbackAvatar matches the client's placeholder portrait.
const FallbackAvatar = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"

// ErrStale marks a resolution pass that completed after a newer pass
// had already delivered. Callers drop the result silently.
var ErrStale = errors.New("nearby: resolution superseded by a newer pass")

// PresenceSource answers batch online lookups for candidate uids.
type PresenceSource interface {
	Snapshot(ctx context.Context, uids []string) (map[string]bool, error)
}

// Resolver computes the nearby candidate list. Read-only with respect
// to the store.
type Resolver struct {
	store    store.Store
	presence PresenceSource

	// Passes are tagged with a monotonic id; a pass may only deliver
	// if no newer pass delivered first. This guards the shared UI
	// state against out-of-order async completion.
	seq       atomic.Uint64
	delivered atomic.Uint64
}

// NewResolver returns a resolver over the given store and presence source.
func NewResolver(st store.Store, presence PresenceSource) *Resolver {
	return &Resolver{store: st, presence: presence}
}

// Resolve returns every visible candidate within radiusMeters of
// viewerCoord, ranked by tier (descending), distance (ascending) and
// name. radiusMeters <= 0 selects the default radius.
func (r *Resolver) Resolve(ctx context.Context, viewerUID string, viewerCoord models.Coordinate, viewerInterests []string, radiusMeters float64) ([]models.Candidate, error) {
	pass := r.seq.Add(1)
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}

	docs, err := r.store.Query(ctx, store.Locations, store.Eq("visible", true))
	if err != nil {
		return nil, models.NewResolutionError(err)
	}
	records, err := store.DecodeAll[models.LocationRecord](docs)
	if err != nil {
		return nil, models.NewResolutionError(err)
	}

	candidates := make([]models.Candidate, 0, len(records))
	for _, rec := range records {
		if rec.UID == viewerUID || rec.Coordinate == nil {
			continue
		}
		d := geo.Distance(viewerCoord.Lat, viewerCoord.Lng, rec.Coordinate.Lat, rec.Coordinate.Lng)
		if d > radiusMeters {
			continue
		}
		candidates = append(candidates, models.Candidate{
			UID:            rec.UID,
			Coordinate:     *rec.Coordinate,
			DistanceMeters: d,
		})
	}

	uids := make([]string, len(candidates))
	for i := range candidates {
		uids[i] = candidates[i].UID
	}

	for i := range candidates {
		if err := r.joinProfile(ctx, &candidates[i], viewerInterests); err != nil {
			return nil, err
		}
	}

	online, err := r.presence.Snapshot(ctx, uids)
	if err != nil {
		return nil, models.NewResolutionError(err)
	}
	for i := range candidates {
		candidates[i].Online = online[candidates[i].UID]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Tier != b.Tier {
			return a.Tier.Rank() > b.Tier.Rank()
		}
		if a.DistanceMeters != b.DistanceMeters {
			return a.DistanceMeters < b.DistanceMeters
		}
		return a.Name < b.Name
	})

	if err := r.deliver(pass); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *Resolver) joinProfile(ctx context.Context, c *models.Candidate, viewerInterests []string) error {
	doc, err := r.store.Get(ctx, store.Users, c.UID)
	if errors.Is(err, store.ErrNotFound) {
		c.Name = FallbackName
		c.Avatar = FallbackAvatar
		c.Interests = []string{}
		c.SharedInterests = []string{}
		c.Tier = models.TierForSharedCount(0)
		return nil
	}
	if err != nil {
		return models.NewResolutionError(err)
	}

	var profile models.UserProfile
	if err := store.Decode(doc, &profile); err != nil {
		return models.NewResolutionError(err)
	}

	c.Name = profile.Name
	if c.Name == "" {
		c.Name = FallbackName
	}
	c.Avatar = profile.Avatar
	if c.Avatar == "" {
		c.Avatar = FallbackAvatar
	}
	c.Bio = profile.Bio
	c.Interests = profile.Interests
	c.SharedInterests = Intersect(viewerInterests, profile.Interests)
	c.SharedCount = len(c.SharedInterests)
	c.Tier = models.TierForSharedCount(c.SharedCount)
	return nil
}

func (r *Resolver) deliver(pass uint64) error {
	for {
		cur := r.delivered.Load()
		if pass <= cur {
			return ErrStale
		}
		if r.delivered.CompareAndSwap(cur, pass) {
			return nil
		}
	}
}

// Intersect returns the sorted intersection of two interest sets.
func Intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, s := range b {
		if _, ok := set[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out
}
