package nearby

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/models"
	"kindred/presence"
	"kindred/store"
)

func newFixture(t *testing.T) (*store.Memory, *Resolver) {
	t.Helper()
	mem := store.NewMemory()
	tracker := presence.NewTracker(mem, nil)
	return mem, NewResolver(mem, tracker)
}

func seedUser(t *testing.T, mem *store.Memory, uid, name string, interests []string) {
	t.Helper()
	_, err := mem.Create(context.Background(), store.Users, store.Document{
		"_id":       uid,
		"name":      name,
		"interests": interests,
	})
	require.NoError(t, err)
}

func seedLocation(t *testing.T, mem *store.Memory, uid string, lat, lng float64, visible bool) {
	t.Helper()
	_, err := mem.Create(context.Background(), store.Locations, store.Document{
		"_id":        uid,
		"coordinate": store.Document{"lat": lat, "lng": lng},
		"visible":    visible,
	})
	require.NoError(t, err)
}

func seedPresence(t *testing.T, mem *store.Memory, uid string, online bool) {
	t.Helper()
	_, err := mem.Create(context.Background(), store.Presence, store.Document{
		"_id":    uid,
		"online": online,
	})
	require.NoError(t, err)
}

var viewerCoord = models.Coordinate{Lat: 40.0000, Lng: -73.0000}

func TestResolveRadiusCut(t *testing.T) {
	mem, r := newFixture(t)

	seedUser(t, mem, "near", "Near", []string{"hiking"})
	seedLocation(t, mem, "near", 40.0003, -73.0000, true) // ~33m

	seedUser(t, mem, "far", "Far", []string{"hiking"})
	seedLocation(t, mem, "far", 40.0100, -73.0000, true) // ~1.1km

	out, err := r.Resolve(context.Background(), "viewer", viewerCoord, []string{"hiking"}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "near", out[0].UID)
	assert.InDelta(t, 33.4, out[0].DistanceMeters, 1.0)
}

func TestResolveExcludesViewerAndInvisible(t *testing.T) {
	mem, r := newFixture(t)

	seedUser(t, mem, "viewer", "Me", nil)
	seedLocation(t, mem, "viewer", 40.0000, -73.0000, true)

	seedUser(t, mem, "hidden", "Hidden", nil)
	seedLocation(t, mem, "hidden", 40.0001, -73.0000, false)

	seedUser(t, mem, "shown", "Shown", nil)
	seedLocation(t, mem, "shown", 40.0001, -73.0000, true)

	out, err := r.Resolve(context.Background(), "viewer", viewerCoord, nil, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "shown", out[0].UID)
}

func TestResolveTierClassification(t *testing.T) {
	mem, r := newFixture(t)
	viewerInterests := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o"}

	cases := []struct {
		uid    string
		shared int
		want   models.Tier
	}{
		{"soulmate", 15, models.TierSoulmate},
		{"bestfriend", 8, models.TierBestFriend},
		{"friend", 5, models.TierFriend},
		{"buddy", 3, models.TierBuddy},
		{"casual", 2, models.TierCasual},
		{"stranger", 0, models.TierCasual},
	}
	for i, tc := range cases {
		seedUser(t, mem, tc.uid, tc.uid, viewerInterests[:tc.shared])
		seedLocation(t, mem, tc.uid, 40.0001+float64(i)*0.0001, -73.0000, true)
	}

	out, err := r.Resolve(context.Background(), "viewer", viewerCoord, viewerInterests, 0)
	require.NoError(t, err)
	require.Len(t, out, len(cases))

	byUID := map[string]models.Candidate{}
	for _, c := range out {
		byUID[c.UID] = c
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, byUID[tc.uid].Tier, "uid %s", tc.uid)
		assert.Equalf(t, tc.shared, byUID[tc.uid].SharedCount, "uid %s", tc.uid)
	}
}

func TestResolveSortOrder(t *testing.T) {
	mem, r := newFixture(t)
	viewerInterests := []string{"a", "b", "c", "d", "e"}

	// Higher tier farther away still sorts first.
	seedUser(t, mem, "friend-far", "Zed", []string{"a", "b", "c", "d", "e"})
	seedLocation(t, mem, "friend-far", 40.0010, -73.0000, true)

	seedUser(t, mem, "casual-close", "Amy", []string{"a"})
	seedLocation(t, mem, "casual-close", 40.0001, -73.0000, true)

	// Equal tier and distance: name breaks the tie.
	seedUser(t, mem, "casual-b", "Bob", []string{"a"})
	seedLocation(t, mem, "casual-b", 40.0001, -73.0000, true)
	seedUser(t, mem, "casual-a", "Abe", []string{"a"})
	seedLocation(t, mem, "casual-a", 40.0001, -73.0000, true)

	out, err := r.Resolve(context.Background(), "viewer", viewerCoord, viewerInterests, 0)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, "friend-far", out[0].UID)
	assert.Equal(t, models.TierFriend, out[0].Tier)
	assert.Equal(t, "Abe", out[1].Name)
	assert.Equal(t, "Amy", out[2].Name)
	assert.Equal(t, "Bob", out[3].Name)
}

func TestResolveMissingProfilePlaceholder(t *testing.T) {
	mem, r := newFixture(t)
	seedLocation(t, mem, "ghost", 40.0001, -73.0000, true)

	out, err := r.Resolve(context.Background(), "viewer", viewerCoord, []string{"a"}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, FallbackName, out[0].Name)
	assert.Equal(t, FallbackAvatar, out[0].Avatar)
	assert.Equal(t, models.TierCasual, out[0].Tier)
	assert.Empty(t, out[0].SharedInterests)
}

func TestResolvePresenceJoin(t *testing.T) {
	mem, r := newFixture(t)

	seedUser(t, mem, "on", "On", nil)
	seedLocation(t, mem, "on", 40.0001, -73.0000, true)
	seedPresence(t, mem, "on", true)

	seedUser(t, mem, "off", "Off", nil)
	seedLocation(t, mem, "off", 40.0002, -73.0000, true)

	out, err := r.Resolve(context.Background(), "viewer", viewerCoord, nil, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	byUID := map[string]bool{}
	for _, c := range out {
		byUID[c.UID] = c.Online
	}
	assert.True(t, byUID["on"])
	assert.False(t, byUID["off"])
}

func TestResolveStalePassDropped(t *testing.T) {
	mem, r := newFixture(t)
	seedUser(t, mem, "p", "P", nil)
	seedLocation(t, mem, "p", 40.0001, -73.0000, true)

	// The first pass blocks inside its store query until a second pass
	// has fully delivered, so it finishes stale. The first-caller check
	// must not serialize later queries behind the parked one, so a CAS
	// flag is used rather than sync.Once.
	release := make(chan struct{})
	var trapped atomic.Bool
	blocked := make(chan struct{})
	mem.QueryHook = func(collection string) {
		if trapped.CompareAndSwap(false, true) {
			close(blocked)
			<-release
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var staleErr error
	go func() {
		defer wg.Done()
		_, staleErr = r.Resolve(context.Background(), "viewer", viewerCoord, nil, 0)
	}()

	<-blocked
	out, err := r.Resolve(context.Background(), "viewer", viewerCoord, nil, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	close(release)
	wg.Wait()
	assert.ErrorIs(t, staleErr, ErrStale)
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, Intersect([]string{"a", "b", "c"}, []string{"c", "b", "z"}))
	assert.Equal(t, []string{}, Intersect([]string{"a"}, []string{"b"}))
	assert.Equal(t, []string{}, Intersect(nil, nil))
	// Duplicates collapse.
	assert.Equal(t, []string{"a"}, Intersect([]string{"a", "a"}, []string{"a", "a"}))
}
