// Package seed populates a development database with demo users
// scattered around a downtown block, including venue clusters that
// share an exact coordinate.
package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"

	"kindred/geo"
	"kindred/store"
)

// Center of the demo neighborhood.
const (
	centerLat = 40.7282
	centerLng = -73.9942
)

var interestPool = []string{
	"hiking", "photography", "coffee", "live music", "board games",
	"cycling", "cooking", "yoga", "film", "climbing", "reading",
	"running", "pottery", "jazz", "street food",
}

// Run inserts demo users, locations and presence records. Roughly a
// third of the users are stacked onto two shared venue coordinates so
// the map has clusters to deconflict.
func Run(ctx context.Context, st store.Store) error {
	gofakeit.Seed(42)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	venues := []struct{ lat, lng float64 }{
		geoPoint(60, 40),
		geoPoint(-90, -30),
	}

	for i := 0; i < 30; i++ {
		name := gofakeit.Name()
		interests := pickInterests(2 + gofakeit.Number(0, 5))

		uid, err := st.Create(ctx, store.Users, store.Document{
			"email":           fmt.Sprintf("demo%d@kindred.app", i),
			"passwordHash":    string(hash),
			"name":            name,
			"bio":             gofakeit.Sentence(8),
			"avatar":          fmt.Sprintf("https://i.pravatar.cc/150?u=demo%d", i),
			"interests":       interests,
			"photos":          []string{},
			"locationVisible": true,
			"createdAt":       st.ServerTimestamp(),
			"lastSeen":        st.ServerTimestamp(),
		})
		if err != nil {
			return fmt.Errorf("seed user %d: %w", i, err)
		}

		var lat, lng float64
		if i < 10 {
			// Stack onto a venue so the marker layer has clusters.
			v := venues[i%len(venues)]
			lat, lng = v.lat, v.lng
		} else {
			lat, lng = geo.Offset(centerLat, centerLng,
				gofakeit.Float64Range(-300, 300), gofakeit.Float64Range(-300, 300))
		}

		if _, err := st.Create(ctx, store.Locations, store.Document{
			"_id":        uid,
			"coordinate": store.Document{"lat": lat, "lng": lng},
			"visible":    true,
			"lastSeen":   st.ServerTimestamp(),
		}); err != nil {
			return fmt.Errorf("seed location %d: %w", i, err)
		}

		if _, err := st.Create(ctx, store.Presence, store.Document{
			"_id":      uid,
			"online":   gofakeit.Bool(),
			"lastSeen": st.ServerTimestamp(),
		}); err != nil {
			return fmt.Errorf("seed presence %d: %w", i, err)
		}
		log.Printf("[seed] created %s (%s) with %d interests", name, uid, len(interests))
	}
	return nil
}

func geoPoint(eastMeters, northMeters float64) struct{ lat, lng float64 } {
	lat, lng := geo.Offset(centerLat, centerLng, eastMeters, northMeters)
	return struct{ lat, lng float64 }{lat, lng}
}

func pickInterests(n int) []string {
	if n > len(interestPool) {
		n = len(interestPool)
	}
	perm := make([]string, len(interestPool))
	copy(perm, interestPool)
	gofakeit.ShuffleStrings(perm)
	out := make([]string, n)
	copy(out, perm[:n])
	return out
}
