// Package presence maintains the per-user online flag: written to the
// store on foreground/background and realtime connect/disconnect, with
// a Redis fast path so repeated nearby passes don't hammer the store.
package presence

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"kindred/models"
	"kindred/store"
)

// cacheTTL bounds how stale the fast path can get; records are
// last-write-wins per user, so a slightly stale read is tolerated by
// the resolver anyway.
const cacheTTL = 5 * time.Minute

const cachePrefix = "presence:"

// Tracker reads and writes presence. A nil Redis client disables the
// cache; everything then goes through the store.
type Tracker struct {
	store store.Store
	redis *redis.Client
}

// NewTracker returns a tracker over the given store and optional cache.
func NewTracker(st store.Store, rdb *redis.Client) *Tracker {
	return &Tracker{store: st, redis: rdb}
}

// SetOnline records the user's online flag in the store and mirrors it
// into the cache. Cache failures are logged, never fatal.
func (t *Tracker) SetOnline(ctx context.Context, uid string, online bool) error {
	doc := store.Document{
		"online":   online,
		"lastSeen": t.store.ServerTimestamp(),
	}
	err := t.store.Update(ctx, store.Presence, uid, doc)
	if errors.Is(err, store.ErrNotFound) {
		doc["_id"] = uid
		_, err = t.store.Create(ctx, store.Presence, doc)
	}
	if err != nil {
		return err
	}

	if t.redis != nil {
		if err := t.redis.Set(ctx, cachePrefix+uid, strconv.FormatBool(online), cacheTTL).Err(); err != nil {
			log.Printf("[presence] cache write for %s failed: %v", uid, err)
		}
	}
	return nil
}

// Online reports whether one user is online.
func (t *Tracker) Online(ctx context.Context, uid string) (bool, error) {
	snapshot, err := t.Snapshot(ctx, []string{uid})
	if err != nil {
		return false, err
	}
	return snapshot[uid], nil
}

// Snapshot answers a batch online lookup: cache first, store for the
// misses, absent record means offline. Store read errors propagate so
// the resolver can signal the failed pass instead of silently showing
// everyone offline.
func (t *Tracker) Snapshot(ctx context.Context, uids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(uids))
	if len(uids) == 0 {
		return out, nil
	}

	missing := uids
	if t.redis != nil {
		keys := make([]string, len(uids))
		for i, uid := range uids {
			keys[i] = cachePrefix + uid
		}
		vals, err := t.redis.MGet(ctx, keys...).Result()
		if err != nil {
			log.Printf("[presence] cache read failed, falling back to store: %v", err)
		} else {
			missing = nil
			for i, v := range vals {
				s, ok := v.(string)
				if !ok {
					missing = append(missing, uids[i])
					continue
				}
				out[uids[i]] = s == "true"
			}
		}
	}

	for _, uid := range missing {
		doc, err := t.store.Get(ctx, store.Presence, uid)
		if errors.Is(err, store.ErrNotFound) {
			out[uid] = false
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec models.PresenceRecord
		if err := store.Decode(doc, &rec); err != nil {
			return nil, err
		}
		out[uid] = rec.Online

		if t.redis != nil {
			if err := t.redis.Set(ctx, cachePrefix+uid, strconv.FormatBool(rec.Online), cacheTTL).Err(); err != nil {
				log.Printf("[presence] cache backfill for %s failed: %v", uid, err)
			}
		}
	}
	return out, nil
}
