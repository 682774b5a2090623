package ws

import (
	"context"
	"log"

	"kindred/store"
)

// WatchPresence forwards presence-record deltas to every connected
// client as presence_changed events, so map screens flip online badges
// without re-resolving. Runs until ctx is canceled.
func WatchPresence(ctx context.Context, st store.Store, hub *Hub) (func(), error) {
	stop, err := st.Subscribe(ctx, store.Presence, nil, func(change store.Change) {
		if change.Kind == store.ChangeDeleted || change.Doc == nil {
			return
		}
		uid, _ := change.Doc["_id"].(string)
		online, _ := change.Doc["online"].(bool)
		if uid == "" {
			return
		}
		hub.Broadcast("presence_changed", map[string]interface{}{
			"userId": uid,
			"online": online,
		})
	})
	if err != nil {
		return nil, err
	}
	log.Println("[ws] presence watcher started")
	return stop, nil
}
