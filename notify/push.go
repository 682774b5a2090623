// Package notify delivers web-push notifications for invites, accepted
// connections and new messages. Delivery is best effort: a failed push
// never fails the action that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"kindred/models"
	"kindred/store"
)

// Pusher sends web-push notifications to every registered device of a
// user. Construct with NewPusher; a pusher without VAPID keys is
// disabled and silently drops notifications.
type Pusher struct {
	store      store.Store
	publicKey  string
	privateKey string
	subscriber string
}

func NewPusher(st store.Store, publicKey, privateKey, subscriber string) *Pusher {
	return &Pusher{store: st, publicKey: publicKey, privateKey: privateKey, subscriber: subscriber}
}

// Enabled reports whether VAPID keys are configured.
func (p *Pusher) Enabled() bool {
	return p.publicKey != "" && p.privateKey != ""
}

// PublicKey returns the VAPID public key clients subscribe with.
func (p *Pusher) PublicKey() string {
	return p.publicKey
}

// SaveSubscription upserts one device endpoint for a user.
func (p *Pusher) SaveSubscription(ctx context.Context, uid, endpoint, p256dh, auth string) error {
	existing, err := p.store.Query(ctx, store.PushSubs, store.Eq("endpoint", endpoint))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		id, _ := existing[0]["_id"].(string)
		return p.store.Update(ctx, store.PushSubs, id, store.Document{
			"userId": uid,
			"p256dh": p256dh,
			"auth":   auth,
		})
	}
	_, err = p.store.Create(ctx, store.PushSubs, store.Document{
		"userId":    uid,
		"endpoint":  endpoint,
		"p256dh":    p256dh,
		"auth":      auth,
		"createdAt": p.store.ServerTimestamp(),
	})
	return err
}

// NotifyUser pushes a notification to every device of uid. Dead
// endpoints (404/410) are pruned as they are discovered.
func (p *Pusher) NotifyUser(ctx context.Context, uid, title, body string, data map[string]string) {
	if !p.Enabled() {
		return
	}

	docs, err := p.store.Query(ctx, store.PushSubs, store.Eq("userId", uid))
	if err != nil {
		log.Printf("[notify] subscription lookup for %s failed: %v", uid, err)
		return
	}
	subs, err := store.DecodeAll[models.PushSubscription](docs)
	if err != nil {
		log.Printf("[notify] subscription decode for %s failed: %v", uid, err)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": title,
		"body":  body,
		"data":  data,
	})
	if err != nil {
		log.Printf("[notify] payload marshal failed: %v", err)
		return
	}

	for _, sub := range subs {
		resp, err := webpush.SendNotification(payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			Subscriber:      p.subscriber,
			VAPIDPublicKey:  p.publicKey,
			VAPIDPrivateKey: p.privateKey,
			TTL:             60,
		})
		if err != nil {
			log.Printf("[notify] push to %s failed: %v", uid, err)
			continue
		}
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			if err := p.store.Delete(ctx, store.PushSubs, sub.ID); err != nil {
				log.Printf("[notify] pruning dead endpoint failed: %v", err)
			}
		}
		resp.Body.Close()
	}
}

// GenerateVAPIDKeys creates a fresh key pair for first-run setups.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", errors.New("failed to generate VAPID keys")
	}
	return publicKey, privateKey, nil
}
