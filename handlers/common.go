// Package handlers is the HTTP surface. Every handler method reads its
// collaborators from the Handler struct; nothing reaches for ambient
// globals.
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"kindred/connections"
	"kindred/models"
	"kindred/nearby"
	"kindred/notify"
	"kindred/photos"
	"kindred/presence"
	"kindred/store"
	"kindred/ws"
)

const storeTimeout = 10 * time.Second

// Handler carries the injected services the endpoints use. Hub,
// Pusher and Uploader may be nil; the endpoints degrade gracefully.
type Handler struct {
	Store       store.Store
	Resolver    *nearby.Resolver
	Connections *connections.Manager
	Presence    *presence.Tracker
	Hub         *ws.Hub
	Pusher      *notify.Pusher
	Uploader    photos.Uploader
	JWTSecret   string
}

// New wires a handler set over its services.
func New(st store.Store, resolver *nearby.Resolver, mgr *connections.Manager, tracker *presence.Tracker, hub *ws.Hub, pusher *notify.Pusher, uploader photos.Uploader, jwtSecret string) *Handler {
	return &Handler{
		Store:       st,
		Resolver:    resolver,
		Connections: mgr,
		Presence:    tracker,
		Hub:         hub,
		Pusher:      pusher,
		Uploader:    uploader,
		JWTSecret:   jwtSecret,
	}
}

func storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func currentUserID(c *gin.Context) string {
	return c.GetString("userId")
}

func (h *Handler) getProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	doc, err := h.Store.Get(ctx, store.Users, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("User", uid)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var profile models.UserProfile
	if err := store.Decode(doc, &profile); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

// sendEvent pushes a realtime event to specific users; no-op without a hub.
func (h *Handler) sendEvent(eventType string, payload interface{}, userIDs ...string) {
	if h.Hub == nil {
		return
	}
	h.Hub.SendToUsers(eventType, payload, userIDs...)
}

// pushToUser fires a web-push notification in the background.
func (h *Handler) pushToUser(uid, title, body string, data map[string]string) {
	if h.Pusher == nil || !h.Pusher.Enabled() {
		return
	}
	go func() {
		ctx, cancel := storeCtx()
		defer cancel()
		h.Pusher.NotifyUser(ctx, uid, title, body, data)
	}()
}
