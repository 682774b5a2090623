// Package ws is the realtime channel: connection/chat events are
// delivered to the users they concern, typing indicators are relayed
// between chat partners, and connect/disconnect drives the presence
// tracker.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// PresenceSetter receives online/offline transitions as sockets come
// and go.
type PresenceSetter interface {
	SetOnline(ctx context.Context, uid string, online bool) error
}

// Event is the wire envelope: a type tag plus an arbitrary payload.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type outbound struct {
	userIDs []string // empty means broadcast
	data    []byte
}

// Hub tracks connected clients per user and routes events to them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	send       chan outbound
	presence   PresenceSetter
}

// NewHub returns a hub wired to the given presence tracker; presence
// may be nil in tests.
func NewHub(presence PresenceSetter) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan outbound, 64),
		presence:   presence,
	}
}

// Run processes registrations and outbound events. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]bool)
				h.clients[client.userID] = conns
			}
			conns[client] = true
			first := len(conns) == 1
			h.mu.Unlock()

			if first {
				h.setOnline(client.userID, true)
			}
			log.Printf("[ws] client registered for %s (%d users connected)", client.userID, h.ConnectedUsers())

		case client := <-h.unregister:
			h.mu.Lock()
			last := false
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
				}
				if len(conns) == 0 {
					delete(h.clients, client.userID)
					last = true
				}
			}
			h.mu.Unlock()

			if last {
				h.setOnline(client.userID, false)
			}
			log.Printf("[ws] client unregistered for %s (%d users connected)", client.userID, h.ConnectedUsers())

		case msg := <-h.send:
			h.mu.RLock()
			if len(msg.userIDs) == 0 {
				for _, conns := range h.clients {
					deliver(conns, msg.data)
				}
			} else {
				for _, uid := range msg.userIDs {
					if conns, ok := h.clients[uid]; ok {
						deliver(conns, msg.data)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func deliver(conns map[*Client]bool, data []byte) {
	for client := range conns {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the event rather than block the hub.
		}
	}
}

func (h *Hub) setOnline(uid string, online bool) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.presence.SetOnline(ctx, uid, online); err != nil {
		log.Printf("[ws] presence update for %s failed: %v", uid, err)
	}
}

// SendToUsers delivers an event to every open socket of the given users.
func (h *Hub) SendToUsers(eventType string, payload interface{}, userIDs ...string) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("[ws] marshal %s event: %v", eventType, err)
		return
	}
	h.send <- outbound{userIDs: userIDs, data: data}
}

// Broadcast delivers an event to every connected user.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	h.SendToUsers(eventType, payload)
}

// ConnectedUsers returns how many distinct users hold open sockets.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
