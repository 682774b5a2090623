// Package connections implements the bilateral connection state
// machine: none -> pending -> accepted (with chat-room provisioning),
// where decline deletes the request and reopens the pair.
//
// The store is atomic per document only, so every transition re-checks
// the current status with a conditional write instead of trusting a
// previously cached one.
package connections

import (
	"context"
	"errors"
	"log"

	"kindred/models"
	"kindred/store"
)

// WelcomeMessage is the system message inserted into a freshly
// provisioned chat room.
const WelcomeMessage = "You are now connected. Say hello!"

// Manager owns every ConnectionRequest transition.
type Manager struct {
	store store.Store
}

// NewManager returns a manager over the given store.
func NewManager(st store.Store) *Manager {
	return &Manager{store: st}
}

// SendInvite creates a pending request from sender to receiver. The
// canonical pair key makes the duplicate check a single lookup: an
// existing pending request yields AlreadyRequested (caller sent it) or
// AlreadyInvitedByOther (caller received it); an accepted one yields
// AlreadyConnected.
func (m *Manager) SendInvite(ctx context.Context, senderID, receiverID string, tier models.Tier, sharedInterests []string) (*models.ConnectionRequest, error) {
	if senderID == "" || receiverID == "" {
		return nil, models.NewValidationError("Sender and receiver are required")
	}
	if senderID == receiverID {
		return nil, models.NewValidationError("Cannot send a connection request to yourself")
	}

	pairKey := models.PairKeyFor(senderID, receiverID)
	docs, err := m.store.Query(ctx, store.Connections, store.Eq("pairKey", pairKey))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(docs) > 0 {
		var existing models.ConnectionRequest
		if err := store.Decode(docs[0], &existing); err != nil {
			return nil, models.NewInternalError(err)
		}
		switch {
		case existing.Status == models.StatusAccepted:
			return nil, models.NewAlreadyConnectedError()
		case existing.SenderID == senderID:
			return nil, models.NewAlreadyRequestedError()
		default:
			return nil, models.NewAlreadyInvitedError()
		}
	}

	if sharedInterests == nil {
		sharedInterests = []string{}
	}
	req := models.ConnectionRequest{
		PairKey:         pairKey,
		SenderID:        senderID,
		ReceiverID:      receiverID,
		Status:          models.StatusPending,
		Tier:            tier,
		SharedInterests: sharedInterests,
	}
	doc, err := store.Encode(&req)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	doc["createdAt"] = m.store.ServerTimestamp()
	// chatRoomId is stored as an explicit empty string so the
	// provisioning claim below can match on it.
	doc["chatRoomId"] = ""

	id, err := m.store.Create(ctx, store.Connections, doc)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return m.getRequest(ctx, id)
}

// AcceptInvite transitions a pending request to accepted and
// provisions its chat room. Only the receiver may accept. A concurrent
// second accept observes the accepted status and short-circuits into
// returning the first caller's chat room; exactly one room is ever
// created for a connection.
func (m *Manager) AcceptInvite(ctx context.Context, callerID, connectionID string) (*models.ConnectionRequest, error) {
	req, err := m.getRequest(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	if req.Status == models.StatusAccepted {
		if !req.Involves(callerID) {
			return nil, models.NewUnauthorizedError("You are not part of this connection")
		}
		if err := m.ensureChatRoom(ctx, req); err != nil {
			return nil, err
		}
		return req, nil
	}

	if req.ReceiverID != callerID {
		return nil, models.NewUnauthorizedError("Only the receiver can accept a connection request")
	}

	ok, err := m.store.UpdateWhere(ctx, store.Connections, connectionID,
		[]store.Predicate{store.Eq("status", string(models.StatusPending))},
		store.Document{
			"status":       string(models.StatusAccepted),
			"participants": []string{req.SenderID, req.ReceiverID},
			"acceptedAt":   m.store.ServerTimestamp(),
		})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		// Lost the race: the status changed under us. Re-read and
		// reconcile instead of failing destructively.
		req, err = m.getRequest(ctx, connectionID)
		if err != nil {
			return nil, models.NewStaleTransitionError("Connection request no longer exists")
		}
		if req.Status != models.StatusAccepted {
			return nil, models.NewStaleTransitionError("Connection request is no longer pending")
		}
	} else {
		req, err = m.getRequest(ctx, connectionID)
		if err != nil {
			return nil, err
		}
	}

	if err := m.ensureChatRoom(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ensureChatRoom provisions the chat room for an accepted request if
// it does not already have one. The back-reference write is a
// conditional claim on the empty chatRoomId field, so concurrent
// provisioners agree on a single room; a room created by a crashed
// earlier attempt is found by its connectionId and reused rather than
// orphaned. This is the repair path for accepted-but-roomless records.
func (m *Manager) ensureChatRoom(ctx context.Context, req *models.ConnectionRequest) error {
	if req.ChatRoomID != "" {
		return nil
	}

	rooms, err := m.store.Query(ctx, store.ChatRooms, store.Eq("connectionId", req.ID))
	if err != nil {
		return models.NewInternalError(err)
	}

	var roomID string
	created := false
	if len(rooms) > 0 {
		var room models.ChatRoom
		if err := store.Decode(rooms[0], &room); err != nil {
			return models.NewInternalError(err)
		}
		roomID = room.ID
	} else {
		roomID, err = m.store.Create(ctx, store.ChatRooms, store.Document{
			"participants": []string{req.SenderID, req.ReceiverID},
			"connectionId": req.ID,
			"createdAt":    m.store.ServerTimestamp(),
		})
		if err != nil {
			return models.NewInternalError(err)
		}
		created = true
	}

	ok, err := m.store.UpdateWhere(ctx, store.Connections, req.ID,
		[]store.Predicate{store.Eq("chatRoomId", "")},
		store.Document{"chatRoomId": roomID})
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		// Someone else claimed first; adopt their room. Our own room is
		// only dropped when it is not the one that got claimed: a
		// concurrent provisioner may have found it via the query above
		// and claimed it before we did.
		current, err := m.getRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		if created && roomID != current.ChatRoomID {
			if err := m.store.Delete(ctx, store.ChatRooms, roomID); err != nil && !errors.Is(err, store.ErrNotFound) {
				log.Printf("[connections] failed to remove losing chat room %s: %v", roomID, err)
			}
		}
		req.ChatRoomID = current.ChatRoomID
		return nil
	}

	req.ChatRoomID = roomID

	// The claim winner seeds the welcome message. A reused room left by
	// a crashed provisioner never got one, so check rather than rely on
	// having created the room ourselves.
	msgs, err := m.store.Query(ctx, store.Messages,
		store.Eq("chatId", roomID), store.Eq("senderId", models.SystemSender))
	if err == nil && len(msgs) == 0 {
		_, err = m.store.Create(ctx, store.Messages, store.Document{
			"chatId":    roomID,
			"senderId":  models.SystemSender,
			"content":   WelcomeMessage,
			"type":      models.MessageTypeSystem,
			"isRead":    false,
			"createdAt": m.store.ServerTimestamp(),
		})
	}
	if err != nil {
		// The room is usable without its welcome message; do not unwind
		// an already committed accept over it.
		log.Printf("[connections] failed to insert welcome message for room %s: %v", roomID, err)
	}
	return nil
}

// DeclineInvite deletes a pending request, returning the pair to the
// unconnected state so a later invite succeeds. Either party of the
// pending request may decline.
func (m *Manager) DeclineInvite(ctx context.Context, callerID, connectionID string) error {
	req, err := m.getRequest(ctx, connectionID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return models.NewStaleTransitionError("Connection request no longer exists")
		}
		return err
	}
	if !req.Involves(callerID) {
		return models.NewUnauthorizedError("You are not part of this connection request")
	}
	if req.Status != models.StatusPending {
		return models.NewStaleTransitionError("Connection request is no longer pending")
	}
	if err := m.store.Delete(ctx, store.Connections, connectionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.NewStaleTransitionError("Connection request no longer exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// FindChatRoomFor returns the chat room id of the accepted connection
// between two users, or NotConnected. An accepted record that lost its
// chat room is repaired on the way out.
func (m *Manager) FindChatRoomFor(ctx context.Context, uidA, uidB string) (string, error) {
	docs, err := m.store.Query(ctx, store.Connections, store.Eq("pairKey", models.PairKeyFor(uidA, uidB)))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if len(docs) == 0 {
		return "", models.NewNotConnectedError()
	}
	var req models.ConnectionRequest
	if err := store.Decode(docs[0], &req); err != nil {
		return "", models.NewInternalError(err)
	}
	if req.Status != models.StatusAccepted {
		return "", models.NewNotConnectedError()
	}
	if err := m.ensureChatRoom(ctx, &req); err != nil {
		return "", err
	}
	return req.ChatRoomID, nil
}

// Get returns one request by id.
func (m *Manager) Get(ctx context.Context, connectionID string) (*models.ConnectionRequest, error) {
	return m.getRequest(ctx, connectionID)
}

// PendingReceived lists pending requests addressed to uid.
func (m *Manager) PendingReceived(ctx context.Context, uid string) ([]models.ConnectionRequest, error) {
	return m.queryRequests(ctx, store.Eq("receiverId", uid), store.Eq("status", string(models.StatusPending)))
}

// PendingSent lists pending requests sent by uid.
func (m *Manager) PendingSent(ctx context.Context, uid string) ([]models.ConnectionRequest, error) {
	return m.queryRequests(ctx, store.Eq("senderId", uid), store.Eq("status", string(models.StatusPending)))
}

// Accepted lists the accepted connections uid participates in.
func (m *Manager) Accepted(ctx context.Context, uid string) ([]models.ConnectionRequest, error) {
	return m.queryRequests(ctx, store.Contains("participants", uid), store.Eq("status", string(models.StatusAccepted)))
}

func (m *Manager) queryRequests(ctx context.Context, preds ...store.Predicate) ([]models.ConnectionRequest, error) {
	docs, err := m.store.Query(ctx, store.Connections, preds...)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	reqs, err := store.DecodeAll[models.ConnectionRequest](docs)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (m *Manager) getRequest(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	doc, err := m.store.Get(ctx, store.Connections, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("Connection request", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var req models.ConnectionRequest
	if err := store.Decode(doc, &req); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}
