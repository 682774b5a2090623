package models

// ConnectionStatus is the lifecycle state of a ConnectionRequest.
// Decline deletes the document outright, so there is no declined
// status: the pair drops back to "no request" and can be re-invited.
type ConnectionStatus string

const (
	// StatusPending indicates a sent but not yet answered request.
	StatusPending ConnectionStatus = "pending"
	// StatusAccepted indicates an accepted request with a chat room.
	StatusAccepted ConnectionStatus = "accepted"
)

// ConnectionRequest represents the single request document allowed per
// unordered user pair. PairKey is the canonical sorted-pair key that
// makes the existence check a single lookup.
type ConnectionRequest struct {
	ID              string           `bson:"_id,omitempty" json:"id"`
	PairKey         string           `bson:"pairKey" json:"-"`
	SenderID        string           `bson:"senderId" json:"senderId"`
	ReceiverID      string           `bson:"receiverId" json:"receiverId"`
	Status          ConnectionStatus `bson:"status" json:"status"`
	Participants    []string         `bson:"participants,omitempty" json:"participants,omitempty"`
	Tier            Tier             `bson:"tier" json:"tier"`
	SharedInterests []string         `bson:"sharedInterests" json:"sharedInterests"`
	ChatRoomID      string           `bson:"chatRoomId" json:"chatRoomId,omitempty"`
	CreatedAt       int64            `bson:"createdAt" json:"createdAt"`
	AcceptedAt      int64            `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
}

// PairKeyFor returns the canonical key for an unordered user pair:
// min(a,b) + "_" + max(a,b).
func PairKeyFor(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}

// Involves reports whether uid is one of the two parties.
func (r *ConnectionRequest) Involves(uid string) bool {
	return r.SenderID == uid || r.ReceiverID == uid
}

// PartnerOf returns the other party of the pair.
func (r *ConnectionRequest) PartnerOf(uid string) string {
	if r.SenderID == uid {
		return r.ReceiverID
	}
	return r.SenderID
}
