package models

// ChatRoom is provisioned exactly once, atomically with the accept of
// its ConnectionRequest.
type ChatRoom struct {
	ID            string   `bson:"_id,omitempty" json:"id"`
	Participants  []string `bson:"participants" json:"participants"`
	ConnectionID  string   `bson:"connectionId" json:"connectionId"`
	LastMessage   string   `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageAt int64    `bson:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	CreatedAt     int64    `bson:"createdAt" json:"createdAt"`
}
