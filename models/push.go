package models

// PushSubscription stores one browser push endpoint for a user. A user
// may hold several (one per device).
type PushSubscription struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	UserID    string `bson:"userId" json:"userId"`
	Endpoint  string `bson:"endpoint" json:"endpoint"`
	P256dh    string `bson:"p256dh" json:"p256dh"`
	Auth      string `bson:"auth" json:"auth"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
}
