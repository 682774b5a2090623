package models

// Favorite is a one-way bookmark of another user.
type Favorite struct {
	ID           string `bson:"_id,omitempty" json:"id"`
	UserID       string `bson:"userId" json:"userId"`
	TargetUserID string `bson:"targetUserId" json:"targetUserId"`
	CreatedAt    int64  `bson:"createdAt" json:"createdAt"`
}
