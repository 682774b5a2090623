package models

// UserProfile is the single user document: account fields plus the
// public profile read by the proximity resolver. Mutated only by the
// owning user's client.
type UserProfile struct {
	UID             string   `bson:"_id,omitempty" json:"id"`
	Email           string   `bson:"email,omitempty" json:"-"`
	PasswordHash    string   `bson:"passwordHash,omitempty" json:"-"`
	Name            string   `bson:"name" json:"name"`
	Bio             string   `bson:"bio" json:"bio"`
	Avatar          string   `bson:"avatar" json:"avatar"`
	Interests       []string `bson:"interests" json:"interests"`
	Photos          []string `bson:"photos" json:"photos"`
	LocationVisible bool     `bson:"locationVisible" json:"locationVisible"`
	CreatedAt       int64    `bson:"createdAt,omitempty" json:"createdAt"`
	LastSeen        int64    `bson:"lastSeen,omitempty" json:"lastSeen"`
}
