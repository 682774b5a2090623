package models

// PresenceRecord is one per user, keyed by uid. Written on app
// foreground/background transitions and realtime connect/disconnect;
// read-only from the resolver's perspective.
type PresenceRecord struct {
	UID      string `bson:"_id,omitempty" json:"uid"`
	Online   bool   `bson:"online" json:"online"`
	LastSeen int64  `bson:"lastSeen" json:"lastSeen"`
}
