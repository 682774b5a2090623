package models

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// LocationRecord is one per user, keyed by uid, overwritten on each
// location refresh. A record with Visible=false must never be surfaced
// as a nearby candidate.
type LocationRecord struct {
	UID        string      `bson:"_id,omitempty" json:"uid"`
	Coordinate *Coordinate `bson:"coordinate,omitempty" json:"coordinate,omitempty"`
	Visible    bool        `bson:"visible" json:"visible"`
	LastSeen   int64       `bson:"lastSeen" json:"lastSeen"`
}
