package models

// Candidate is derived at resolution time from a LocationRecord, a
// UserProfile, a PresenceRecord and the viewer's interests. It is
// never persisted. The marker deconfliction engine may rewrite
// Coordinate to a display-only offset and tag the candidate with
// OriginalGroupKey; distance and tier are never touched after
// resolution.
type Candidate struct {
	UID              string     `json:"id"`
	Name             string     `json:"name"`
	Avatar           string     `json:"avatar"`
	Bio              string     `json:"bio"`
	Coordinate       Coordinate `json:"coordinate"`
	DistanceMeters   float64    `json:"distanceMeters"`
	Interests        []string   `json:"interests"`
	SharedInterests  []string   `json:"sharedInterests"`
	SharedCount      int        `json:"sharedCount"`
	Tier             Tier       `json:"tier"`
	Online           bool       `json:"online"`
	OriginalGroupKey string     `json:"originalGroupKey,omitempty"`
}
