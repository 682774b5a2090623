package models

import (
	"encoding/json"
	"fmt"
)

// Tier classifies how strongly a nearby user's interests overlap the
// viewer's. The order is total: Soulmate > BestFriend > Friend > Buddy > Casual.
type Tier int

const (
	TierCasual Tier = iota
	TierBuddy
	TierFriend
	TierBestFriend
	TierSoulmate
)

// Shared-interest thresholds. Zero shared interests still maps to
// Casual: everyone within radius gets a tier.
const (
	soulmateThreshold   = 15
	bestFriendThreshold = 8
	friendThreshold     = 5
	buddyThreshold      = 3
)

// TierForSharedCount maps a shared-interest count onto a Tier.
func TierForSharedCount(n int) Tier {
	switch {
	case n >= soulmateThreshold:
		return TierSoulmate
	case n >= bestFriendThreshold:
		return TierBestFriend
	case n >= friendThreshold:
		return TierFriend
	case n >= buddyThreshold:
		return TierBuddy
	default:
		return TierCasual
	}
}

// Rank returns the tier's position in the total order, higher is closer.
func (t Tier) Rank() int { return int(t) }

func (t Tier) String() string {
	switch t {
	case TierSoulmate:
		return "soulmate"
	case TierBestFriend:
		return "best_friend"
	case TierFriend:
		return "friend"
	case TierBuddy:
		return "buddy"
	default:
		return "casual"
	}
}

// TierFromString parses the wire form produced by String.
func TierFromString(s string) (Tier, error) {
	switch s {
	case "soulmate":
		return TierSoulmate, nil
	case "best_friend":
		return TierBestFriend, nil
	case "friend":
		return TierFriend, nil
	case "buddy":
		return TierBuddy, nil
	case "casual":
		return TierCasual, nil
	}
	return TierCasual, fmt.Errorf("unknown tier %q", s)
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := TierFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
