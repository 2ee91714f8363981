package domain

import (
	"time"
)

type Player struct {
	QueriedAt time.Time

	SteamID string

	Username  string
	GameCount int

	OwnedGames []OwnedGame
	FriendIDs  []string

	// Nil until the related collection has been persisted
	GamesStoredAt   *time.Time
	FriendsStoredAt *time.Time
}

type OwnedGame struct {
	AppID           string
	Name            string
	PlaytimeMinutes int
}

// A player is complete once the primary record and every related collection is stored.
// Incomplete players exist as friend stubs or as leftovers from an interrupted fetch.
func (p *Player) Complete() bool {
	if p == nil {
		return false
	}
	return p.SteamID != "" && p.GamesStoredAt != nil && p.FriendsStoredAt != nil
}
