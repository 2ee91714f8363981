package domaintest

import (
	"time"

	"github.com/steambuddy/steambuddy/internal/domain"
)

type playerBuilder struct {
	player *domain.Player
}

func (pb *playerBuilder) WithUsername(username string) *playerBuilder {
	pb.player.Username = username
	return pb
}

func (pb *playerBuilder) WithOwnedGames(games ...domain.OwnedGame) *playerBuilder {
	pb.player.OwnedGames = games
	pb.player.GameCount = len(games)
	return pb
}

func (pb *playerBuilder) WithFriends(friendIDs ...string) *playerBuilder {
	pb.player.FriendIDs = friendIDs
	return pb
}

// Mark the related collections as persisted
func (pb *playerBuilder) WithStoredAt(storedAt time.Time) *playerBuilder {
	gamesStoredAt := storedAt
	friendsStoredAt := storedAt
	pb.player.GamesStoredAt = &gamesStoredAt
	pb.player.FriendsStoredAt = &friendsStoredAt
	return pb
}

func (pb *playerBuilder) Build() domain.Player {
	return *pb.player
}

func (pb *playerBuilder) BuildPtr() *domain.Player {
	// Make a copy, so further mutations to the builder don't affect the returned player
	player := pb.Build()
	return &player
}

func NewPlayerBuilder(steamID string, queriedAt time.Time) *playerBuilder {
	player := &domain.Player{
		QueriedAt:  queriedAt,
		SteamID:    steamID,
		Username:   "player",
		OwnedGames: []domain.OwnedGame{},
		FriendIDs:  []string{},
	}
	return &playerBuilder{
		player: player,
	}
}

func NewOwnedGame(appID string, name string, playtimeMinutes int) domain.OwnedGame {
	return domain.OwnedGame{
		AppID:           appID,
		Name:            name,
		PlaytimeMinutes: playtimeMinutes,
	}
}
