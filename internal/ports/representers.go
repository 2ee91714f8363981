package ports

import "github.com/steambuddy/steambuddy/internal/domain"

type ownedGameRepresentation struct {
	AppID           string `json:"app_id"`
	Name            string `json:"name"`
	PlaytimeMinutes int    `json:"playtime_minutes"`
}

type playerRepresentation struct {
	RemoteID   string                    `json:"remote_id"`
	Username   string                    `json:"username"`
	GameCount  int                       `json:"game_count"`
	OwnedGames []ownedGameRepresentation `json:"owned_games"`
	FriendIDs  []string                  `json:"friend_ids"`
}

type playersListRepresentation struct {
	Players []playerRepresentation `json:"players"`
}

func newPlayerRepresentation(player domain.Player) playerRepresentation {
	ownedGames := make([]ownedGameRepresentation, 0, len(player.OwnedGames))
	for _, game := range player.OwnedGames {
		ownedGames = append(ownedGames, ownedGameRepresentation{
			AppID:           game.AppID,
			Name:            game.Name,
			PlaytimeMinutes: game.PlaytimeMinutes,
		})
	}

	friendIDs := player.FriendIDs
	if friendIDs == nil {
		friendIDs = []string{}
	}

	return playerRepresentation{
		RemoteID:   player.SteamID,
		Username:   player.Username,
		GameCount:  player.GameCount,
		OwnedGames: ownedGames,
		FriendIDs:  friendIDs,
	}
}

func newPlayersListRepresentation(players []domain.Player) playersListRepresentation {
	representations := make([]playerRepresentation, 0, len(players))
	for _, player := range players {
		representations = append(representations, newPlayerRepresentation(player))
	}
	return playersListRepresentation{
		Players: representations,
	}
}
