package playerrepository

import (
	"fmt"
	"slices"

	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/strutils"
)

func validatePlayerForUpsert(player *domain.Player) error {
	if player == nil {
		return fmt.Errorf("cannot upsert nil player")
	}

	if !strutils.SteamIDIsNormalized(player.SteamID) {
		return fmt.Errorf("steam id is not normalized")
	}

	if player.QueriedAt.IsZero() {
		return fmt.Errorf("player is missing queried at")
	}

	for _, friendID := range player.FriendIDs {
		if !strutils.SteamIDIsNormalized(friendID) {
			return fmt.Errorf("friend steam id is not normalized: %w", domain.ErrInvalidSteamID)
		}
	}

	for _, game := range player.OwnedGames {
		if game.AppID == "" {
			return fmt.Errorf("owned game is missing app id")
		}
	}

	return nil
}

// Splits the owned games into columns for unnest. Duplicate app ids keep the last entry.
func ownedGameColumns(games []domain.OwnedGame) (appIDs []string, names []string, playtimes []int64) {
	indexByAppID := make(map[string]int, len(games))
	appIDs = make([]string, 0, len(games))
	names = make([]string, 0, len(games))
	playtimes = make([]int64, 0, len(games))

	for _, game := range games {
		if index, ok := indexByAppID[game.AppID]; ok {
			names[index] = game.Name
			playtimes[index] = int64(game.PlaytimeMinutes)
			continue
		}
		indexByAppID[game.AppID] = len(appIDs)
		appIDs = append(appIDs, game.AppID)
		names = append(names, game.Name)
		playtimes = append(playtimes, int64(game.PlaytimeMinutes))
	}

	return appIDs, names, playtimes
}

// Sorted and deduplicated, without the player itself
func uniqueFriendIDs(player *domain.Player) []string {
	friendIDs := make([]string, 0, len(player.FriendIDs))
	for _, friendID := range player.FriendIDs {
		if friendID == player.SteamID {
			continue
		}
		friendIDs = append(friendIDs, friendID)
	}
	slices.Sort(friendIDs)
	return slices.Compact(friendIDs)
}

// The player and its friends, sorted. Every upsert takes its row locks in this order.
func lockOrder(steamID string, friendIDs []string) []string {
	ids := make([]string, 0, len(friendIDs)+1)
	ids = append(ids, steamID)
	ids = append(ids, friendIDs...)
	slices.Sort(ids)
	return slices.Compact(ids)
}
