package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/steambuddy/steambuddy/internal/adapters/cache"
	"github.com/steambuddy/steambuddy/internal/adapters/fetchqueue"
	"github.com/steambuddy/steambuddy/internal/adapters/playerprovider"
	"github.com/steambuddy/steambuddy/internal/adapters/playerrepository"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
)

type FetchAndStorePlayer func(ctx context.Context, steamID string) (*domain.Player, error)

// Fetch the player from Steam and store it with its games and friends.
// Concurrent and recently completed fetches for the same player share one result through the cache.
func BuildFetchAndStorePlayer(fetchCache cache.Cache[*domain.Player], provider playerprovider.PlayerProvider, repo playerrepository.PlayerRepository) FetchAndStorePlayer {
	return func(ctx context.Context, steamID string) (*domain.Player, error) {
		player, err := cache.GetOrCreate(ctx, fetchCache, steamID, func() (*domain.Player, error) {
			return fetchAndStorePlayer(ctx, provider, repo, steamID)
		})
		if err != nil {
			// NOTE: fetchAndStorePlayer handles its own error reporting
			return nil, fmt.Errorf("failed to fetch and store player: %w", err)
		}
		return player, nil
	}
}

func fetchAndStorePlayer(ctx context.Context, provider playerprovider.PlayerProvider, repo playerrepository.PlayerRepository, steamID string) (*domain.Player, error) {
	player, err := provider.GetPlayer(ctx, steamID)
	if err != nil {
		// NOTE: PlayerProvider implementations handle their own error reporting
		return nil, fmt.Errorf("could not get player: %w", err)
	}

	stored, err := repo.UpsertPlayerWithRelated(ctx, player)
	if err != nil {
		// NOTE: PlayerRepository implementations handle their own error reporting
		return nil, fmt.Errorf("could not store player: %w", err)
	}

	return stored, nil
}

// Players that don't exist on Steam are dropped instead of failing the job
func BuildFetchJobHandler(fetchAndStore FetchAndStorePlayer) fetchqueue.JobHandler {
	return func(ctx context.Context, job fetchqueue.FetchJob) error {
		player, err := fetchAndStore(ctx, job.SteamID)
		if errors.Is(err, domain.ErrPlayerNotFound) || errors.Is(err, domain.ErrInvalidSteamID) {
			logging.FromContext(ctx).InfoContext(ctx, "Dropping fetch job for unknown player", "error", err.Error())
			return nil
		}
		if err != nil {
			return err
		}

		logging.FromContext(ctx).InfoContext(
			ctx,
			"Stored player",
			"complete", player.Complete(),
			"games", len(player.OwnedGames),
			"friends", len(player.FriendIDs),
		)
		return nil
	}
}
