package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/steambuddy/steambuddy/internal/adapters/playerrepository"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/strutils"
)

const MAX_LIST_SIZE = 100

var ErrListTooLong = errors.New("too many players requested")

// Return the stored players among the given steam ids. Missing players are skipped and nothing is dispatched.
type ListPlayers func(ctx context.Context, steamIDs []string) ([]domain.Player, error)

func BuildListPlayers(repo playerrepository.PlayerRepository) ListPlayers {
	return func(ctx context.Context, steamIDs []string) ([]domain.Player, error) {
		if len(steamIDs) > MAX_LIST_SIZE {
			return nil, fmt.Errorf("%w: %d > %d", ErrListTooLong, len(steamIDs), MAX_LIST_SIZE)
		}

		normalized := make([]string, 0, len(steamIDs))
		for _, steamID := range steamIDs {
			normalizedID, err := strutils.NormalizeSteamID(steamID)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSteamID, err)
			}
			normalized = append(normalized, normalizedID)
		}

		players, err := repo.FindPlayers(ctx, normalized)
		if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("failed to find players: %w", err)
		}

		return players, nil
	}
}
