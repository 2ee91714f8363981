package playerrepository

import (
	"context"

	"github.com/steambuddy/steambuddy/internal/domain"
)

type PlayerRepository interface {
	// Returns domain.ErrPlayerNotFound if no player is stored for the given steam id.
	// Incomplete players (friend stubs, interrupted writes) are returned as-is.
	FindPlayer(ctx context.Context, steamID string) (*domain.Player, error)

	// Players that are not stored are left out of the result
	FindPlayers(ctx context.Context, steamIDs []string) ([]domain.Player, error)

	// Find-or-create keyed on the steam id. Owned games and friends are replaced, friends are
	// created as stubs if unknown. Everything is written atomically, and a write older than the
	// stored data is ignored. Returns the player as stored after the write.
	UpsertPlayerWithRelated(ctx context.Context, player *domain.Player) (*domain.Player, error)
}
