package playerprovider

import (
	"context"

	"github.com/steambuddy/steambuddy/internal/domain"
)

type PlayerProvider interface {
	// Raises domain.ErrPlayerNotFound if Steam has no account for the given steam id
	//
	// Raises domain.ErrTemporarilyUnavailable if the provider implementation receives an error believed to be intermittent. The call may be retried later.
	GetPlayer(ctx context.Context, steamID string) (*domain.Player, error)
}
