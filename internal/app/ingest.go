package app

import (
	"context"
	"errors"
	"time"

	"github.com/steambuddy/steambuddy/internal/adapters/fetchqueue"
	"github.com/steambuddy/steambuddy/internal/adapters/playerrepository"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/strutils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Return the stored player if it is complete, otherwise schedule a fetch.
// Never waits for the fetch and never writes to the store.
type IngestPlayer func(ctx context.Context, steamID string) IngestOutcome

func BuildIngestPlayer(repo playerrepository.PlayerRepository, dispatcher fetchqueue.Dispatcher, nowFunc func() time.Time) IngestPlayer {
	outcomes, err := otel.Meter("app/ingest").Int64Counter("app/ingest/outcomes")
	if err != nil {
		outcomes = noop.Int64Counter{}
	}

	ingest := func(ctx context.Context, steamID string) IngestOutcome {
		logger := logging.FromContext(ctx)

		if !strutils.SteamIDIsNormalized(steamID) {
			logger.InfoContext(ctx, "Invalid steam id")
			return Failed{Origin: FailureOriginLookup, Reason: INVALID_STEAM_ID_REASON}
		}

		player, err := repo.FindPlayer(ctx, steamID)
		if err != nil && !errors.Is(err, domain.ErrPlayerNotFound) {
			// NOTE: PlayerRepository implementations handle their own error reporting
			logger.ErrorContext(ctx, "Failed to look up player", "error", err.Error())
			return Failed{Origin: FailureOriginStore, Reason: STORE_FAILURE_REASON}
		}

		if err == nil && player.Complete() {
			return Found{Player: *player}
		}

		// Don't let a cancelled request abort the enqueue halfway
		enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 1*time.Second)
		defer cancel()

		err = dispatcher.Enqueue(enqueueCtx, fetchqueue.NewFetchJob(steamID, nowFunc()))
		if err != nil {
			// NOTE: Dispatcher implementations handle their own error reporting
			logger.ErrorContext(ctx, "Failed to dispatch player fetch", "error", err.Error())
			return Failed{Origin: FailureOriginDispatch, Reason: DISPATCH_FAILURE_REASON}
		}

		logger.InfoContext(ctx, "Dispatched player fetch", "storedIncomplete", player != nil)
		return Dispatched{SteamID: steamID}
	}

	return func(ctx context.Context, steamID string) IngestOutcome {
		outcome := ingest(ctx, steamID)
		outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcomeKind(outcome))))
		return outcome
	}
}
