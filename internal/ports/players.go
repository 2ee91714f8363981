package ports

import (
	"log/slog"
	"net/http"

	"github.com/steambuddy/steambuddy/internal/apiresult"
	"github.com/steambuddy/steambuddy/internal/app"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/ratelimiting"
	"github.com/steambuddy/steambuddy/internal/reporting"
)

func MakeIngestPlayerHandler(
	ingestPlayer app.IngestPlayer,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	// The limiters live as long as the handler
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(4),
		ratelimiting.BurstSize(240),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	// NOTE: Rate limiting based on user controlled value
	steamIDLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(60),
	)
	steamIDRateLimiter := ratelimiting.NewRequestBasedRateLimiter(steamIDLimiter, ratelimiting.SteamIDKeyFunc)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("ingestplayer"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("ingestplayer"),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, writeRateLimitExceeded),
		NewRateLimitMiddleware(steamIDRateLimiter, writeRateLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		remoteID := r.PathValue("remote_id")

		ctx = logging.AddMetaToContext(ctx, slog.String("remoteId", remoteID))
		ctx = reporting.AddSteamIDToContext(ctx, remoteID)

		// NOTE: IngestPlayer implementations handle their own error reporting
		outcome := ingestPlayer(ctx, remoteID)

		result := apiresult.Classify(outcome)
		logging.FromContext(ctx).InfoContext(ctx, "Ingested player", "status", result.Status())

		writeAPIResult(ctx, w, result)
	}

	return middleware(handler)
}
