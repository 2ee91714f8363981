package ports

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/steambuddy/steambuddy/internal/apiresult"
	"github.com/steambuddy/steambuddy/internal/app"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/ratelimiting"
	"github.com/steambuddy/steambuddy/internal/reporting"
)

const INVALID_LIST_MESSAGE = "Invalid list of Steam IDs"
const DATABASE_ERROR_MESSAGE = "Having trouble accessing the database"

// The list is a base64 encoded JSON array of steam ids. Both the url safe and the
// standard alphabet are accepted, with or without padding.
func decodeSteamIDList(raw string) ([]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("missing list")
	}

	trimmed := strings.TrimRight(raw, "=")

	var decoded []byte
	var err error
	for _, encoding := range []*base64.Encoding{base64.RawURLEncoding, base64.RawStdEncoding} {
		decoded, err = encoding.DecodeString(trimmed)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 list: %w", err)
	}

	var steamIDs []string
	err = json.Unmarshal(decoded, &steamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal list: %w", err)
	}

	return steamIDs, nil
}

func MakeListPlayersHandler(
	listPlayers app.ListPlayers,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(2),
		ratelimiting.BurstSize(120),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("listplayers"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("listplayers"),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, writeRateLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		steamIDs, err := decodeSteamIDList(r.URL.Query().Get("list"))
		if err != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid list", "error", err.Error())
			writeAPIResult(ctx, w, apiresult.MustAPIResult(apiresult.StatusBadRequest, INVALID_LIST_MESSAGE))
			return
		}
		ctx = logging.AddMetaToContext(ctx, slog.Int("listLength", len(steamIDs)))

		players, err := listPlayers(ctx, steamIDs)
		if errors.Is(err, app.ErrListTooLong) || errors.Is(err, domain.ErrInvalidSteamID) {
			logging.FromContext(ctx).InfoContext(ctx, "Rejected list", "error", err.Error())
			writeAPIResult(ctx, w, apiresult.MustAPIResult(apiresult.StatusBadRequest, INVALID_LIST_MESSAGE))
			return
		} else if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			writeAPIResult(ctx, w, apiresult.MustAPIResult(apiresult.StatusInternalError, DATABASE_ERROR_MESSAGE))
			return
		}

		writeAPIResult(ctx, w, apiresult.MustAPIResult(apiresult.StatusOK, players))
	}

	return middleware(handler)
}
