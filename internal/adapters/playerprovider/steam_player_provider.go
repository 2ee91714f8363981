package playerprovider

import (
	"context"
	"fmt"

	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/reporting"
	"github.com/steambuddy/steambuddy/internal/strutils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type steamPlayerProvider struct {
	steamAPI SteamAPI

	metrics steamPlayerProviderMetricsCollection
}

func NewSteamPlayerProvider(steamAPI SteamAPI) (PlayerProvider, error) {
	meter := otel.Meter("playerprovider/steam_provider")
	metrics, err := setupSteamPlayerProviderMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &steamPlayerProvider{
		steamAPI: steamAPI,

		metrics: metrics,
	}, nil
}

func (s *steamPlayerProvider) GetPlayer(ctx context.Context, steamID string) (*domain.Player, error) {
	if !strutils.SteamIDIsNormalized(steamID) {
		logging.FromContext(ctx).ErrorContext(ctx, "Steam ID is not normalized", "steamId", steamID)
		err := fmt.Errorf("steam id is not normalized: %w", domain.ErrInvalidSteamID)
		reporting.Report(ctx, err, map[string]string{
			"steamId": steamID,
		})
		return nil, err
	}

	summariesData, summariesStatus, queriedAt, err := s.steamAPI.GetPlayerSummaries(ctx, steamID)
	if err != nil {
		// NOTE: SteamAPI implementations handle their own error reporting
		return nil, fmt.Errorf("failed to get player summaries: %w", err)
	}

	// Unknown accounts cost a single request
	_, err = steamSummaryFromResponse(ctx, steamID, SteamResponse{Data: summariesData, StatusCode: summariesStatus})
	if err != nil {
		// NOTE: steamSummaryFromResponse handles its own error reporting
		s.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("got_player", false)))
		return nil, fmt.Errorf("failed to get player summary: %w", err)
	}

	gamesData, gamesStatus, _, err := s.steamAPI.GetOwnedGames(ctx, steamID)
	if err != nil {
		// NOTE: SteamAPI implementations handle their own error reporting
		return nil, fmt.Errorf("failed to get owned games: %w", err)
	}

	friendsData, friendsStatus, _, err := s.steamAPI.GetFriendList(ctx, steamID)
	if err != nil {
		// NOTE: SteamAPI implementations handle their own error reporting
		return nil, fmt.Errorf("failed to get friend list: %w", err)
	}

	player, err := SteamAPIResponsesToPlayer(
		ctx,
		steamID,
		queriedAt,
		SteamResponse{Data: summariesData, StatusCode: summariesStatus},
		SteamResponse{Data: gamesData, StatusCode: gamesStatus},
		SteamResponse{Data: friendsData, StatusCode: friendsStatus},
	)
	if err != nil {
		// NOTE: SteamAPIResponsesToPlayer handles its own error reporting
		return nil, fmt.Errorf("failed to convert steam api responses to player: %w", err)
	}

	s.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("got_player", true)))

	return player, nil
}

type steamPlayerProviderMetricsCollection struct {
	requestCount metric.Int64Counter
}

func setupSteamPlayerProviderMetrics(meter metric.Meter) (steamPlayerProviderMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("playerprovider/steam_provider/returned_players")
	if err != nil {
		return steamPlayerProviderMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}

	return steamPlayerProviderMetricsCollection{
		requestCount: requestCount,
	}, nil
}
