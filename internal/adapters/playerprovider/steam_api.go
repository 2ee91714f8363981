package playerprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/steambuddy/steambuddy/internal/config"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/reporting"
	"golang.org/x/time/rate"
)

const USER_AGENT = "steambuddy/0.1.0 (+https://github.com/steambuddy/steambuddy)"

const STEAM_API_BASE_URL = "https://api.steampowered.com"

// The Steam Web API allows 100k calls per day per key
const STEAM_REQUESTS_PER_SECOND = 1
const STEAM_REQUEST_BURST = 3

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SteamAPI interface {
	GetPlayerSummaries(ctx context.Context, steamID string) ([]byte, int, time.Time, error)
	GetOwnedGames(ctx context.Context, steamID string) ([]byte, int, time.Time, error)
	GetFriendList(ctx context.Context, steamID string) ([]byte, int, time.Time, error)
}

type mockedSteamAPI struct{}

func (steamAPI *mockedSteamAPI) GetPlayerSummaries(ctx context.Context, steamID string) ([]byte, int, time.Time, error) {
	return fmt.Appendf(nil, `{"response":{"players":[{"steamid":"%s","personaname":"player-%s","communityvisibilitystate":3}]}}`, steamID, steamID[len(steamID)-4:]), 200, time.Now(), nil
}

func (steamAPI *mockedSteamAPI) GetOwnedGames(ctx context.Context, steamID string) ([]byte, int, time.Time, error) {
	return []byte(`{"response":{"game_count":2,"games":[{"appid":570,"name":"Dota 2","playtime_forever":1200},{"appid":440,"name":"Team Fortress 2","playtime_forever":30}]}}`), 200, time.Now(), nil
}

func (steamAPI *mockedSteamAPI) GetFriendList(ctx context.Context, steamID string) ([]byte, int, time.Time, error) {
	return []byte(`{"friendslist":{"friends":[]}}`), 200, time.Now(), nil
}

type steamAPIImpl struct {
	httpClient HttpClient
	apiKey     string
	baseURL    string

	limiter *rate.Limiter
	nowFunc func() time.Time
}

func (steamAPI *steamAPIImpl) GetPlayerSummaries(ctx context.Context, steamID string) ([]byte, int, time.Time, error) {
	return steamAPI.get(ctx, "/ISteamUser/GetPlayerSummaries/v2/", url.Values{
		"steamids": {steamID},
	})
}

func (steamAPI *steamAPIImpl) GetOwnedGames(ctx context.Context, steamID string) ([]byte, int, time.Time, error) {
	return steamAPI.get(ctx, "/IPlayerService/GetOwnedGames/v1/", url.Values{
		"steamid":                   {steamID},
		"include_appinfo":           {"1"},
		"include_played_free_games": {"1"},
	})
}

func (steamAPI *steamAPIImpl) GetFriendList(ctx context.Context, steamID string) ([]byte, int, time.Time, error) {
	return steamAPI.get(ctx, "/ISteamUser/GetFriendList/v1/", url.Values{
		"steamid":      {steamID},
		"relationship": {"friend"},
	})
}

func (steamAPI *steamAPIImpl) get(ctx context.Context, path string, query url.Values) ([]byte, int, time.Time, error) {
	logger := logging.FromContext(ctx)

	err := steamAPI.limiter.Wait(ctx)
	if err != nil {
		err := fmt.Errorf("failed waiting for steam api rate limit: %w", err)
		logger.ErrorContext(ctx, err.Error())
		reporting.Report(ctx, err, map[string]string{
			"path": path,
		})
		return []byte{}, -1, time.Time{}, err
	}

	query.Set("key", steamAPI.apiKey)
	query.Set("format", "json")
	requestURL := fmt.Sprintf("%s%s?%s", steamAPI.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		logger.ErrorContext(ctx, err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}

	req.Header.Set("User-Agent", USER_AGENT)

	start := steamAPI.nowFunc()
	resp, err := steamAPI.httpClient.Do(req)
	if err != nil {
		err := transportError(ctx, "failed to send request", err)
		logger.ErrorContext(ctx, err.Error())
		reporting.Report(ctx, err, map[string]string{
			"path": path,
		})
		return []byte{}, -1, time.Time{}, err
	}

	queriedAt := steamAPI.nowFunc()

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := transportError(ctx, "failed to read response body", err)
		logger.ErrorContext(ctx, err.Error())
		reporting.Report(ctx, err, map[string]string{
			"path": path,
		})
		return []byte{}, -1, time.Time{}, err
	}
	logger.InfoContext(ctx, "steam request completed", "path", path, "status", resp.StatusCode, "duration", queriedAt.Sub(start).String())

	return data, resp.StatusCode, queriedAt, nil
}

// Timeouts and dropped connections are worth retrying unless the caller gave up
func transportError(ctx context.Context, message string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrTemporarilyUnavailable, message, err)
}

func NewSteamAPI(httpClient HttpClient, apiKey string, nowFunc func() time.Time) SteamAPI {
	return &steamAPIImpl{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    STEAM_API_BASE_URL,

		limiter: rate.NewLimiter(rate.Limit(STEAM_REQUESTS_PER_SECOND), STEAM_REQUEST_BURST),
		nowFunc: nowFunc,
	}
}

func NewSteamAPIOrMock(config config.Config, httpClient HttpClient) (SteamAPI, error) {
	if config.SteamAPIKey() != "" {
		return NewSteamAPI(httpClient, config.SteamAPIKey(), time.Now), nil
	}
	if config.IsDevelopment() {
		return &mockedSteamAPI{}, nil
	}
	return nil, fmt.Errorf("Missing Steam API key in non-development environment")
}
