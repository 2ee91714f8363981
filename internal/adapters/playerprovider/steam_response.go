package playerprovider

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/reporting"
	"github.com/steambuddy/steambuddy/internal/strutils"
)

type steamPlayerSummariesResponse struct {
	Response struct {
		Players []SteamPlayerSummary `json:"players"`
	} `json:"response"`
}

type SteamPlayerSummary struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
}

type steamOwnedGamesResponse struct {
	Response struct {
		// Missing when the game details of the profile are private
		GameCount *int             `json:"game_count,omitempty"`
		Games     []SteamOwnedGame `json:"games"`
	} `json:"response"`
}

type SteamOwnedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
}

type steamFriendListResponse struct {
	FriendsList struct {
		Friends []SteamFriend `json:"friends"`
	} `json:"friendslist"`
}

type SteamFriend struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
	FriendSince  int64  `json:"friend_since"`
}

type SteamResponse struct {
	Data       []byte
	StatusCode int
}

func checkForSteamError(statusCode int, data []byte) error {
	if statusCode == 200 {
		// Check for HTML response
		if len(data) > 0 && data[0] == '<' {
			return fmt.Errorf("Steam API returned HTML (%w)", domain.ErrTemporarilyUnavailable)
		}

		return nil
	}

	err := fmt.Errorf("Steam API returned unsupported status code: %d", statusCode)

	switch statusCode {
	case 403:
		err = fmt.Errorf("Steam API rejected the api key: %d", statusCode)
	case 429:
		err = fmt.Errorf("Steam ratelimit exceeded (%w)", domain.ErrTemporarilyUnavailable)
	case 500, 502, 503, 504:
		err = fmt.Errorf("Steam returned status code %d (%s) (%w)", statusCode, http.StatusText(statusCode), domain.ErrTemporarilyUnavailable)
	}

	return err
}

func reportSteamError(ctx context.Context, err error, steamID string, endpoint string, response SteamResponse) {
	reporting.Report(
		ctx,
		err,
		map[string]string{
			"steamId":    steamID,
			"endpoint":   endpoint,
			"statusCode": fmt.Sprint(response.StatusCode),
			"data":       string(response.Data),
		},
	)
	logging.FromContext(ctx).ErrorContext(
		ctx,
		"Got response from steam",
		"status", "error",
		"endpoint", endpoint,
		"error", err.Error(),
		"statusCode", response.StatusCode,
		"contentLength", len(response.Data),
	)
}

// Combine the responses of the three Steam endpoints into a player.
// A private profile yields a player without games and friends.
func SteamAPIResponsesToPlayer(
	ctx context.Context,
	steamID string,
	queriedAt time.Time,
	summaries SteamResponse,
	ownedGames SteamResponse,
	friendList SteamResponse,
) (*domain.Player, error) {
	summary, err := steamSummaryFromResponse(ctx, steamID, summaries)
	if err != nil {
		// NOTE: steamSummaryFromResponse handles its own error reporting
		return nil, err
	}

	games, gameCount, err := steamOwnedGamesToDomain(ctx, steamID, ownedGames)
	if err != nil {
		// NOTE: steamOwnedGamesToDomain handles its own error reporting
		return nil, err
	}

	friendIDs, err := steamFriendListToDomain(ctx, steamID, friendList)
	if err != nil {
		// NOTE: steamFriendListToDomain handles its own error reporting
		return nil, err
	}

	logging.FromContext(ctx).InfoContext(
		ctx,
		"Got response from steam",
		"status", "success",
		"games", len(games),
		"friends", len(friendIDs),
	)

	return &domain.Player{
		QueriedAt:  queriedAt,
		SteamID:    steamID,
		Username:   summary.PersonaName,
		GameCount:  gameCount,
		OwnedGames: games,
		FriendIDs:  friendIDs,
	}, nil
}

// Returns domain.ErrPlayerNotFound when Steam has no account for the steam id
func steamSummaryFromResponse(ctx context.Context, steamID string, response SteamResponse) (*SteamPlayerSummary, error) {
	if err := checkForSteamError(response.StatusCode, response.Data); err != nil {
		reportSteamError(ctx, err, steamID, "GetPlayerSummaries", response)
		return nil, err
	}

	parsed := new(steamPlayerSummariesResponse)
	if err := json.Unmarshal(response.Data, parsed); err != nil {
		err = fmt.Errorf("failed to parse player summaries: %w", err)
		reportSteamError(ctx, err, steamID, "GetPlayerSummaries", response)
		return nil, err
	}

	for _, summary := range parsed.Response.Players {
		if summary.SteamID == steamID {
			return &summary, nil
		}
	}

	logging.FromContext(ctx).InfoContext(ctx, "Player not found")
	return nil, domain.ErrPlayerNotFound
}

func steamOwnedGamesToDomain(ctx context.Context, steamID string, response SteamResponse) ([]domain.OwnedGame, int, error) {
	if err := checkForSteamError(response.StatusCode, response.Data); err != nil {
		reportSteamError(ctx, err, steamID, "GetOwnedGames", response)
		return nil, 0, err
	}

	parsed := new(steamOwnedGamesResponse)
	if err := json.Unmarshal(response.Data, parsed); err != nil {
		err = fmt.Errorf("failed to parse owned games: %w", err)
		reportSteamError(ctx, err, steamID, "GetOwnedGames", response)
		return nil, 0, err
	}

	games := make([]domain.OwnedGame, 0, len(parsed.Response.Games))
	for _, game := range parsed.Response.Games {
		games = append(games, domain.OwnedGame{
			AppID:           strconv.FormatInt(game.AppID, 10),
			Name:            game.Name,
			PlaytimeMinutes: game.PlaytimeForever,
		})
	}
	slices.SortFunc(games, func(a, b domain.OwnedGame) int {
		if c := cmp.Compare(b.PlaytimeMinutes, a.PlaytimeMinutes); c != 0 {
			return c
		}
		return cmp.Compare(a.AppID, b.AppID)
	})

	gameCount := len(games)
	if parsed.Response.GameCount != nil {
		gameCount = *parsed.Response.GameCount
	}

	return games, gameCount, nil
}

func steamFriendListToDomain(ctx context.Context, steamID string, response SteamResponse) ([]string, error) {
	// Private friend lists are reported as unauthorized
	if response.StatusCode == 401 {
		logging.FromContext(ctx).InfoContext(ctx, "Friend list is private")
		return []string{}, nil
	}

	if err := checkForSteamError(response.StatusCode, response.Data); err != nil {
		reportSteamError(ctx, err, steamID, "GetFriendList", response)
		return nil, err
	}

	parsed := new(steamFriendListResponse)
	if err := json.Unmarshal(response.Data, parsed); err != nil {
		err = fmt.Errorf("failed to parse friend list: %w", err)
		reportSteamError(ctx, err, steamID, "GetFriendList", response)
		return nil, err
	}

	friendIDs := make([]string, 0, len(parsed.FriendsList.Friends))
	for _, friend := range parsed.FriendsList.Friends {
		friendID, err := strutils.NormalizeSteamID(friend.SteamID)
		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "Skipping friend with invalid steam id", "error", err)
			continue
		}
		friendIDs = append(friendIDs, friendID)
	}
	slices.Sort(friendIDs)

	return slices.Compact(friendIDs), nil
}
