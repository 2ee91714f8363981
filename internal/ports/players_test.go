package ports_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/steambuddy/steambuddy/internal/app"
	"github.com/steambuddy/steambuddy/internal/domaintest"
	"github.com/steambuddy/steambuddy/internal/ports"
	"github.com/stretchr/testify/require"
)

const STEAM_ID = "76561198012078200"

func newTestDependencies(t *testing.T) (*slog.Logger, *ports.DomainSuffixes, func(http.HandlerFunc) http.HandlerFunc) {
	t.Helper()

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	allowedOrigins, err := ports.NewDomainSuffixes("example.com", "test.com")
	require.NoError(t, err)
	noopMiddleware := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			h(w, r)
		}
	}
	return testLogger, allowedOrigins, noopMiddleware
}

func TestMakeIngestPlayerHandler(t *testing.T) {
	t.Parallel()

	testLogger, allowedOrigins, noopMiddleware := newTestDependencies(t)

	makeIngestPlayer := func(t *testing.T, expectedSteamID string, outcome app.IngestOutcome) (app.IngestPlayer, *bool) {
		called := false
		return func(ctx context.Context, steamID string) app.IngestOutcome {
			t.Helper()
			require.Equal(t, expectedSteamID, steamID)

			called = true

			return outcome
		}, &called
	}

	makeRequest := func(method string, remoteID string) *http.Request {
		req := httptest.NewRequest(method, "/api/v1/players/"+remoteID, nil)
		req.SetPathValue("remote_id", remoteID)
		return req
	}

	player := domaintest.NewPlayerBuilder(STEAM_ID, time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)).
		WithUsername("gaben").
		WithOwnedGames(
			domaintest.NewOwnedGame("570", "Dota 2", 1200),
			domaintest.NewOwnedGame("440", "Team Fortress 2", 300),
		).
		Build()

	cases := []struct {
		name         string
		method       string
		outcome      app.IngestOutcome
		expectedCode int
		expectedJSON string
	}{
		{
			name:         "found",
			method:       http.MethodPost,
			outcome:      app.Found{Player: player},
			expectedCode: http.StatusCreated,
			expectedJSON: `{
				"remote_id": "76561198012078200",
				"username": "gaben",
				"game_count": 2,
				"owned_games": [
					{"app_id": "570", "name": "Dota 2", "playtime_minutes": 1200},
					{"app_id": "440", "name": "Team Fortress 2", "playtime_minutes": 300}
				],
				"friend_ids": []
			}`,
		},
		{
			name:         "found with GET",
			method:       http.MethodGet,
			outcome:      app.Found{Player: player},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "dispatched",
			method:       http.MethodPost,
			outcome:      app.Dispatched{SteamID: STEAM_ID},
			expectedCode: http.StatusAccepted,
			expectedJSON: `{"status":"processing","message":"Loading the player info"}`,
		},
		{
			name:         "invalid steam id",
			method:       http.MethodPost,
			outcome:      app.Failed{Origin: app.FailureOriginLookup, Reason: app.INVALID_STEAM_ID_REASON},
			expectedCode: http.StatusNotFound,
			expectedJSON: `{"status":"not_found","message":"Invalid Steam ID"}`,
		},
		{
			name:         "store failure",
			method:       http.MethodPost,
			outcome:      app.Failed{Origin: app.FailureOriginStore, Reason: app.STORE_FAILURE_REASON},
			expectedCode: http.StatusInternalServerError,
			expectedJSON: `{"status":"internal_error","message":"Having trouble accessing the database"}`,
		},
		{
			name:         "dispatch failure",
			method:       http.MethodPost,
			outcome:      app.Failed{Origin: app.FailureOriginDispatch, Reason: app.DISPATCH_FAILURE_REASON},
			expectedCode: http.StatusInternalServerError,
			expectedJSON: `{"status":"internal_error","message":"Having trouble scheduling the player fetch"}`,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ingestPlayer, called := makeIngestPlayer(t, STEAM_ID, c.outcome)
			handler := ports.MakeIngestPlayerHandler(ingestPlayer, allowedOrigins, testLogger, noopMiddleware)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, makeRequest(c.method, STEAM_ID))

			require.True(t, *called)
			require.Equal(t, c.expectedCode, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if c.expectedJSON != "" {
				require.JSONEq(t, c.expectedJSON, w.Body.String())
			}
		})
	}

	t.Run("rate limited by steam id", func(t *testing.T) {
		t.Parallel()

		ingestPlayer, _ := makeIngestPlayer(t, STEAM_ID, app.Dispatched{SteamID: STEAM_ID})
		handler := ports.MakeIngestPlayerHandler(ingestPlayer, allowedOrigins, testLogger, noopMiddleware)

		limited := false
		for i := 0; i < 100; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, makeRequest(http.MethodPost, STEAM_ID))
			if w.Code == http.StatusTooManyRequests {
				require.JSONEq(t, `{"status":"forbidden","message":"Rate limit exceeded"}`, w.Body.String())
				limited = true
				break
			}
			require.Equal(t, http.StatusAccepted, w.Code)
		}
		require.True(t, limited)
	})

	t.Run("cors headers", func(t *testing.T) {
		t.Parallel()

		ingestPlayer, _ := makeIngestPlayer(t, STEAM_ID, app.Dispatched{SteamID: STEAM_ID})
		handler := ports.MakeIngestPlayerHandler(ingestPlayer, allowedOrigins, testLogger, noopMiddleware)

		req := makeRequest(http.MethodGet, STEAM_ID)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusAccepted, w.Code)
		require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
