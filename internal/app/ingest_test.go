package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/domaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestPlayer(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	nowFunc := func() time.Time { return now }

	completePlayer := domaintest.NewPlayerBuilder(STEAM_ID, now).
		WithOwnedGames(domaintest.NewOwnedGame("570", "Dota 2", 1200)).
		WithFriends("76561198000000001").
		WithStoredAt(now).
		BuildPtr()

	t.Run("complete player is found without dispatching", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t, player: completePlayer}
		dispatcher := &mockedDispatcher{}

		outcome := BuildIngestPlayer(repo, dispatcher, nowFunc)(t.Context(), STEAM_ID)
		require.Equal(t, Found{Player: *completePlayer}, outcome)
		require.Empty(t, dispatcher.jobs)
		require.Empty(t, repo.upserted)
	})

	t.Run("missing player is dispatched once", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t}
		dispatcher := &mockedDispatcher{}

		outcome := BuildIngestPlayer(repo, dispatcher, nowFunc)(t.Context(), STEAM_ID)
		require.Equal(t, Dispatched{SteamID: STEAM_ID}, outcome)
		require.Len(t, dispatcher.jobs, 1)
		require.Equal(t, STEAM_ID, dispatcher.jobs[0].SteamID)
		require.Equal(t, now, dispatcher.jobs[0].EnqueuedAt)
		require.Empty(t, repo.upserted)
	})

	t.Run("incomplete player is dispatched", func(t *testing.T) {
		t.Parallel()

		for name, player := range map[string]*domain.Player{
			"friend stub": domaintest.NewPlayerBuilder(STEAM_ID, time.Time{}).BuildPtr(),
			"missing friends": func() *domain.Player {
				player := domaintest.NewPlayerBuilder(STEAM_ID, now).WithStoredAt(now).BuildPtr()
				player.FriendsStoredAt = nil
				return player
			}(),
			"missing games": func() *domain.Player {
				player := domaintest.NewPlayerBuilder(STEAM_ID, now).WithStoredAt(now).BuildPtr()
				player.GamesStoredAt = nil
				return player
			}(),
		} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				repo := &mockedPlayerRepository{t: t, player: player}
				dispatcher := &mockedDispatcher{}

				outcome := BuildIngestPlayer(repo, dispatcher, nowFunc)(t.Context(), STEAM_ID)
				require.Equal(t, Dispatched{SteamID: STEAM_ID}, outcome)
				require.Len(t, dispatcher.jobs, 1)
			})
		}
	})

	t.Run("repeated ingest dispatches every time", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t}
		dispatcher := &mockedDispatcher{}
		ingest := BuildIngestPlayer(repo, dispatcher, nowFunc)

		require.Equal(t, Dispatched{SteamID: STEAM_ID}, ingest(t.Context(), STEAM_ID))
		require.Equal(t, Dispatched{SteamID: STEAM_ID}, ingest(t.Context(), STEAM_ID))
		require.Len(t, dispatcher.jobs, 2)
		require.NotEqual(t, dispatcher.jobs[0].ID, dispatcher.jobs[1].ID)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t, err: fmt.Errorf("dial tcp 10.0.0.3:5432: connection refused")}
		dispatcher := &mockedDispatcher{}

		outcome := BuildIngestPlayer(repo, dispatcher, nowFunc)(t.Context(), STEAM_ID)
		require.Equal(t, Failed{Origin: FailureOriginStore, Reason: STORE_FAILURE_REASON}, outcome)
		require.NotContains(t, outcome.(Failed).Reason, "10.0.0.3")
		require.Empty(t, dispatcher.jobs)
	})

	t.Run("dispatch error", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t}
		dispatcher := &mockedDispatcher{err: assert.AnError}

		outcome := BuildIngestPlayer(repo, dispatcher, nowFunc)(t.Context(), STEAM_ID)
		require.Equal(t, Failed{Origin: FailureOriginDispatch, Reason: DISPATCH_FAILURE_REASON}, outcome)
	})

	t.Run("invalid steam id", func(t *testing.T) {
		t.Parallel()

		for _, steamID := range []string{
			"",
			"invalid",
			"7656119801207820",
			"765611980120782001",
			"86561198012078200",
			" 76561198012078200",
		} {
			t.Run(fmt.Sprintf("steam id: '%s'", steamID), func(t *testing.T) {
				t.Parallel()

				repo := &mockedPlayerRepository{t: t, err: assert.AnError}
				dispatcher := &mockedDispatcher{}

				outcome := BuildIngestPlayer(repo, dispatcher, nowFunc)(t.Context(), steamID)
				require.Equal(t, Failed{Origin: FailureOriginLookup, Reason: INVALID_STEAM_ID_REASON}, outcome)
				require.Empty(t, dispatcher.jobs)
			})
		}
	})

	t.Run("cancelled request still enqueues", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t}
		dispatcher := &mockedDispatcher{}

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		outcome := BuildIngestPlayer(repo, dispatcher, nowFunc)(ctx, STEAM_ID)
		require.Equal(t, Dispatched{SteamID: STEAM_ID}, outcome)
	})
}

func TestFailureOriginString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "lookup", FailureOriginLookup.String())
	require.Equal(t, "store", FailureOriginStore.String())
	require.Equal(t, "dispatch", FailureOriginDispatch.String())
	require.Equal(t, "FailureOrigin(0)", FailureOrigin(0).String())
}
