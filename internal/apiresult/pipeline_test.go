package apiresult

import (
	"context"
	"testing"
	"time"

	"github.com/steambuddy/steambuddy/internal/adapters/fetchqueue"
	"github.com/steambuddy/steambuddy/internal/adapters/playerrepository"
	"github.com/steambuddy/steambuddy/internal/app"
	"github.com/steambuddy/steambuddy/internal/domaintest"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	jobs []fetchqueue.FetchJob
}

func (d *recordingDispatcher) Enqueue(ctx context.Context, job fetchqueue.FetchJob) error {
	d.jobs = append(d.jobs, job)
	return nil
}

func TestIngestAndClassify(t *testing.T) {
	t.Parallel()

	const steamID = "76561198012078200"
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("unknown player is loading", func(t *testing.T) {
		t.Parallel()

		dispatcher := &recordingDispatcher{}
		ingest := app.BuildIngestPlayer(playerrepository.NewMemory(), dispatcher, func() time.Time { return now })

		outcome := ingest(t.Context(), steamID)
		require.Equal(t, app.Dispatched{SteamID: steamID}, outcome)

		result := Classify(outcome)
		require.Equal(t, StatusProcessing, result.Status())
		require.Equal(t, "Loading the player info", result.Message())
		require.Len(t, dispatcher.jobs, 1)
	})

	t.Run("stored player is created", func(t *testing.T) {
		t.Parallel()

		repo := playerrepository.NewMemory()
		stored, err := repo.UpsertPlayerWithRelated(t.Context(), domaintest.NewPlayerBuilder(steamID, now).
			WithUsername("gaben").
			WithOwnedGames(domaintest.NewOwnedGame("570", "Dota 2", 1200)).
			WithFriends("76561198000000001").
			BuildPtr())
		require.NoError(t, err)

		dispatcher := &recordingDispatcher{}
		ingest := app.BuildIngestPlayer(repo, dispatcher, func() time.Time { return now })

		outcome := ingest(t.Context(), steamID)
		require.Equal(t, app.Found{Player: *stored}, outcome)

		result := Classify(outcome)
		require.Equal(t, StatusCreated, result.Status())
		require.Equal(t, *stored, result.Message())
		require.Empty(t, dispatcher.jobs)

		// The friend only exists as a stub and is loaded on request
		friendResult := Classify(ingest(t.Context(), "76561198000000001"))
		require.Equal(t, StatusProcessing, friendResult.Status())
		require.Len(t, dispatcher.jobs, 1)
	})
}
