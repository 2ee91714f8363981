package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/domaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPlayers(t *testing.T) {
	t.Parallel()

	stored := domaintest.NewPlayerBuilder(STEAM_ID, time.Now()).BuildPtr()

	t.Run("stored players are returned", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t, player: stored}

		players, err := BuildListPlayers(repo)(t.Context(), []string{" " + STEAM_ID, "76561198000000001"})
		require.NoError(t, err)
		require.Equal(t, []domain.Player{*stored}, players)
	})

	t.Run("invalid steam id", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t, player: stored}

		_, err := BuildListPlayers(repo)(t.Context(), []string{STEAM_ID, "invalid"})
		require.ErrorIs(t, err, domain.ErrInvalidSteamID)
	})

	t.Run("too many players", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t}

		steamIDs := make([]string, MAX_LIST_SIZE+1)
		for i := range steamIDs {
			steamIDs[i] = fmt.Sprintf("765611980000%05d", i)
		}

		_, err := BuildListPlayers(repo)(t.Context(), steamIDs)
		require.ErrorIs(t, err, ErrListTooLong)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		repo := &mockedPlayerRepository{t: t, err: assert.AnError}

		_, err := BuildListPlayers(repo)(t.Context(), []string{STEAM_ID})
		require.ErrorIs(t, err, assert.AnError)
	})
}
