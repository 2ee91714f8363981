package app

import (
	"context"
	"sync"
	"testing"

	"github.com/steambuddy/steambuddy/internal/adapters/fetchqueue"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/stretchr/testify/require"
)

const STEAM_ID = "76561198012078200"

type mockedPlayerRepository struct {
	t *testing.T

	player *domain.Player
	err    error

	upserted []*domain.Player
}

func (m *mockedPlayerRepository) FindPlayer(ctx context.Context, steamID string) (*domain.Player, error) {
	m.t.Helper()
	require.Equal(m.t, STEAM_ID, steamID)

	if m.err != nil {
		return nil, m.err
	}
	if m.player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	player := *m.player
	return &player, nil
}

func (m *mockedPlayerRepository) FindPlayers(ctx context.Context, steamIDs []string) ([]domain.Player, error) {
	if m.err != nil {
		return nil, m.err
	}
	players := []domain.Player{}
	for _, steamID := range steamIDs {
		if m.player != nil && m.player.SteamID == steamID {
			players = append(players, *m.player)
		}
	}
	return players, nil
}

func (m *mockedPlayerRepository) UpsertPlayerWithRelated(ctx context.Context, player *domain.Player) (*domain.Player, error) {
	m.upserted = append(m.upserted, player)
	if m.err != nil {
		return nil, m.err
	}
	return player, nil
}

type mockedDispatcher struct {
	mu   sync.Mutex
	jobs []fetchqueue.FetchJob
	err  error
}

func (m *mockedDispatcher) Enqueue(ctx context.Context, job fetchqueue.FetchJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = append(m.jobs, job)
	return m.err
}

type mockedPlayerProvider struct {
	t      *testing.T
	player *domain.Player
	err    error
	calls  int
}

func (m *mockedPlayerProvider) GetPlayer(ctx context.Context, steamID string) (*domain.Player, error) {
	m.t.Helper()
	require.Equal(m.t, STEAM_ID, steamID)

	m.calls++
	return m.player, m.err
}
