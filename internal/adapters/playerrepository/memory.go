package playerrepository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/steambuddy/steambuddy/internal/domain"
)

type storedPlayer struct {
	player domain.Player
	games  map[string]domain.OwnedGame
}

// In-memory repository used in development when no database is reachable, and in tests
type Memory struct {
	mu      sync.RWMutex
	players map[string]*storedPlayer

	nowFunc func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		players: make(map[string]*storedPlayer),
		nowFunc: time.Now,
	}
}

func (m *Memory) FindPlayer(ctx context.Context, steamID string) (*domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.players[steamID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}

	player := stored.toPlayer()
	return &player, nil
}

func (m *Memory) FindPlayers(ctx context.Context, steamIDs []string) ([]domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := slices.Clone(steamIDs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	players := make([]domain.Player, 0, len(sorted))
	for _, steamID := range sorted {
		stored, ok := m.players[steamID]
		if !ok {
			continue
		}
		players = append(players, stored.toPlayer())
	}

	return players, nil
}

func (m *Memory) UpsertPlayerWithRelated(ctx context.Context, player *domain.Player) (*domain.Player, error) {
	if err := validatePlayerForUpsert(player); err != nil {
		return nil, err
	}

	appIDs, names, playtimes := ownedGameColumns(player.OwnedGames)
	friendIDs := uniqueFriendIDs(player)

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.players[player.SteamID]
	if ok && !existing.player.QueriedAt.IsZero() && existing.player.QueriedAt.After(player.QueriedAt) {
		result := existing.toPlayer()
		return &result, nil
	}

	storedAt := m.nowFunc()

	games := make(map[string]domain.OwnedGame, len(appIDs))
	for i, appID := range appIDs {
		games[appID] = domain.OwnedGame{
			AppID:           appID,
			Name:            names[i],
			PlaytimeMinutes: int(playtimes[i]),
		}
	}

	m.players[player.SteamID] = &storedPlayer{
		player: domain.Player{
			QueriedAt:       player.QueriedAt,
			SteamID:         player.SteamID,
			Username:        player.Username,
			GameCount:       player.GameCount,
			FriendIDs:       friendIDs,
			GamesStoredAt:   &storedAt,
			FriendsStoredAt: &storedAt,
		},
		games: games,
	}

	for _, friendID := range friendIDs {
		if _, ok := m.players[friendID]; ok {
			continue
		}
		m.players[friendID] = &storedPlayer{
			player: domain.Player{SteamID: friendID},
			games:  map[string]domain.OwnedGame{},
		}
	}

	result := m.players[player.SteamID].toPlayer()
	return &result, nil
}

func (s *storedPlayer) toPlayer() domain.Player {
	player := s.player

	player.FriendIDs = slices.Clone(s.player.FriendIDs)
	if player.FriendIDs == nil {
		player.FriendIDs = []string{}
	}

	player.OwnedGames = make([]domain.OwnedGame, 0, len(s.games))
	for _, game := range s.games {
		player.OwnedGames = append(player.OwnedGames, game)
	}
	slices.SortFunc(player.OwnedGames, func(a, b domain.OwnedGame) int {
		if c := cmp.Compare(b.PlaytimeMinutes, a.PlaytimeMinutes); c != 0 {
			return c
		}
		return cmp.Compare(a.AppID, b.AppID)
	})

	if s.player.GamesStoredAt != nil {
		gamesStoredAt := *s.player.GamesStoredAt
		player.GamesStoredAt = &gamesStoredAt
	}
	if s.player.FriendsStoredAt != nil {
		friendsStoredAt := *s.player.FriendsStoredAt
		player.FriendsStoredAt = &friendsStoredAt
	}

	return player
}

