package playerrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/steambuddy/steambuddy/internal/domain"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/reporting"
	"github.com/steambuddy/steambuddy/internal/strutils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	return &Postgres{
		db:     db,
		schema: schema,

		tracer: otel.Tracer("steambuddy/playerrepository/postgres"),
	}
}

const (
	DEADLOCK_DETECTED     pq.ErrorCode = "40P01"
	SERIALIZATION_FAILURE pq.ErrorCode = "40001"
)

// Deadlocks and serialization failures succeed when the transaction is run again
func markRetryable(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	if pqErr.Code == DEADLOCK_DETECTED || pqErr.Code == SERIALIZATION_FAILURE {
		return fmt.Errorf("%w: %w", domain.ErrTemporarilyUnavailable, err)
	}
	return err
}

type dbPlayer struct {
	SteamID         string     `db:"steam_id"`
	Username        string     `db:"username"`
	GameCount       int        `db:"game_count"`
	QueriedAt       *time.Time `db:"queried_at"`
	GamesStoredAt   *time.Time `db:"games_stored_at"`
	FriendsStoredAt *time.Time `db:"friends_stored_at"`
}

type dbOwnedGame struct {
	PlayerSteamID   string `db:"player_steam_id"`
	AppID           string `db:"app_id"`
	Name            string `db:"name"`
	PlaytimeMinutes int    `db:"playtime_minutes"`
}

type dbFriendship struct {
	PlayerSteamID string `db:"player_steam_id"`
	FriendSteamID string `db:"friend_steam_id"`
}

func (p *Postgres) beginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	txx, err := p.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		txx.Rollback()
		return nil, fmt.Errorf("failed to set search path: %w", err)
	}

	return txx, nil
}

func (p *Postgres) FindPlayer(ctx context.Context, steamID string) (*domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.FindPlayer")
	defer span.End()

	players, err := p.findPlayers(ctx, []string{steamID})
	if err != nil {
		// NOTE: findPlayers handles its own error reporting
		return nil, err
	}

	if len(players) == 0 {
		return nil, domain.ErrPlayerNotFound
	}

	return &players[0], nil
}

func (p *Postgres) FindPlayers(ctx context.Context, steamIDs []string) ([]domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.FindPlayers")
	defer span.End()

	span.SetAttributes(attribute.Int("steambuddy.player_count", len(steamIDs)))

	return p.findPlayers(ctx, steamIDs)
}

func (p *Postgres) findPlayers(ctx context.Context, steamIDs []string) ([]domain.Player, error) {
	for _, steamID := range steamIDs {
		if !strutils.SteamIDIsNormalized(steamID) {
			err := fmt.Errorf("steam id is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"steamId": steamID,
			})
			return nil, err
		}
	}

	if len(steamIDs) == 0 {
		return []domain.Player{}, nil
	}

	// Read everything from one snapshot so a concurrent upsert is seen either fully or not at all
	txx, err := p.beginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		reporting.Report(ctx, err)
		return nil, err
	}
	defer txx.Rollback()

	var dbPlayers []dbPlayer
	err = txx.SelectContext(
		ctx,
		&dbPlayers,
		`SELECT
			steam_id, username, game_count, queried_at, games_stored_at, friends_stored_at
		FROM players
		WHERE steam_id = ANY($1)
		ORDER BY steam_id`,
		pq.Array(steamIDs),
	)
	if err != nil {
		err := fmt.Errorf("failed to select players: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"steamIds": fmt.Sprintf("%v", steamIDs),
		})
		return nil, err
	}

	if len(dbPlayers) == 0 {
		return []domain.Player{}, nil
	}

	var dbGames []dbOwnedGame
	err = txx.SelectContext(
		ctx,
		&dbGames,
		`SELECT
			pg.player_steam_id, pg.app_id, g.name, pg.playtime_minutes
		FROM player_games pg
		JOIN games g ON g.app_id = pg.app_id
		WHERE pg.player_steam_id = ANY($1)
		ORDER BY pg.playtime_minutes DESC, pg.app_id`,
		pq.Array(steamIDs),
	)
	if err != nil {
		err := fmt.Errorf("failed to select owned games: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	var dbFriendships []dbFriendship
	err = txx.SelectContext(
		ctx,
		&dbFriendships,
		`SELECT
			player_steam_id, friend_steam_id
		FROM friendships
		WHERE player_steam_id = ANY($1)
		ORDER BY friend_steam_id`,
		pq.Array(steamIDs),
	)
	if err != nil {
		err := fmt.Errorf("failed to select friendships: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	gamesByPlayer := make(map[string][]domain.OwnedGame, len(dbPlayers))
	for _, game := range dbGames {
		gamesByPlayer[game.PlayerSteamID] = append(gamesByPlayer[game.PlayerSteamID], domain.OwnedGame{
			AppID:           game.AppID,
			Name:            game.Name,
			PlaytimeMinutes: game.PlaytimeMinutes,
		})
	}

	friendsByPlayer := make(map[string][]string, len(dbPlayers))
	for _, friendship := range dbFriendships {
		friendsByPlayer[friendship.PlayerSteamID] = append(friendsByPlayer[friendship.PlayerSteamID], friendship.FriendSteamID)
	}

	players := make([]domain.Player, 0, len(dbPlayers))
	for _, dbPlayer := range dbPlayers {
		player := domain.Player{
			SteamID:         dbPlayer.SteamID,
			Username:        dbPlayer.Username,
			GameCount:       dbPlayer.GameCount,
			OwnedGames:      gamesByPlayer[dbPlayer.SteamID],
			FriendIDs:       friendsByPlayer[dbPlayer.SteamID],
			GamesStoredAt:   dbPlayer.GamesStoredAt,
			FriendsStoredAt: dbPlayer.FriendsStoredAt,
		}
		if dbPlayer.QueriedAt != nil {
			player.QueriedAt = *dbPlayer.QueriedAt
		}
		if player.OwnedGames == nil {
			player.OwnedGames = []domain.OwnedGame{}
		}
		if player.FriendIDs == nil {
			player.FriendIDs = []string{}
		}
		players = append(players, player)
	}

	return players, nil
}

func (p *Postgres) UpsertPlayerWithRelated(ctx context.Context, player *domain.Player) (*domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpsertPlayerWithRelated")
	defer span.End()

	if err := validatePlayerForUpsert(player); err != nil {
		extras := map[string]string{}
		if player != nil {
			extras["steamId"] = player.SteamID
		}
		reporting.Report(ctx, err, extras)
		return nil, err
	}

	appIDs, names, playtimes := ownedGameColumns(player.OwnedGames)
	friendIDs := uniqueFriendIDs(player)
	storedAt := time.Now()

	txx, err := p.beginTx(ctx, nil)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"steamId": player.SteamID,
		})
		return nil, err
	}
	defer txx.Rollback()

	report := func(err error) (*domain.Player, error) {
		err = markRetryable(err)
		reporting.Report(ctx, err, map[string]string{
			"steamId": player.SteamID,
		})
		return nil, err
	}

	// Rows are created and locked in steam id order so that concurrent upserts of
	// players listing each other as friends queue up instead of deadlocking.
	// Friends are created as stubs, existing rows are left untouched.
	lockIDs := lockOrder(player.SteamID, friendIDs)
	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO players (steam_id)
		SELECT id FROM unnest($1::text[]) AS id
		ORDER BY id
		ON CONFLICT (steam_id) DO NOTHING`,
		pq.Array(lockIDs),
	)
	if err != nil {
		return report(fmt.Errorf("failed to create player rows: %w", err))
	}

	var lockedIDs []string
	err = txx.SelectContext(
		ctx,
		&lockedIDs,
		`SELECT steam_id FROM players
		WHERE steam_id = ANY($1)
		ORDER BY steam_id
		FOR UPDATE`,
		pq.Array(lockIDs),
	)
	if err != nil {
		return report(fmt.Errorf("failed to lock player rows: %w", err))
	}
	if len(lockedIDs) != len(lockIDs) {
		return report(fmt.Errorf("locked %d player rows, expected %d", len(lockedIDs), len(lockIDs)))
	}

	// Timestamp based merge: an older fetch never overwrites a newer one
	result, err := txx.ExecContext(
		ctx,
		`INSERT INTO players
		(steam_id, username, game_count, queried_at, games_stored_at, friends_stored_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (steam_id)
		DO UPDATE SET
			username = EXCLUDED.username,
			game_count = EXCLUDED.game_count,
			queried_at = EXCLUDED.queried_at,
			games_stored_at = EXCLUDED.games_stored_at,
			friends_stored_at = EXCLUDED.friends_stored_at,
			updated_at = NOW()
		WHERE players.queried_at IS NULL OR players.queried_at <= EXCLUDED.queried_at`,
		player.SteamID,
		player.Username,
		player.GameCount,
		player.QueriedAt,
		storedAt,
	)
	if err != nil {
		return report(fmt.Errorf("failed to upsert player: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return report(fmt.Errorf("failed to get affected rows for player upsert: %w", err))
	}
	if affected == 0 {
		logging.FromContext(ctx).InfoContext(ctx, "Stored player is newer than upsert, skipping", "steamId", player.SteamID)
		txx.Rollback()
		return p.FindPlayer(ctx, player.SteamID)
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO games (app_id, name)
		SELECT * FROM unnest($1::text[], $2::text[])
		ON CONFLICT (app_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()`,
		pq.Array(appIDs),
		pq.Array(names),
	)
	if err != nil {
		return report(fmt.Errorf("failed to upsert games: %w", err))
	}

	_, err = txx.ExecContext(ctx, "DELETE FROM player_games WHERE player_steam_id = $1", player.SteamID)
	if err != nil {
		return report(fmt.Errorf("failed to delete owned games: %w", err))
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO player_games (player_steam_id, app_id, playtime_minutes)
		SELECT $1, * FROM unnest($2::text[], $3::integer[])`,
		player.SteamID,
		pq.Array(appIDs),
		pq.Array(playtimes),
	)
	if err != nil {
		return report(fmt.Errorf("failed to insert owned games: %w", err))
	}

	_, err = txx.ExecContext(ctx, "DELETE FROM friendships WHERE player_steam_id = $1", player.SteamID)
	if err != nil {
		return report(fmt.Errorf("failed to delete friendships: %w", err))
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO friendships (player_steam_id, friend_steam_id)
		SELECT $1, unnest($2::text[])`,
		player.SteamID,
		pq.Array(friendIDs),
	)
	if err != nil {
		return report(fmt.Errorf("failed to insert friendships: %w", err))
	}

	err = txx.Commit()
	if err != nil {
		return report(fmt.Errorf("failed to commit transaction: %w", err))
	}

	logging.FromContext(ctx).InfoContext(
		ctx,
		"Stored player",
		"steamId", player.SteamID,
		"games", len(appIDs),
		"friends", len(friendIDs),
	)

	return p.FindPlayer(ctx, player.SteamID)
}
