package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// players, games, friendships
const LATEST_SCHEMA_VERSION uint = 3

var ErrDirtySchema = errors.New("schema is dirty after a failed migration")

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type migrator struct {
	db *sqlx.DB

	logger *slog.Logger
}

func NewDatabaseMigrator(db *sqlx.DB, logger *slog.Logger) *migrator {
	return &migrator{
		db:     db,
		logger: logger,
	}
}

// Brings the player schema up to LATEST_SCHEMA_VERSION, creating the schema if needed
func (m *migrator) Migrate(ctx context.Context, schemaName string) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrate %s: failed to connect to db: %w", schemaName, err)
	}
	defer conn.Close()

	instance, err := newSchemaMigration(ctx, conn, schemaName)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", schemaName, err)
	}
	defer instance.Close()

	from, err := schemaVersion(instance)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", schemaName, err)
	}
	logger := m.logger.With("schema", schemaName, "fromVersion", from)

	if from == LATEST_SCHEMA_VERSION {
		logger.InfoContext(ctx, "Player schema is up to date")
		return nil
	}

	logger.InfoContext(ctx, "Migrating player schema", "toVersion", LATEST_SCHEMA_VERSION)
	err = instance.Migrate(LATEST_SCHEMA_VERSION)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: failed to migrate from version %d: %w", schemaName, from, err)
	}

	to, err := schemaVersion(instance)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", schemaName, err)
	}
	logger.InfoContext(ctx, "Migrated player schema", "toVersion", to, "applied", to-from)

	return nil
}

func newSchemaMigration(ctx context.Context, conn *sql.Conn, schemaName string) (*migrate.Migrate, error) {
	quotedSchema := pq.QuoteIdentifier(schemaName)
	for _, statement := range []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quotedSchema),
		fmt.Sprintf("SET search_path TO %s", quotedSchema),
	} {
		_, err := conn.ExecContext(ctx, statement)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
	}

	source, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		DatabaseName: DB_NAME,
		SchemaName:   schemaName,
	})
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return instance, nil
}

// Zero for a schema that has never been migrated
func schemaVersion(instance *migrate.Migrate) (uint, error) {
	version, dirty, err := instance.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("%w: version %d", ErrDirtySchema, version)
	}
	return version, nil
}
