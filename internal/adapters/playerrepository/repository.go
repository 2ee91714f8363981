package playerrepository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/steambuddy/steambuddy/internal/adapters/database"
	"github.com/steambuddy/steambuddy/internal/config"
)

// Connect to and migrate the configured database.
// In development an unreachable database falls back to the in-memory repository.
func NewPlayerRepositoryFromConfig(ctx context.Context, conf config.Config, logger *slog.Logger) (PlayerRepository, func(), error) {
	db, err := database.NewPostgresDatabaseFromConfig(conf)
	if err != nil {
		if conf.IsDevelopment() {
			logger.WarnContext(ctx, "Failed to connect to database, using in-memory player repository", "error", err)
			return NewMemory(), func() {}, nil
		}
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := database.GetSchemaName(!conf.IsProduction())

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schema)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewPostgres(db, schema), func() { db.Close() }, nil
}
