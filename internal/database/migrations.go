package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"yatra/migrations"
)

// RunMigrations applies every pending migration from the embedded SQL files
func (db *DB) RunMigrations(ctx context.Context) error {
	slog.Info("Running database migrations...")

	provider, err := goose.NewProvider(goose.DialectPostgres, db.DB, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		slog.Info("Applied migration", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
	}

	slog.Info("All migrations completed successfully", "applied", len(results))
	return nil
}
