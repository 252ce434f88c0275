package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/feedline-core/internal/infrastructure/config"
	"github.com/nerrad567/feedline-core/internal/infrastructure/database"
	"github.com/nerrad567/feedline-core/migrations"
)

// newApp builds the command tree. With no subcommand it runs the server.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "feedline",
		Usage:   "Shared resource feed with live updates",
		Version: version,
		Action: func(ctx context.Context, _ *cli.Command) error {
			return run(ctx)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the API server (default)",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return run(ctx)
				},
			},
			migrateCommand(),
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDatabase(ctx, func(db *database.DB) error {
						if err := db.Migrate(ctx); err != nil {
							return err
						}
						return printMigrationStatus(ctx, c.Root().Writer, db)
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDatabase(ctx, func(db *database.DB) error {
						if err := db.MigrateDown(ctx); err != nil {
							return err
						}
						return printMigrationStatus(ctx, c.Root().Writer, db)
					})
				},
			},
			{
				Name:  "status",
				Usage: "List applied and pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDatabase(ctx, func(db *database.DB) error {
						return printMigrationStatus(ctx, c.Root().Writer, db)
					})
				},
			},
		},
	}
}

// withDatabase opens the configured database for a maintenance command.
func withDatabase(ctx context.Context, fn func(*database.DB) error) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
		Migrations:  migrations.FS,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-mostly maintenance connection

	return fn(db)
}

func printMigrationStatus(ctx context.Context, w io.Writer, db *database.DB) error {
	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tDETAIL")
	for _, m := range applied {
		fmt.Fprintf(tw, "%s\tapplied\t%s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
	}
	for _, m := range pending {
		fmt.Fprintf(tw, "%s\tpending\t%s\n", m.Version, m.Name)
	}
	return tw.Flush()
}
