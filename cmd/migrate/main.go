package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ellavondegurechaff/focusbot/focusbot"
	"github.com/ellavondegurechaff/focusbot/focusbot/database"
	"github.com/ellavondegurechaff/focusbot/focusbot/database/repositories"
	"github.com/ellavondegurechaff/focusbot/focusbot/logger"
	"github.com/ellavondegurechaff/focusbot/focusbot/migration"
)

var (
	configPath string
	sourcePath string
	batchSize  int
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import balances from a legacy points.db into the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := focusbot.LoadConfig(configPath)
		if err != nil {
			slog.Error("Failed to load configuration", slog.Any("error", err))
			return err
		}

		if err = migration.ValidateSource(sourcePath, cfg.DB.DatabaseConfig()); err != nil {
			slog.Error("Refusing to migrate", slog.Any("error", err))
			return err
		}

		db, err := database.New(ctx, cfg.DB.DatabaseConfig())
		if err != nil {
			slog.Error("Failed to connect to database", slog.Any("error", err))
			return err
		}
		defer db.Close()

		if err = db.InitializeSchema(ctx); err != nil {
			slog.Error("Failed to initialize schema", slog.Any("error", err))
			return err
		}

		source, err := migration.OpenLegacy(sourcePath)
		if err != nil {
			slog.Error("Failed to open legacy database", slog.Any("error", err))
			return err
		}
		defer source.Close()

		migrator := migration.NewMigrator(source, repositories.NewAccountRepository(db.BunDB()))
		migrator.SetBatchSize(batchSize)
		migrator.SetDryRun(dryRun)

		stats, err := migrator.Migrate(ctx)
		if err != nil {
			slog.Error("Migration failed", slog.Any("error", err))
			return err
		}

		slog.Info("Migration completed successfully",
			slog.String("type", "db"),
			slog.Int("read", stats.Read),
			slog.Int("imported", stats.Imported),
			slog.Int("unparsed_timestamps", stats.BadTimes),
			slog.Duration("took", stats.Duration()))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "config.toml", "path to config")
	rootCmd.Flags().StringVar(&sourcePath, "source", "", "path to the legacy points.db")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 500, "rows per import batch")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "read and convert without writing")
	_ = rootCmd.MarkFlagRequired("source")
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stdout, slog.LevelInfo)))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
