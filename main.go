package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/focusbot/focusbot"
	"github.com/ellavondegurechaff/focusbot/focusbot/commands"
	"github.com/ellavondegurechaff/focusbot/focusbot/database"
	"github.com/ellavondegurechaff/focusbot/focusbot/database/repositories"
	"github.com/ellavondegurechaff/focusbot/focusbot/handlers"
	"github.com/ellavondegurechaff/focusbot/focusbot/logger"
	"github.com/ellavondegurechaff/focusbot/focusbot/services"
	"github.com/ellavondegurechaff/focusbot/internal/domain/points"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	// until the config says otherwise
	slog.SetDefault(slog.New(logger.NewHandler(os.Stdout, slog.LevelInfo)))

	cfg, err := focusbot.LoadConfig(*path)
	if err == nil {
		err = cfg.ValidateBot()
	}
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.SetDefault(slog.New(logger.New(cfg.Log.Format, cfg.Log.Level, cfg.Log.AddSource)))

	logger.LogSystem("Starting FocusBot",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbStartTime := time.Now()
	db, err := database.New(ctx, cfg.DB.DatabaseConfig())
	if err != nil {
		logger.LogError("Database connection failed", err,
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err = db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("type", "db"),
			slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database connected successfully",
		slog.String("type", "db"),
		slog.String("driver", db.Driver()),
		slog.Duration("took", time.Since(dbStartTime)))

	catalog, err := cfg.Points.Catalog()
	if err != nil {
		logger.LogError("Invalid action catalog", err)
		os.Exit(-1)
	}

	b := focusbot.New(*cfg, version, commit)
	b.DB = db
	b.AccountRepository = repositories.NewAccountRepository(db.BunDB())
	b.Cooldowns = points.NewCooldownTracker(cfg.Points.Cooldown())
	b.Points = points.NewService(b.AccountRepository, catalog, b.Cooldowns)
	b.Directory = services.NewDirectory(0)

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	b.Cooldowns.StartCleanupRoutine(cleanupCtx, cfg.Points.CleanupInterval())

	logger.LogSystem("Points system initialized",
		slog.Int("actions", catalog.Len()),
		slog.Duration("cooldown", b.Cooldowns.Window()))

	h := handler.New()

	// System commands
	h.Command("/version", handlers.WrapWithLogging("version", commands.VersionHandler(b)))

	// Points commands and panel buttons
	points.NewCommands(b.Points, b.Paginator, b.Directory, cfg.Points.LeaderboardSize).Register(h)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("error_details", fmt.Sprintf("%+v", err)),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...", slog.String("type", "sys"))
}
