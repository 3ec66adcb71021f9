package focusbot

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"

	"github.com/ellavondegurechaff/focusbot/focusbot/database"
	"github.com/ellavondegurechaff/focusbot/focusbot/database/repositories"
	"github.com/ellavondegurechaff/focusbot/focusbot/services"
	"github.com/ellavondegurechaff/focusbot/internal/domain/points"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg               Config
	Client            bot.Client
	Paginator         *paginator.Manager
	Version           string
	Commit            string
	DB                *database.DB
	AccountRepository repositories.AccountRepository
	Cooldowns         *points.CooldownTracker
	Points            points.Service
	Directory         *services.Directory
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds, cache.FlagMembers)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	if b.Directory != nil {
		b.Directory.SetClient(client)
	}
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("FocusBot is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithListeningActivity("your focus"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
