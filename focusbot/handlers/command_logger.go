package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ellavondegurechaff/focusbot/focusbot/config"
)

// WrapWithLogging wraps a command handler with logging functionality
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return track("cmd", "Command", name, e.User(), e.GuildID(), e.ChannelID(), func() error {
			return h(e)
		})
	}
}

// WrapComponentWithLogging wraps a component handler with logging functionality
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return track("component", "Component interaction", name, e.User(), e.GuildID(), e.ChannelID(), func() error {
			return h(e)
		})
	}
}

func track(logType string, label string, name string, user discord.User, guildID *snowflake.ID, channelID snowflake.ID, run func() error) error {
	start := time.Now()

	guild := "dm"
	if guildID != nil {
		guild = guildID.String()
	}

	slog.Info(label+" started",
		slog.String("type", logType),
		slog.String("name", name),
		slog.String("user_id", user.ID.String()),
		slog.String("user_name", user.Username),
		slog.String("guild_id", guild),
		slog.String("channel_id", channelID.String()),
	)

	done := make(chan error, 1)
	go func() {
		done <- run()
	}()

	select {
	case err := <-done:
		duration := time.Since(start)
		attrs := []any{
			slog.String("type", logType),
			slog.String("name", name),
			slog.String("user_id", user.ID.String()),
			slog.String("user_name", user.Username),
			slog.Duration("took", duration),
		}

		switch {
		case err != nil:
			slog.Error(label+" failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case duration > config.SlowCommandWarning:
			slog.Warn(label+" executed slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		default:
			slog.Info(label+" completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-time.After(config.CommandTimeout):
		slog.Error(label+" timed out",
			slog.String("type", logType),
			slog.String("name", name),
			slog.String("user_id", user.ID.String()),
			slog.String("user_name", user.Username),
			slog.String("status", "timeout"),
			slog.Duration("timeout", config.CommandTimeout),
		)
		return fmt.Errorf("%s %s timed out after %s", logType, name, config.CommandTimeout)
	}
}
