package commands

import (
	"github.com/disgoorg/disgo/discord"

	"github.com/ellavondegurechaff/focusbot/internal/domain/points"
)

var Commands = []discord.ApplicationCommandCreate{
	Version,
}

func init() {
	Commands = append(Commands, points.Definitions...)
}
