package points

import (
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/focusbot/focusbot/config"
	"github.com/ellavondegurechaff/focusbot/focusbot/utils"
)

// Component patterns must start with /
const actionComponentPrefix = "/points/action/"

const buttonsPerRow = 5

const panelDescription = "Click the buttons below to self-report actions. Punishments deduct points; nourishment grants points.\n" +
	"Use `/points` to check your balance."

func ActionCustomID(key string) string {
	return actionComponentPrefix + key
}

// ActionKey extracts the action key from a panel button's custom id.
func ActionKey(customID string) (string, bool) {
	key, ok := strings.CutPrefix(customID, actionComponentPrefix)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func actionButton(a Action) discord.ButtonComponent {
	id := ActionCustomID(a.Key)
	switch a.Style {
	case StyleDanger:
		return discord.NewDangerButton(a.Label, id)
	case StyleSecondary:
		return discord.NewSecondaryButton(a.Label, id)
	case StyleSuccess:
		return discord.NewSuccessButton(a.Label, id)
	default:
		return discord.NewPrimaryButton(a.Label, id)
	}
}

// PanelRows lays the catalog out as action rows of up to five buttons.
func PanelRows(catalog *Catalog) []discord.ContainerComponent {
	actions := catalog.Actions()
	rows := make([]discord.ContainerComponent, 0, (len(actions)+buttonsPerRow-1)/buttonsPerRow)
	for start := 0; start < len(actions); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(actions))
		buttons := make([]discord.InteractiveComponent, 0, end-start)
		for _, a := range actions[start:end] {
			buttons = append(buttons, actionButton(a))
		}
		rows = append(rows, discord.NewActionRow(buttons...))
	}
	return rows
}

func PanelMessage(catalog *Catalog) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "Focus Points Panel",
			Description: panelDescription,
			Color:       config.PanelColor,
		}},
		Components: PanelRows(catalog),
	}
}

func (c *commands) ActionButton(e *handler.ComponentEvent) error {
	key, ok := ActionKey(e.Data.CustomID())
	if !ok {
		return e.CreateMessage(utils.ClassifiedError(utils.UserError, "Unknown action."))
	}
	return c.perform(e.User().ID, key, e.CreateMessage)
}
