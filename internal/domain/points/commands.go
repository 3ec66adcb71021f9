package points

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ellavondegurechaff/focusbot/focusbot/config"
	"github.com/ellavondegurechaff/focusbot/focusbot/handlers"
	"github.com/ellavondegurechaff/focusbot/focusbot/utils"
)

var PanelCommand = discord.SlashCommandCreate{
	Name:        "panel",
	Description: "Post the interactive points panel",
}

var ReportCommand = discord.SlashCommandCreate{
	Name:        "report",
	Description: "Self-report an action",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "action",
			Description:  "The action you did",
			Required:     true,
			Autocomplete: true,
		},
	},
}

var PointsCommand = discord.SlashCommandCreate{
	Name:        "points",
	Description: "Show your points or another member's",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "member",
			Description: "Member to look up (defaults to you)",
			Required:    false,
		},
	},
}

var HistoryCommand = discord.SlashCommandCreate{
	Name:        "history",
	Description: "Show current points for yourself or another member",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "member",
			Description: "Member to look up (defaults to you)",
			Required:    false,
		},
	},
}

var LeaderboardCommand = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "Show the points leaderboard",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "size",
			Description: "How many members to list",
			Required:    false,
			MinValue:    &[]int{1}[0],
			MaxValue:    &[]int{config.MaxLeaderboardSize}[0],
		},
	},
}

var SetPointsCommand = discord.SlashCommandCreate{
	Name:        "setpoints",
	Description: "Set a member's points (admins only)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "member",
			Description: "Member to update",
			Required:    true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "value",
			Description: "New balance",
			Required:    true,
		},
	},
}

var AddPointsCommand = discord.SlashCommandCreate{
	Name:        "addpoints",
	Description: "Add or subtract points for a member (admins only)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "member",
			Description: "Member to update",
			Required:    true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "delta",
			Description: "Points to add, negative to subtract",
			Required:    true,
		},
	},
}

var ResetPointsCommand = discord.SlashCommandCreate{
	Name:        "resetpoints",
	Description: "Reset your points, or a member's (admins only)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "member",
			Description: "Member to reset (defaults to you)",
			Required:    false,
		},
	},
}

var ResetAllCommand = discord.SlashCommandCreate{
	Name:        "resetall",
	Description: "Reset every member's points to 0 (admins only)",
}

// Definitions are the slash commands synced to Discord.
var Definitions = []discord.ApplicationCommandCreate{
	PanelCommand,
	ReportCommand,
	PointsCommand,
	HistoryCommand,
	LeaderboardCommand,
	SetPointsCommand,
	AddPointsCommand,
	ResetPointsCommand,
	ResetAllCommand,
}

// interaction is the part of command and component events used to build an Actor.
type interaction interface {
	User() discord.User
	GuildID() *snowflake.ID
	Member() *discord.ResolvedMember
}

// actorFrom returns the invoking user, or ErrGuildOnly outside a guild.
func actorFrom(e interaction) (Actor, error) {
	if e.GuildID() == nil {
		return Actor{}, ErrGuildOnly
	}
	actor := Actor{ID: e.User().ID}
	if member := e.Member(); member != nil {
		actor.Admin = member.Permissions.Has(discord.PermissionAdministrator)
	}
	return actor, nil
}

// errorResponse converts an operation error into the reply shown to the user.
func errorResponse(err error, action string) discord.MessageCreate {
	switch {
	case errors.Is(err, ErrGuildOnly):
		return utils.Ephemeral("This command can only be used in a server.")
	case errors.Is(err, ErrPermissionDenied):
		return utils.ClassifiedError(utils.PermissionError, fmt.Sprintf("You don't have permission to %s.", action))
	case errors.Is(err, ErrUnknownAction):
		return utils.ClassifiedError(utils.UserError, "Unknown action. Pick one from the list.")
	default:
		return utils.ClassifiedError(utils.SystemError, "Failed to update points. Please try again later.")
	}
}

// isFault reports whether err should be surfaced to the logging middleware.
func isFault(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrGuildOnly) &&
		!errors.Is(err, ErrPermissionDenied) &&
		!errors.Is(err, ErrUnknownAction)
}

type Commands interface {
	Register(r handler.Router)
}

type commands struct {
	svc             Service
	paginator       *paginator.Manager
	directory       Directory
	leaderboardSize int
}

func NewCommands(svc Service, paginator *paginator.Manager, directory Directory, leaderboardSize int) *commands {
	if leaderboardSize <= 0 {
		leaderboardSize = DefaultLeaderboardSize
	}
	return &commands{
		svc:             svc,
		paginator:       paginator,
		directory:       directory,
		leaderboardSize: leaderboardSize,
	}
}

func (c *commands) Register(r handler.Router) {
	r.Command("/panel", handlers.WrapWithLogging("panel", c.Panel))
	r.Command("/report", handlers.WrapWithLogging("report", c.Report))
	r.Autocomplete("/report", c.ReportAutocomplete)
	r.Command("/points", handlers.WrapWithLogging("points", c.Points))
	r.Command("/history", handlers.WrapWithLogging("history", c.History))
	r.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", c.Leaderboard))
	r.Command("/setpoints", handlers.WrapWithLogging("setpoints", c.SetPoints))
	r.Command("/addpoints", handlers.WrapWithLogging("addpoints", c.AddPoints))
	r.Command("/resetpoints", handlers.WrapWithLogging("resetpoints", c.ResetPoints))
	r.Command("/resetall", handlers.WrapWithLogging("resetall", c.ResetAll))

	r.Component(actionComponentPrefix+"{key}", handlers.WrapComponentWithLogging("action-button", c.ActionButton))
}

func (c *commands) Panel(e *handler.CommandEvent) error {
	actor, err := actorFrom(e)
	if err != nil {
		return e.CreateMessage(errorResponse(err, "create the panel"))
	}
	if !actor.Admin {
		return e.CreateMessage(utils.ClassifiedError(utils.PermissionError, "Only server admins may create the panel."))
	}
	return e.CreateMessage(PanelMessage(c.svc.Catalog()))
}

func (c *commands) Report(e *handler.CommandEvent) error {
	if _, err := actorFrom(e); err != nil {
		return e.CreateMessage(errorResponse(err, "report actions"))
	}
	key := e.SlashCommandInteractionData().String("action")
	return c.perform(e.User().ID, key, e.CreateMessage)
}

func (c *commands) ReportAutocomplete(e *handler.AutocompleteEvent) error {
	focused := e.Data.Focused()
	if focused.Name != "action" {
		return nil
	}

	query := ""
	if focused.Value != nil {
		if err := json.Unmarshal(focused.Value, &query); err != nil {
			slog.Error("Failed to unmarshal focused.Value",
				slog.String("error", err.Error()))
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}
	}

	actions := c.svc.Catalog().Search(query, MaxActions)
	choices := make([]discord.AutocompleteChoice, 0, len(actions))
	for _, a := range actions {
		name := a.Label
		if a.Kind == KindDelta {
			name = fmt.Sprintf("%s (%s)", a.Label, FormatDelta(a.Delta))
		}
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  name,
			Value: a.Key,
		})
	}
	return e.AutocompleteResult(choices)
}

// perform runs an action and sends the outcome through create. Storage
// failures are reported to the user and then returned for logging; an unknown
// key only gets the user-facing reply.
func (c *commands) perform(userID snowflake.ID, key string, create func(discord.MessageCreate, ...rest.RequestOpt) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	result, err := c.svc.Perform(ctx, userID, key)
	if err != nil {
		if sendErr := create(errorResponse(err, "report actions")); sendErr != nil {
			return errors.Join(err, sendErr)
		}
		if !isFault(err) {
			return nil
		}
		return err
	}

	if result.Outcome == OutcomeRejected {
		return create(utils.Ephemeral(FormatResult(result)))
	}
	return create(utils.Reply(FormatResult(result), result.Action.Ephemeral))
}

func (c *commands) Points(e *handler.CommandEvent) error {
	return c.showBalance(e, "%s has **%d** points.")
}

func (c *commands) History(e *handler.CommandEvent) error {
	return c.showBalance(e, "%s current points: %d.")
}

func (c *commands) showBalance(e *handler.CommandEvent, format string) error {
	if _, err := actorFrom(e); err != nil {
		return e.CreateMessage(errorResponse(err, "view points"))
	}

	target := e.User()
	if member, ok := e.SlashCommandInteractionData().OptUser("member"); ok {
		target = member
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	balance, err := c.svc.Balance(ctx, target.ID)
	if err != nil {
		_ = e.CreateMessage(errorResponse(err, "view points"))
		return err
	}
	return e.CreateMessage(discord.MessageCreate{
		Content: fmt.Sprintf(format, target.Mention(), balance),
	})
}

func (c *commands) Leaderboard(e *handler.CommandEvent) error {
	if _, err := actorFrom(e); err != nil {
		return e.CreateMessage(errorResponse(err, "view the leaderboard"))
	}

	size := c.leaderboardSize
	if v, ok := e.SlashCommandInteractionData().OptInt("size"); ok {
		size = v
	}
	size = max(1, min(size, config.MaxLeaderboardSize))

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	standings, err := c.svc.Leaderboard(ctx, size)
	if err != nil {
		_ = e.CreateMessage(errorResponse(err, "view the leaderboard"))
		return err
	}
	if len(standings) == 0 {
		return e.CreateMessage(discord.MessageCreate{Content: "Leaderboard is empty."})
	}

	names := ResolveNames(ctx, c.directory, e.GuildID(), standings)
	pages := int(math.Ceil(float64(len(standings)) / float64(config.LeaderboardPerPage)))

	if pages == 1 {
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{
				discord.NewEmbedBuilder().
					SetTitle("Points Leaderboard").
					SetDescription(FormatLeaderboard(standings, names, 0)).
					SetColor(config.LeaderboardColor).
					Build(),
			},
		})
	}

	return c.paginator.Create(e.Respond, paginator.Pages{
		ID:      e.ID().String(),
		Creator: e.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			start := page * config.LeaderboardPerPage
			end := min(start+config.LeaderboardPerPage, len(standings))

			embed.
				SetTitle("Points Leaderboard").
				SetDescription(FormatLeaderboard(standings[start:end], names, start)).
				SetColor(config.LeaderboardColor).
				SetFooter(fmt.Sprintf("Page %d/%d • Total: %d", page+1, pages, len(standings)), "")
		},
		Pages:      pages,
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, false)
}

func (c *commands) SetPoints(e *handler.CommandEvent) error {
	actor, err := actorFrom(e)
	if err != nil {
		return e.CreateMessage(errorResponse(err, "set points"))
	}

	data := e.SlashCommandInteractionData()
	target := data.User("member")
	value := int64(data.Int("value"))

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	if err = c.svc.AdminSet(ctx, actor, target.ID, value); err != nil {
		if sendErr := e.CreateMessage(errorResponse(err, "set points")); sendErr != nil {
			return sendErr
		}
		if isFault(err) {
			return err
		}
		return nil
	}
	return e.CreateMessage(utils.SuccessEmbed(fmt.Sprintf("Set %s's points to %d.", target.Mention(), value)))
}

func (c *commands) AddPoints(e *handler.CommandEvent) error {
	actor, err := actorFrom(e)
	if err != nil {
		return e.CreateMessage(errorResponse(err, "add points"))
	}

	data := e.SlashCommandInteractionData()
	target := data.User("member")
	delta := int64(data.Int("delta"))

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	total, err := c.svc.AdminAdd(ctx, actor, target.ID, delta)
	if err != nil {
		if sendErr := e.CreateMessage(errorResponse(err, "add points")); sendErr != nil {
			return sendErr
		}
		if isFault(err) {
			return err
		}
		return nil
	}
	return e.CreateMessage(utils.SuccessEmbed(fmt.Sprintf("Updated %s by %s. New total: %d points.", target.Mention(), FormatDelta(delta), total)))
}

func (c *commands) ResetPoints(e *handler.CommandEvent) error {
	actor, err := actorFrom(e)
	if err != nil {
		return e.CreateMessage(errorResponse(err, "reset points"))
	}

	var target *snowflake.ID
	if member, ok := e.SlashCommandInteractionData().OptUser("member"); ok {
		target = &member.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	userID, err := c.svc.Reset(ctx, actor, target)
	if err != nil {
		if sendErr := e.CreateMessage(errorResponse(err, "reset other members' points")); sendErr != nil {
			return sendErr
		}
		if isFault(err) {
			return err
		}
		return nil
	}
	return e.CreateMessage(utils.SuccessEmbed(fmt.Sprintf("Reset %s's points to 0.", discord.UserMention(userID))))
}

func (c *commands) ResetAll(e *handler.CommandEvent) error {
	actor, err := actorFrom(e)
	if err != nil {
		return e.CreateMessage(errorResponse(err, "reset all points"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
	defer cancel()

	affected, err := c.svc.ResetAll(ctx, actor)
	if err != nil {
		if sendErr := e.CreateMessage(errorResponse(err, "reset all points")); sendErr != nil {
			return sendErr
		}
		if isFault(err) {
			return err
		}
		return nil
	}
	return e.CreateMessage(utils.SuccessEmbed(fmt.Sprintf("Reset all users' points to 0. (%d members)", affected)))
}
