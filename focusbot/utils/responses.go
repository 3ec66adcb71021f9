package utils

import (
	"github.com/disgoorg/disgo/discord"

	"github.com/ellavondegurechaff/focusbot/focusbot/config"
)

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - wrong context or invalid input
	UserError ErrorType = iota
	// SystemError - database failures, internal errors
	SystemError
	// PermissionError - caller lacks the administrator capability
	PermissionError
	// BusinessLogicError - cooldowns
	BusinessLogicError
)

func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case SystemError:
		return "🔧"
	case PermissionError:
		return "🚫"
	case BusinessLogicError:
		return "⏰"
	default:
		return "❌"
	}
}

func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError, BusinessLogicError:
		return config.WarningColor
	default:
		return config.ErrorColor
	}
}

// Ephemeral is a plain text reply only the invoking user can see.
func Ephemeral(content string) discord.MessageCreate {
	return discord.MessageCreate{
		Content: content,
		Flags:   discord.MessageFlagEphemeral,
	}
}

// Reply is a plain text reply, private to the invoker when ephemeral is set.
func Reply(content string, ephemeral bool) discord.MessageCreate {
	if ephemeral {
		return Ephemeral(content)
	}
	return discord.MessageCreate{Content: content}
}

// ClassifiedError is an ephemeral embed colored and prefixed by error type.
func ClassifiedError(errorType ErrorType, message string) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: getErrorPrefix(errorType) + " " + message,
			Color:       getErrorColor(errorType),
		}},
		Flags: discord.MessageFlagEphemeral,
	}
}

func SuccessEmbed(message string) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.SuccessColor,
		}},
	}
}
