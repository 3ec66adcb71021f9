package points

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// FormatDelta renders a delta with an explicit sign, "+0" for zero.
func FormatDelta(delta int64) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}

func FormatCooldown(remaining time.Duration) string {
	return fmt.Sprintf("You're on cooldown for this action. Try again in %.1fs.", remaining.Seconds())
}

func FormatResult(r ActionResult) string {
	if r.Outcome == OutcomeRejected {
		return FormatCooldown(r.Remaining)
	}
	if r.Action.Kind == KindReset {
		return fmt.Sprintf("%s: points reset. Your new total is %d points.", r.Action.Label, r.Total)
	}
	return fmt.Sprintf("%s: %s points. Your new total is %d points.", r.Action.Label, FormatDelta(r.Delta), r.Total)
}

// UnresolvedName is the leaderboard label for users the directory cannot find.
func UnresolvedName(userID snowflake.ID) string {
	return fmt.Sprintf("User ID %s", userID)
}

// FormatLeaderboard renders standings starting at rank offset+1. names maps a
// user id to a display name; missing ids fall back to UnresolvedName.
func FormatLeaderboard(standings []Standing, names map[snowflake.ID]string, offset int) string {
	var sb strings.Builder
	for i, s := range standings {
		name, ok := names[s.UserID]
		if !ok || name == "" {
			name = UnresolvedName(s.UserID)
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "**%d.** %s: %d pts", offset+i+1, name, s.Points)
	}
	return sb.String()
}
