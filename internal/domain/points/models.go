package points

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Actor is the user invoking an operation and whether they hold
// the administrator capability in the current guild.
type Actor struct {
	ID    snowflake.ID
	Admin bool
}

type Standing struct {
	UserID snowflake.ID
	Points int64
}

type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeRejected
)

// ActionResult is what one invocation of an action produced.
type ActionResult struct {
	Action    Action
	Outcome   Outcome
	Delta     int64
	Total     int64
	Remaining time.Duration
}
