package points

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
)

const DefaultLeaderboardSize = 10

type Service interface {
	Catalog() *Catalog
	Perform(ctx context.Context, userID snowflake.ID, key string) (ActionResult, error)
	Balance(ctx context.Context, userID snowflake.ID) (int64, error)
	Leaderboard(ctx context.Context, limit int) ([]Standing, error)
	AdminSet(ctx context.Context, actor Actor, target snowflake.ID, value int64) error
	AdminAdd(ctx context.Context, actor Actor, target snowflake.ID, delta int64) (int64, error)
	ResetAll(ctx context.Context, actor Actor) (int64, error)
	Reset(ctx context.Context, actor Actor, target *snowflake.ID) (snowflake.ID, error)
}

type service struct {
	repository Repository
	catalog    *Catalog
	cooldowns  *CooldownTracker
}

func NewService(repository Repository, catalog *Catalog, cooldowns *CooldownTracker) *service {
	return &service{
		repository: repository,
		catalog:    catalog,
		cooldowns:  cooldowns,
	}
}

func (s *service) Catalog() *Catalog {
	return s.catalog
}

// Perform runs one self-reported action for userID. A cooldown rejection is
// reported through the result's Outcome, not as an error. Keys missing from
// the catalog fail with ErrUnknownAction and start no cooldown.
func (s *service) Perform(ctx context.Context, userID snowflake.ID, key string) (ActionResult, error) {
	action, ok := s.catalog.Lookup(key)
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, key)
	}

	if acquired, remaining := s.cooldowns.Acquire(userID, key); !acquired {
		return ActionResult{
			Action:    action,
			Outcome:   OutcomeRejected,
			Remaining: remaining,
		}, nil
	}

	if action.Kind == KindReset {
		if err := s.repository.SetBalance(ctx, userID, 0); err != nil {
			return ActionResult{}, fmt.Errorf("failed to reset points for %s: %w", userID, err)
		}
		return ActionResult{Action: action, Outcome: OutcomeApplied}, nil
	}

	delta := s.catalog.DeltaFor(key)
	total, err := s.repository.AddDelta(ctx, userID, delta)
	if err != nil {
		return ActionResult{}, fmt.Errorf("failed to apply %s for %s: %w", key, userID, err)
	}

	return ActionResult{
		Action:  action,
		Outcome: OutcomeApplied,
		Delta:   delta,
		Total:   total,
	}, nil
}

func (s *service) Balance(ctx context.Context, userID snowflake.ID) (int64, error) {
	balance, err := s.repository.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance for %s: %w", userID, err)
	}
	return balance, nil
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	standings, err := s.repository.TopN(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	return standings, nil
}

func (s *service) AdminSet(ctx context.Context, actor Actor, target snowflake.ID, value int64) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}
	if err := s.repository.SetBalance(ctx, target, value); err != nil {
		return fmt.Errorf("failed to set points for %s: %w", target, err)
	}
	return nil
}

func (s *service) AdminAdd(ctx context.Context, actor Actor, target snowflake.ID, delta int64) (int64, error) {
	if !actor.Admin {
		return 0, ErrPermissionDenied
	}
	total, err := s.repository.AddDelta(ctx, target, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to add points for %s: %w", target, err)
	}
	return total, nil
}

// ResetAll zeroes every stored balance. There is no confirmation step; the
// actor is logged so the reset can be traced afterwards.
func (s *service) ResetAll(ctx context.Context, actor Actor) (int64, error) {
	if !actor.Admin {
		return 0, ErrPermissionDenied
	}
	affected, err := s.repository.ResetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset all points: %w", err)
	}
	slog.Warn("All points reset",
		slog.String("type", "sys"),
		slog.String("actor_id", actor.ID.String()),
		slog.Int64("affected_rows", affected))
	return affected, nil
}

// Reset zeroes target's balance, or the actor's own when target is nil or the
// actor. Resetting someone else requires admin. It returns whose balance was reset.
func (s *service) Reset(ctx context.Context, actor Actor, target *snowflake.ID) (snowflake.ID, error) {
	userID := actor.ID
	if target != nil && *target != actor.ID {
		if !actor.Admin {
			return 0, ErrPermissionDenied
		}
		userID = *target
	}
	if err := s.repository.SetBalance(ctx, userID, 0); err != nil {
		return 0, fmt.Errorf("failed to reset points for %s: %w", userID, err)
	}
	return userID, nil
}
