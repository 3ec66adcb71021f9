package points

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock

// Repository persists one balance per user. Rows are created lazily with 0 points.
type Repository interface {
	GetBalance(ctx context.Context, userID snowflake.ID) (int64, error)
	SetBalance(ctx context.Context, userID snowflake.ID, points int64) error
	AddDelta(ctx context.Context, userID snowflake.ID, delta int64) (int64, error)
	TopN(ctx context.Context, limit int) ([]Standing, error)
	ResetAll(ctx context.Context) (int64, error)
}

// Directory resolves user ids to display names for rendering.
type Directory interface {
	DisplayName(ctx context.Context, guildID *snowflake.ID, userID snowflake.ID) (string, bool)
}
