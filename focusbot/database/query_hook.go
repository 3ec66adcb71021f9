package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

// SlowQueryThreshold is the duration above which queries are logged at warn level.
const SlowQueryThreshold = 200 * time.Millisecond

// QueryHook logs every bun query with the db log type.
type QueryHook struct{}

var _ bun.QueryHook = (*QueryHook)(nil)

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	took := time.Since(event.StartTime)
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", event.Operation()),
		slog.String("query", event.Query),
		slog.Duration("took", took),
	}

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		slog.Error("Query failed", append(attrs, slog.Any("error", event.Err))...)
	case took > SlowQueryThreshold:
		slog.Warn("Slow query", attrs...)
	default:
		slog.Debug("Query executed", attrs...)
	}
}
