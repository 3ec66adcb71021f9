package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"

	"github.com/ellavondegurechaff/focusbot/focusbot/database/models"
	"github.com/ellavondegurechaff/focusbot/internal/domain/points"
)

const addDeltaQuery = `INSERT INTO users (user_id, points, last_updated) VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET points = users.points + excluded.points, last_updated = excluded.last_updated
RETURNING points`

type AccountRepository interface {
	points.Repository
	Get(ctx context.Context, userID snowflake.ID) (*models.Account, error)
	Import(ctx context.Context, accounts []*models.Account) (int, error)
	Count(ctx context.Context) (int, error)
}

type accountRepository struct {
	db  *bun.DB
	now func() time.Time
}

func NewAccountRepository(db *bun.DB) AccountRepository {
	return &accountRepository{db: db, now: time.Now}
}

func (r *accountRepository) ensure(ctx context.Context, userID snowflake.ID) error {
	_, err := r.db.NewInsert().
		Model(&models.Account{UserID: int64(userID), LastUpdated: r.now().UTC()}).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *accountRepository) Get(ctx context.Context, userID snowflake.ID) (*models.Account, error) {
	if err := r.ensure(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", userID, err)
	}

	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("user_id = ?", int64(userID)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", userID, err)
	}
	return account, nil
}

// GetBalance reads only the points column so rows with unparseable legacy
// timestamps still resolve.
func (r *accountRepository) GetBalance(ctx context.Context, userID snowflake.ID) (int64, error) {
	if err := r.ensure(ctx, userID); err != nil {
		return 0, fmt.Errorf("failed to create account %s: %w", userID, err)
	}

	var balance int64
	err := r.db.NewSelect().
		Model((*models.Account)(nil)).
		Column("points").
		Where("user_id = ?", int64(userID)).
		Scan(ctx, &balance)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for %s: %w", userID, err)
	}
	return balance, nil
}

func (r *accountRepository) SetBalance(ctx context.Context, userID snowflake.ID, balance int64) error {
	_, err := r.db.NewInsert().
		Model(&models.Account{UserID: int64(userID), Points: balance, LastUpdated: r.now().UTC()}).
		On("CONFLICT (user_id) DO UPDATE").
		Set("points = EXCLUDED.points").
		Set("last_updated = EXCLUDED.last_updated").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set balance for %s: %w", userID, err)
	}
	return nil
}

// AddDelta applies delta in a single upsert so concurrent updates never lose writes.
func (r *accountRepository) AddDelta(ctx context.Context, userID snowflake.ID, delta int64) (int64, error) {
	var total int64
	err := r.db.NewRaw(addDeltaQuery, int64(userID), delta, r.now().UTC()).Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to add %d points for %s: %w", delta, userID, err)
	}
	return total, nil
}

// TopN orders by points descending; ties go to the lower user id.
func (r *accountRepository) TopN(ctx context.Context, limit int) ([]points.Standing, error) {
	if limit <= 0 {
		return []points.Standing{}, nil
	}

	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Column("user_id", "points").
		OrderExpr("points DESC, user_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get top %d accounts: %w", limit, err)
	}

	standings := make([]points.Standing, 0, len(accounts))
	for _, a := range accounts {
		standings = append(standings, points.Standing{
			UserID: snowflake.ID(a.UserID),
			Points: a.Points,
		})
	}
	return standings, nil
}

func (r *accountRepository) ResetAll(ctx context.Context) (int64, error) {
	result, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("points = 0").
		Set("last_updated = ?", r.now().UTC()).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset accounts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

func (r *accountRepository) Count(ctx context.Context) (int, error) {
	return r.db.NewSelect().Model((*models.Account)(nil)).Count(ctx)
}

// Import upserts accounts as given, keeping their timestamps. Existing rows are overwritten.
func (r *accountRepository) Import(ctx context.Context, accounts []*models.Account) (int, error) {
	if len(accounts) == 0 {
		return 0, nil
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&accounts).
			On("CONFLICT (user_id) DO UPDATE").
			Set("points = EXCLUDED.points").
			Set("last_updated = EXCLUDED.last_updated").
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import %d accounts: %w", len(accounts), err)
	}

	slog.Debug("Imported accounts",
		slog.String("type", "db"),
		slog.Int("count", len(accounts)))
	return len(accounts), nil
}
