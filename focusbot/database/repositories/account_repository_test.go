package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/focusbot/focusbot/database"
	"github.com/ellavondegurechaff/focusbot/focusbot/database/models"
	"github.com/ellavondegurechaff/focusbot/internal/domain/points"
)

func newTestRepository(t *testing.T) AccountRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.DBConfig{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.InitializeSchema(ctx))
	return NewAccountRepository(db.BunDB())
}

func TestAccountRepository_GetBalanceCreatesRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, balance)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAccountRepository_AddDelta(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	var total int64
	for _, delta := range []int64{-15, 5, -10} {
		var err error
		total, err = repo.AddDelta(ctx, 7, delta)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(-20), total)

	balance, err := repo.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(-20), balance)
}

func TestAccountRepository_AddDeltaConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.AddDelta(ctx, 9, 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := repo.GetBalance(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*5), balance)
}

func TestAccountRepository_SetBalance(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, value := range []int64{100, -5, 0} {
		require.NoError(t, repo.SetBalance(ctx, 3, value))
		got, err := repo.GetBalance(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
}

func TestAccountRepository_ResetAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.SetBalance(ctx, 1, 40))
	require.NoError(t, repo.SetBalance(ctx, 2, -30))
	require.NoError(t, repo.SetBalance(ctx, 3, 0))

	affected, err := repo.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	for _, id := range []snowflake.ID{1, 2, 3} {
		got, err := repo.GetBalance(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, got)
	}
}

func TestAccountRepository_TopN(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	const (
		a = snowflake.ID(1)
		b = snowflake.ID(2)
		c = snowflake.ID(3)
		d = snowflake.ID(4)
	)
	require.NoError(t, repo.SetBalance(ctx, a, 50))
	require.NoError(t, repo.SetBalance(ctx, b, -10))
	require.NoError(t, repo.SetBalance(ctx, c, 0))
	require.NoError(t, repo.SetBalance(ctx, d, 50))

	got, err := repo.TopN(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []points.Standing{
		{UserID: a, Points: 50},
		{UserID: d, Points: 50},
		{UserID: c, Points: 0},
	}, got)

	empty, err := repo.TopN(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAccountRepository_Import(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.SetBalance(ctx, 1, 99))

	stamp := time.Date(2023, 5, 1, 10, 30, 0, 0, time.UTC)
	n, err := repo.Import(ctx, []*models.Account{
		{UserID: 1, Points: -45, LastUpdated: stamp},
		{UserID: 2, Points: 15, LastUpdated: stamp},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	account, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-45), account.Points)
	assert.True(t, stamp.Equal(account.LastUpdated), "got %s", account.LastUpdated)

	balance, err := repo.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(15), balance)
}

func TestAccountRepository_ImportBatchLedByZero(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.SetBalance(ctx, 2, 99))

	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n, err := repo.Import(ctx, []*models.Account{
		{UserID: 1, Points: 0, LastUpdated: stamp},
		{UserID: 2, Points: 15, LastUpdated: stamp},
		{UserID: 3, Points: -40, LastUpdated: stamp},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for id, want := range map[snowflake.ID]int64{1: 0, 2: 15, 3: -40} {
		got, err := repo.GetBalance(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "user %s", id)
	}
}

func TestAccountRepository_LegacyTimestamps(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "points.db")

	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY,
		points INTEGER NOT NULL DEFAULT 0,
		last_updated TEXT
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO users (user_id, points, last_updated) VALUES
		(42, -35, '2024-03-05T10:11:12.123456'),
		(43, 10, '2024-03-06T08:00:00')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	db, err := database.New(ctx, database.DBConfig{Driver: database.DriverSQLite, Path: path})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.InitializeSchema(ctx))
	repo := NewAccountRepository(db.BunDB())

	balance, err := repo.GetBalance(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(-35), balance)

	top, err := repo.TopN(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []points.Standing{
		{UserID: 43, Points: 10},
		{UserID: 42, Points: -35},
	}, top)

	account, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	want := time.Date(2024, 3, 5, 10, 11, 12, 123456000, time.UTC)
	assert.True(t, want.Equal(account.LastUpdated), "got %s", account.LastUpdated)
}
