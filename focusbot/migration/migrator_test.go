package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/focusbot/focusbot/database"
	"github.com/ellavondegurechaff/focusbot/focusbot/database/repositories"
)

func writeLegacyDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "points.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		points INTEGER NOT NULL DEFAULT 0,
		last_updated TEXT
	)`)
	require.NoError(t, err)

	rows := []struct {
		id      int64
		points  int64
		updated any
	}{
		{111, -45, "2024-03-01T09:15:30.123456"},
		{222, 20, "2024-03-02T10:00:00"},
		{333, 0, nil},
		{444, 15, "not a time"},
		{555, -80, "2024-03-05T18:45:00.5"},
	}
	for _, r := range rows {
		_, err = db.Exec("INSERT INTO users (user_id, points, last_updated) VALUES (?, ?, ?)", r.id, r.points, r.updated)
		require.NoError(t, err)
	}
	return path
}

func newTarget(t *testing.T) repositories.AccountRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.DBConfig{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.InitializeSchema(ctx))

	return repositories.NewAccountRepository(db.BunDB())
}

func TestMigrator_Migrate(t *testing.T) {
	ctx := context.Background()

	source, err := OpenLegacy(writeLegacyDB(t))
	require.NoError(t, err)
	defer source.Close()

	target := newTarget(t)
	m := NewMigrator(source, target)
	m.SetBatchSize(2)

	stats, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Read)
	assert.Equal(t, 5, stats.Imported)
	assert.Equal(t, 3, stats.Batches)
	assert.Equal(t, 2, stats.BadTimes)

	want := map[int64]int64{111: -45, 222: 20, 333: 0, 444: 15, 555: -80}
	for id, pts := range want {
		account, err := target.Get(ctx, snowflakeID(id))
		require.NoError(t, err)
		assert.Equal(t, pts, account.Points, "user %d", id)
	}

	account, err := target.Get(ctx, snowflakeID(111))
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 1, 9, 15, 30, 123456000, time.UTC).Equal(account.LastUpdated))
}

func TestMigrator_DryRun(t *testing.T) {
	ctx := context.Background()

	source, err := OpenLegacy(writeLegacyDB(t))
	require.NoError(t, err)
	defer source.Close()

	target := newTarget(t)
	m := NewMigrator(source, target)
	m.SetDryRun(true)

	stats, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Read)
	assert.Zero(t, stats.Imported)
	assert.Equal(t, 1, stats.Batches)

	count, err := target.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestParseLegacyTime(t *testing.T) {
	got, ok := parseLegacyTime(sql.NullString{String: "2024-01-02T03:04:05.000001", Valid: true})
	require.True(t, ok)
	assert.Equal(t, 1000, got.Nanosecond())

	_, ok = parseLegacyTime(sql.NullString{})
	assert.False(t, ok)
}

func snowflakeID(id int64) snowflake.ID {
	return snowflake.ID(id)
}

func TestValidateSource(t *testing.T) {
	source := writeLegacyDB(t)

	t.Run("same file through another path", func(t *testing.T) {
		dir, name := filepath.Split(source)
		target := database.DBConfig{Driver: database.DriverSQLite, Path: dir + "." + string(filepath.Separator) + name}
		assert.ErrorIs(t, ValidateSource(source, target), ErrSameDatabase)
	})

	t.Run("separate target file", func(t *testing.T) {
		target := database.DBConfig{Driver: database.DriverSQLite, Path: writeLegacyDB(t)}
		assert.NoError(t, ValidateSource(source, target))
	})

	t.Run("target not created yet", func(t *testing.T) {
		target := database.DBConfig{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "new.db")}
		assert.NoError(t, ValidateSource(source, target))
	})

	t.Run("postgres target", func(t *testing.T) {
		target := database.DBConfig{Driver: database.DriverPostgres, Path: source}
		assert.NoError(t, ValidateSource(source, target))
	})

	t.Run("missing source", func(t *testing.T) {
		target := database.DBConfig{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "new.db")}
		assert.Error(t, ValidateSource(filepath.Join(t.TempDir(), "absent.db"), target))
	})
}
