package focusbot

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/focusbot/internal/domain/points"
)

const sampleConfig = `
[log]
level = "debug"
format = "json"

[bot]
token = "file-token"
dev_guilds = [123]

[db]
driver = "sqlite"
path = "focus.db"

[points]
cooldown_seconds = 2.5
leaderboard_size = 5
ephemeral_default = false

[[points.actions]]
key = "doomscroll"
label = "Doomscroll"
delta = -20
style = "danger"

[[points.actions]]
key = "study"
delta = 10
ephemeral = true

[[points.actions]]
key = "reset"
label = "Start over"
reset = true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "file-token", cfg.Bot.Token)
	assert.Equal(t, []snowflake.ID{123}, cfg.Bot.DevGuilds)
	assert.Equal(t, "focus.db", cfg.DB.Path)
	assert.Equal(t, 2500*time.Millisecond, cfg.Points.Cooldown())
	assert.Equal(t, time.Minute, cfg.Points.CleanupInterval())

	catalog, err := cfg.Points.Catalog()
	require.NoError(t, err)
	require.Equal(t, 3, catalog.Len())

	doom, ok := catalog.Lookup("doomscroll")
	require.True(t, ok)
	assert.Equal(t, int64(-20), doom.Delta)
	assert.Equal(t, points.StyleDanger, doom.Style)
	assert.False(t, doom.Ephemeral)

	study, _ := catalog.Lookup("study")
	assert.Equal(t, "study", study.Label)
	assert.Equal(t, points.StylePrimary, study.Style)
	assert.True(t, study.Ephemeral)

	reset, _ := catalog.Lookup("reset")
	assert.Equal(t, points.KindReset, reset.Kind)
	assert.Zero(t, catalog.DeltaFor("reset"))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("FOCUSBOT_GUILD_ID", "456")
	t.Setenv("FOCUSBOT_DB_PATH", "/data/points.db")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, []snowflake.ID{123, 456}, cfg.Bot.DevGuilds)
	assert.Equal(t, "/data/points.db", cfg.DB.Path)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-token")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateBot())

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, points.DefaultCooldown, cfg.Points.Cooldown())

	catalog, err := cfg.Points.Catalog()
	require.NoError(t, err)
	assert.Equal(t, len(points.DefaultActions()), catalog.Len())
	assert.Equal(t, int64(-80), catalog.DeltaFor("double_dare"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ValidateBot())

	cfg.DB.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Points.CooldownSeconds = -1
	assert.Error(t, cfg.Validate())

	cfg, err := LoadConfig(writeConfig(t, "[[points.actions]]\nkey = \"a/b\"\n"))
	require.NoError(t, err)
	_, err = cfg.Points.Catalog()
	assert.ErrorIs(t, err, points.ErrInvalidCatalog)
}
