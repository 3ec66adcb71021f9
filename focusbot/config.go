package focusbot

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ellavondegurechaff/focusbot/focusbot/database"
	"github.com/ellavondegurechaff/focusbot/internal/domain/points"
)

// LoadConfig reads the TOML config at path, then applies environment overrides.
// A missing file is not an error: defaults plus environment are used instead.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	file, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("Config file not found, using defaults",
			slog.String("type", "sys"),
			slog.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("failed to open config: %w", err)
	default:
		defer file.Close()
		if err = toml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err = applyEnv(cfg); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	// .env is optional
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Bot.GuildID != "" {
		guildID, err := snowflake.Parse(cfg.Bot.GuildID)
		if err != nil {
			return fmt.Errorf("invalid FOCUSBOT_GUILD_ID %q: %w", cfg.Bot.GuildID, err)
		}
		cfg.Bot.DevGuilds = append(cfg.Bot.DevGuilds, guildID)
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  slog.LevelInfo,
			Format: "text",
		},
		DB: DBConfig{
			Driver:   "sqlite",
			Path:     database.DefaultSQLitePath,
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "focusbot",
			PoolSize: 10,
		},
		Points: PointsConfig{
			CooldownSeconds:        10,
			CleanupIntervalSeconds: 60,
			LeaderboardSize:        10,
			EphemeralDefault:       true,
		},
	}
}

type Config struct {
	Log    LogConfig    `toml:"log"`
	Bot    BotConfig    `toml:"bot"`
	DB     DBConfig     `toml:"db"`
	Points PointsConfig `toml:"points"`
}

// Validate checks the store and points settings. The bot token is checked
// separately by ValidateBot so offline tools can share the config.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.Points.CooldownSeconds < 0 {
		return fmt.Errorf("points.cooldown_seconds must not be negative, got %v", c.Points.CooldownSeconds)
	}
	return nil
}

func (c *Config) ValidateBot() error {
	if c.Bot.Token == "" {
		return errors.New("bot token is not set (config bot.token or DISCORD_TOKEN)")
	}
	return nil
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token" env:"DISCORD_TOKEN"`
	GuildID   string         `toml:"-" env:"FOCUSBOT_GUILD_ID"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Driver   string `toml:"driver" env:"FOCUSBOT_DB_DRIVER"`
	Path     string `toml:"path" env:"FOCUSBOT_DB_PATH"`
	Host     string `toml:"host" env:"FOCUSBOT_DB_HOST"`
	Port     int    `toml:"port" env:"FOCUSBOT_DB_PORT"`
	User     string `toml:"user" env:"FOCUSBOT_DB_USER"`
	Password string `toml:"password" env:"FOCUSBOT_DB_PASSWORD"`
	Database string `toml:"database" env:"FOCUSBOT_DB_NAME"`
	PoolSize int    `toml:"pool_size"`
}

func (c DBConfig) DatabaseConfig() database.DBConfig {
	return database.DBConfig{
		Driver:   c.Driver,
		Path:     c.Path,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		PoolSize: c.PoolSize,
	}
}

type PointsConfig struct {
	CooldownSeconds        float64        `toml:"cooldown_seconds"`
	CleanupIntervalSeconds int            `toml:"cleanup_interval_seconds"`
	LeaderboardSize        int            `toml:"leaderboard_size"`
	EphemeralDefault       bool           `toml:"ephemeral_default"`
	Actions                []ActionConfig `toml:"actions"`
}

func (c PointsConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds * float64(time.Second))
}

func (c PointsConfig) CleanupInterval() time.Duration {
	if c.CleanupIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// Catalog builds the action catalog, falling back to the built-in actions
// when the config does not list any.
func (c PointsConfig) Catalog() (*points.Catalog, error) {
	if len(c.Actions) == 0 {
		actions := points.DefaultActions()
		for i := range actions {
			actions[i].Ephemeral = c.EphemeralDefault
		}
		return points.NewCatalog(actions)
	}

	actions := make([]points.Action, 0, len(c.Actions))
	for _, a := range c.Actions {
		actions = append(actions, a.toAction(c.EphemeralDefault))
	}
	return points.NewCatalog(actions)
}

type ActionConfig struct {
	Key       string `toml:"key"`
	Label     string `toml:"label"`
	Delta     int64  `toml:"delta"`
	Style     string `toml:"style"`
	Reset     bool   `toml:"reset"`
	Ephemeral *bool  `toml:"ephemeral"`
}

func (a ActionConfig) toAction(ephemeralDefault bool) points.Action {
	action := points.Action{
		Key:       a.Key,
		Label:     a.Label,
		Delta:     a.Delta,
		Kind:      points.KindDelta,
		Style:     points.Style(a.Style),
		Ephemeral: ephemeralDefault,
	}
	if a.Reset {
		action.Kind = points.KindReset
		action.Delta = 0
	}
	if a.Ephemeral != nil {
		action.Ephemeral = *a.Ephemeral
	}
	if action.Label == "" {
		action.Label = a.Key
	}
	if action.Style == "" {
		action.Style = points.StylePrimary
	}
	return action
}
