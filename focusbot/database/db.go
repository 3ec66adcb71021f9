package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/ellavondegurechaff/focusbot/focusbot/database/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultSQLitePath = "points.db"

	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	initTimeout          = 10 * time.Second
)

type DBConfig struct {
	Driver string

	// sqlite
	Path string

	// postgres
	Host     string
	Port     int
	User     string
	Password string
	Database string
	PoolSize int
}

// DB wraps a bun handle over either SQLite or PostgreSQL. The pgx pool is
// only set for postgres.
type DB struct {
	driver string
	pool   *pgxpool.Pool
	bunDB  *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	var (
		db  *DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		db, err = newSQLite(ctx, cfg.Path)
	case DriverPostgres:
		db, err = newPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	db.bunDB.AddQueryHook(&QueryHook{})
	return db, nil
}

func newSQLite(ctx context.Context, path string) (*DB, error) {
	_ = sqlite3.SQLiteDriver{}

	if path == "" {
		path = DefaultSQLitePath
	}
	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// every connection to :memory: is a separate database
	if path == ":memory:" {
		sqldb.SetMaxOpenConns(1)
	} else {
		sqldb.SetMaxOpenConns(5)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	for _, p := range pragmas {
		if _, err = sqldb.ExecContext(initCtx, p); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", p, err)
		}
	}

	return &DB{
		driver: DriverSQLite,
		bunDB:  bun.NewDB(sqldb, sqlitedialect.New()),
	}, nil
}

func newPostgres(ctx context.Context, cfg DBConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for i := 0; i < defaultMaxRetries; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		slog.Warn("Database not reachable, retrying",
			slog.String("type", "db"),
			slog.Int("attempt", i+1),
			slog.Any("error", err))
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}

	sqldb := stdlib.OpenDBFromPool(pool)
	return &DB{
		driver: DriverPostgres,
		pool:   pool,
		bunDB:  bun.NewDB(sqldb, pgdialect.New()),
	}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Ping(ctx context.Context) error {
	return db.bunDB.PingContext(ctx)
}

func (db *DB) Close() {
	if db.bunDB != nil {
		db.bunDB.Close()
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

// InitializeSchema creates the accounts table and its indexes if missing.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []any{
		(*models.Account)(nil),
	}

	for _, model := range tables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if db.driver == DriverSQLite {
		if err := db.normalizeLegacyTimestamps(ctx); err != nil {
			return err
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC, user_id ASC);",
	}
	for _, idx := range indexes {
		if _, err := db.bunDB.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	slog.Info("Database schema initialized",
		slog.String("type", "db"),
		slog.String("driver", db.driver))
	return nil
}

// normalizeLegacyTimestamps rewrites the naive "YYYY-MM-DDTHH:MM:SS[.ffffff]"
// values left by the legacy bot into the space separated form bun can scan.
// Offset-qualified values already parse and are left alone.
func (db *DB) normalizeLegacyTimestamps(ctx context.Context) error {
	result, err := db.bunDB.ExecContext(ctx,
		"UPDATE users SET last_updated = replace(last_updated, 'T', ' ') "+
			"WHERE typeof(last_updated) = 'text' AND substr(last_updated, 11, 1) = 'T' "+
			"AND length(last_updated) <= 26")
	if err != nil {
		return fmt.Errorf("failed to normalize legacy timestamps: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		slog.Info("Normalized legacy timestamps",
			slog.String("type", "db"),
			slog.Int64("rows", n))
	}
	return nil
}
