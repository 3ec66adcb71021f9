package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/ellavondegurechaff/focusbot/focusbot/database"
	"github.com/ellavondegurechaff/focusbot/focusbot/database/models"
	"github.com/ellavondegurechaff/focusbot/focusbot/database/repositories"
)

const defaultBatchSize = 500

var ErrSameDatabase = errors.New("legacy source is the target database")

// timestamp layouts written by the legacy bot, most specific first
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

type legacyUser struct {
	bun.BaseModel `bun:"table:users"`

	UserID      int64          `bun:"user_id"`
	Points      int64          `bun:"points"`
	LastUpdated sql.NullString `bun:"last_updated"`
}

type Stats struct {
	Read        int
	Imported    int
	BadTimes    int
	Batches     int
	StartTime   time.Time
	CompletedAt time.Time
}

func (s Stats) Duration() time.Duration {
	return s.CompletedAt.Sub(s.StartTime)
}

// Migrator copies balances from a legacy points.db into the configured store.
type Migrator struct {
	source    *bun.DB
	target    repositories.AccountRepository
	batchSize int
	dryRun    bool
}

// ValidateSource refuses a legacy path that resolves to the same file as a
// sqlite target. Importing a file into itself would open it read-only and
// read-write at once.
func ValidateSource(source string, target database.DBConfig) error {
	if target.Driver != database.DriverSQLite && target.Driver != "" {
		return nil
	}
	targetPath := target.Path
	if targetPath == "" {
		targetPath = database.DefaultSQLitePath
	}
	if targetPath == ":memory:" {
		return nil
	}

	sourceInfo, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("failed to stat legacy database %s: %w", source, err)
	}
	targetInfo, err := os.Stat(targetPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat target database %s: %w", targetPath, err)
	}
	if os.SameFile(sourceInfo, targetInfo) {
		return fmt.Errorf("%w: %s", ErrSameDatabase, source)
	}
	return nil
}

// OpenLegacy opens the legacy SQLite file read-only.
func OpenLegacy(path string) (*bun.DB, error) {
	_ = sqlite3.SQLiteDriver{}

	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy database %s: %w", path, err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func NewMigrator(source *bun.DB, target repositories.AccountRepository) *Migrator {
	return &Migrator{
		source:    source,
		target:    target,
		batchSize: defaultBatchSize,
	}
}

func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetDryRun makes Migrate read and convert rows without writing them.
func (m *Migrator) SetDryRun(v bool) { m.dryRun = v }

func (m *Migrator) Migrate(ctx context.Context) (Stats, error) {
	stats := Stats{StartTime: time.Now()}
	lastID := int64(-1)

	for {
		var rows []legacyUser
		err := m.source.NewSelect().
			Model(&rows).
			Where("user_id > ?", lastID).
			OrderExpr("user_id ASC").
			Limit(m.batchSize).
			Scan(ctx)
		if err != nil {
			return stats, fmt.Errorf("failed to read legacy users after %d: %w", lastID, err)
		}
		if len(rows) == 0 {
			break
		}

		accounts := make([]*models.Account, 0, len(rows))
		for _, row := range rows {
			updated, ok := parseLegacyTime(row.LastUpdated)
			if !ok {
				stats.BadTimes++
				updated = stats.StartTime.UTC()
			}
			accounts = append(accounts, &models.Account{
				UserID:      row.UserID,
				Points:      row.Points,
				LastUpdated: updated,
			})
		}
		stats.Read += len(rows)
		lastID = rows[len(rows)-1].UserID

		if !m.dryRun {
			n, err := m.target.Import(ctx, accounts)
			if err != nil {
				return stats, err
			}
			stats.Imported += n
		}
		stats.Batches++

		slog.Info("Migrated batch",
			slog.String("type", "db"),
			slog.Int("batch", stats.Batches),
			slog.Int("rows", len(rows)),
			slog.Int("total", stats.Read),
			slog.Bool("dry_run", m.dryRun))

		if len(rows) < m.batchSize {
			break
		}
	}

	stats.CompletedAt = time.Now()
	return stats, nil
}

func parseLegacyTime(v sql.NullString) (time.Time, bool) {
	if !v.Valid {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.String)
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
