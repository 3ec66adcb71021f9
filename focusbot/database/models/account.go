package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Account is one user's points balance. The table keeps the legacy "users" name
// so existing databases can be opened in place.
//
// Points must not carry a default tag: bun omits a defaulted column from a
// multi-row insert whose first row holds the zero value.
type Account struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UserID      int64     `bun:"user_id,pk"`
	Points      int64     `bun:"points,notnull"`
	LastUpdated time.Time `bun:"last_updated,nullzero"`
}
