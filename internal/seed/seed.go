// Package seed bootstraps the single-user installation.
package seed

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

const (
	defaultUserID      = 1
	defaultDisplayName = "Owner"
)

// EnsureDefaultUser creates the acting user row when it does not exist
// yet. id falls back to 1 for installations without DEFAULT_USER set.
func EnsureDefaultUser(db *gorm.DB, id int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if id == 0 {
		id = defaultUserID
	}

	ctx := context.Background()
	return db.WithContext(ctx).Exec(`
		INSERT INTO users (id, display_name)
		VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING
	`, id, defaultDisplayName).Error
}
