package migrations

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Run applies all migrations in order. Each step is idempotent, so running
// against an up-to-date database is a no-op.
func Run(db *gorm.DB) error {
	steps := []struct {
		name string
		up   func(*gorm.DB) error
	}{
		{"create_users_table", CreateUsersTable},
		{"create_sessions_table", CreateSessionsTable},
		{"create_albums_table", CreateAlbumsTable},
	}

	for _, step := range steps {
		logrus.WithField("migration", step.name).Info("Applying migration")
		if err := step.up(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", step.name, err)
		}
	}

	logrus.Info("Database migrations completed")
	return nil
}
