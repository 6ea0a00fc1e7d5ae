package migrations

import (
	"vinylshelf/internal/session"

	"gorm.io/gorm"
)

// CreateSessionsTable creates the durable half of the session store.
func CreateSessionsTable(tx *gorm.DB) error {
	return tx.AutoMigrate(&session.Row{})
}

// DropSessionsTable removes the sessions table.
func DropSessionsTable(tx *gorm.DB) error {
	return tx.Migrator().DropTable("sessions")
}
