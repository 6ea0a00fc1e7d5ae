package migrations

import (
	"vinylshelf/internal/models"

	"gorm.io/gorm"
)

// CreateUsersTable creates the users table with unique subject and email
// indexes.
func CreateUsersTable(tx *gorm.DB) error {
	return tx.AutoMigrate(&models.User{})
}

// DropUsersTable removes the users table.
func DropUsersTable(tx *gorm.DB) error {
	return tx.Migrator().DropTable("users")
}
