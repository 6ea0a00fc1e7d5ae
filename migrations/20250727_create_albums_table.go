package migrations

import (
	"vinylshelf/internal/models"

	"gorm.io/gorm"
)

// CreateAlbumsTable creates the albums table with its cascade foreign key
// to users.
func CreateAlbumsTable(tx *gorm.DB) error {
	return tx.AutoMigrate(&models.Album{})
}

// DropAlbumsTable removes the albums table.
func DropAlbumsTable(tx *gorm.DB) error {
	return tx.Migrator().DropTable("albums")
}
