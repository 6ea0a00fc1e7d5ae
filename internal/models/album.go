package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Album is a record in a user's collection. Every album belongs to exactly
// one user and is removed when that user is deleted.
type Album struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"not null;size:255" json:"title"`
	Artist    string    `gorm:"not null;size:255" json:"artist"`
	Year      int       `gorm:"not null" json:"year"`
	CreatedBy uuid.UUID `gorm:"column:_created_by;type:uuid;not null;index" json:"created_by"`
	CreatedAt time.Time `gorm:"column:_created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:_updated_at;autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:CreatedBy;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Album) TableName() string {
	return "albums"
}

// BeforeCreate assigns an ID when the caller did not.
func (a *Album) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AlbumForm carries the editable fields of an album record.
type AlbumForm struct {
	Title  string `form:"title" binding:"required"`
	Artist string `form:"artist" binding:"required"`
	Year   int    `form:"year" binding:"required"`
}
