package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a local account mirrored from the identity provider. Sid is the
// provider's stable subject identifier and is globally unique; email and
// name are refreshed on every successful login.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Sid       string    `gorm:"uniqueIndex;not null;size:255" json:"sub"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	CreatedAt time.Time `gorm:"column:_created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:_updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an ID when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserForm carries the editable fields of a user record.
type UserForm struct {
	Email string `form:"email" binding:"required,email"`
	Name  string `form:"name" binding:"required,min=2"`
}
