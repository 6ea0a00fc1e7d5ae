package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Row is the durable shape of a session record.
type Row struct {
	ID          string    `gorm:"primaryKey;type:text"`
	Data        []byte    `gorm:"type:jsonb;not null"`
	ExpiresAt   time.Time `gorm:"not null"`
	RefreshedAt time.Time `gorm:"column:_refreshed_at;not null"`
	CreatedAt   time.Time `gorm:"column:_created_at;not null"`
}

// TableName explicitly sets the table name for GORM.
func (Row) TableName() string {
	return "sessions"
}

// Backend is the durable half of the session store. FindByID returns
// (nil, nil) for an absent id; DeleteByID treats an absent id as success.
type Backend interface {
	Insert(ctx context.Context, row *Row) error
	Update(ctx context.Context, row *Row) error
	FindByID(ctx context.Context, id string) (*Row, error)
	DeleteByID(ctx context.Context, id string) error
}

// gormBackend persists session rows through GORM.
type gormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a Backend on top of an open database handle.
func NewGormBackend(db *gorm.DB) Backend {
	return &gormBackend{db: db}
}

// Insert writes a new row; a duplicate id fails on the primary key.
func (b *gormBackend) Insert(ctx context.Context, row *Row) error {
	return b.db.WithContext(ctx).Create(row).Error
}

// Update overwrites the mutable columns of an existing row.
func (b *gormBackend) Update(ctx context.Context, row *Row) error {
	return b.db.WithContext(ctx).
		Model(&Row{ID: row.ID}).
		Updates(map[string]interface{}{
			"data":          row.Data,
			"expires_at":    row.ExpiresAt,
			"_refreshed_at": row.RefreshedAt,
		}).Error
}

// FindByID loads one row, reporting absence as (nil, nil).
func (b *gormBackend) FindByID(ctx context.Context, id string) (*Row, error) {
	var row Row
	err := b.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteByID removes the row; deleting an absent id succeeds.
func (b *gormBackend) DeleteByID(ctx context.Context, id string) error {
	return b.db.WithContext(ctx).Delete(&Row{}, "id = ?", id).Error
}
