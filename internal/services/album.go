package services

import (
	"context"
	"errors"
	"fmt"

	"vinylshelf/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// albumService implements AlbumService on top of GORM.
type albumService struct {
	db *gorm.DB
}

// NewAlbumService creates an AlbumService backed by the given database.
func NewAlbumService(db *gorm.DB) AlbumService {
	return &albumService{db: db}
}

// ListAlbums returns the owner's newest albums first, one page worth.
func (s *albumService) ListAlbums(ctx context.Context, ownerID uuid.UUID) ([]models.Album, error) {
	var albums []models.Album
	err := s.db.WithContext(ctx).
		Where("_created_by = ?", ownerID).
		Order("_created_at DESC").
		Limit(listPageSize).
		Find(&albums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return albums, nil
}

// GetAlbumByID loads one album scoped to its owner, reporting absence as
// ErrNotFound.
func (s *albumService) GetAlbumByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Album, error) {
	var album models.Album
	err := s.db.WithContext(ctx).
		Where("id = ? AND _created_by = ?", id, ownerID).
		First(&album).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return &album, nil
}

// CreateAlbum inserts a new album owned by ownerID.
func (s *albumService) CreateAlbum(ctx context.Context, ownerID uuid.UUID, form models.AlbumForm) (*models.Album, error) {
	album := models.Album{
		Title:     form.Title,
		Artist:    form.Artist,
		Year:      form.Year,
		CreatedBy: ownerID,
	}
	if err := s.db.WithContext(ctx).Create(&album).Error; err != nil {
		return nil, fmt.Errorf("failed to create album: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"album_id": album.ID,
		"owner_id": ownerID,
	}).Info("Album created")
	return &album, nil
}

// UpdateAlbum overwrites the editable fields of an album the owner holds.
func (s *albumService) UpdateAlbum(ctx context.Context, ownerID, id uuid.UUID, form models.AlbumForm) error {
	result := s.db.WithContext(ctx).
		Model(&models.Album{}).
		Where("id = ? AND _created_by = ?", id, ownerID).
		Updates(map[string]interface{}{
			"title":  form.Title,
			"artist": form.Artist,
			"year":   form.Year,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update album: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	logrus.WithField("album_id", id).Info("Album updated")
	return nil
}

// DeleteAlbum removes an album record.
func (s *albumService) DeleteAlbum(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&models.Album{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete album: %w", err)
	}

	logrus.WithField("album_id", id).Info("Album deleted")
	return nil
}
