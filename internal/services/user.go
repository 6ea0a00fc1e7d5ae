package services

import (
	"context"
	"errors"
	"fmt"

	"vinylshelf/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// listPageSize bounds every list query.
const listPageSize = 10

// userService implements UserService on top of GORM.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a UserService backed by the given database.
func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

// ListUsers returns the newest users first, one page worth.
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("_created_at DESC").
		Limit(listPageSize).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUserByID loads one user, reporting absence as ErrNotFound.
func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUser overwrites the editable fields of an existing user.
func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, form models.UserForm) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"email": form.Email,
			"name":  form.Name,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	logrus.WithField("user_id", id).Info("User updated")
	return nil
}

// DeleteUser removes a user record. Albums owned by the user cascade away
// with it. Never called by the auth flow.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logrus.WithField("user_id", id).Info("User deleted")
	return nil
}

// UpsertFromProvider inserts a user for a new subject or refreshes email
// and name for a known one. The conflict target is the unique sid column,
// so concurrent logins for the same subject cannot create duplicates.
func (s *userService) UpsertFromProvider(ctx context.Context, info *models.UserInfo) (*models.User, error) {
	user := models.User{
		Sid:   info.Sub,
		Email: info.Email,
		Name:  info.Name,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sid"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "_updated_at"}),
		}).
		Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	// Re-read by subject: on the conflict path the insert does not report
	// the surviving row's id.
	var stored models.User
	if err := s.db.WithContext(ctx).First(&stored, "sid = ?", info.Sub).Error; err != nil {
		return nil, fmt.Errorf("failed to reload upserted user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": stored.ID,
		"sub":     stored.Sid,
	}).Info("User upserted from provider")
	return &stored, nil
}
