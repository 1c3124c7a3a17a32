package repository

import (
	"context"
	"errors"

	"inertus/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository stores the optional one-per-user profile.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetByUserID returns nil, nil when the user has no profile.
func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

// Upsert creates the profile of profile.UserID or overwrites its fields, then reloads it.
func (r *profileRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"bio", "interests", "avatar_url"}),
	}).Create(profile).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	var saved models.UserProfile
	if err := db.Where("user_id = ?", profile.UserID).First(&saved).Error; err != nil {
		return models.NewInternalError(err)
	}
	*profile = saved
	return nil
}
