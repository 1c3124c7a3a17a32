package repository

import (
	"context"

	"inertus/internal/models"

	"gorm.io/gorm"
)

type ResourceRepository interface {
	Create(ctx context.Context, resource *models.Resource) error
	List(ctx context.Context, limit, offset int) ([]models.Resource, error)
}

type resourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	return wrapInternal(r.db.WithContext(ctx).Create(resource).Error)
}

// List returns resources newest first.
func (r *resourceRepository) List(ctx context.Context, limit, offset int) ([]models.Resource, error) {
	var resources []models.Resource
	q := r.db.WithContext(ctx).Preload("User").Order(newestFirst("resources"))
	if err := paginate(q, limit, offset).Find(&resources).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return resources, nil
}
