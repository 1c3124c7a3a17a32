package service

import (
	"context"

	"inertus/internal/models"
	"inertus/internal/repository"
)

type ResourceService struct {
	resourceRepo repository.ResourceRepository
}

type CreateResourceInput struct {
	UserID      uint
	Title       string
	Description string
	URL         string
}

func NewResourceService(resourceRepo repository.ResourceRepository) *ResourceService {
	return &ResourceService{resourceRepo: resourceRepo}
}

func (s *ResourceService) AddResource(ctx context.Context, in CreateResourceInput) (*models.Resource, error) {
	resource := &models.Resource{
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		UserID:      in.UserID,
	}
	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

func (s *ResourceService) ListResources(ctx context.Context, limit, offset int) ([]models.Resource, error) {
	return s.resourceRepo.List(ctx, limit, offset)
}
