package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
)

type CategoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apierrors.Internal("failed to list categories", err)
	}
	return categories, nil
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	category := &models.Category{
		ID:   uuid.NewString(),
		Name: req.Name,
		Slug: slugify(req.Name),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apierrors.Internal("failed to create category", err)
	}
	return category, nil
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
