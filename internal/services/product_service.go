package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
)

// ProductService exposes catalog reads to the storefront and CRUD to
// admins.
type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("product not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to load product", err)
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]models.Product, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	products, total, err := s.products.List(ctx, params)
	if err != nil {
		return nil, 0, apierrors.Internal("failed to list products", err)
	}
	return products, total, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req models.ProductCreateRequest) (*models.Product, error) {
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       models.Round2(req.Price),
		Stock:       req.Stock,
		Images:      req.Images,
		Category:    req.Category,
		Variants:    req.Variants,
		IsActive:    true,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, apierrors.Internal("failed to create product", err)
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, req models.ProductUpdateRequest) (*models.Product, error) {
	updates := bson.M{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = models.Round2(*req.Price)
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Images != nil {
		updates["images"] = *req.Images
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Variants != nil {
		updates["variants"] = *req.Variants
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return nil, apierrors.BadRequest("no fields to update")
	}

	err := s.products.Update(ctx, id, updates)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("product not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to update product", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apierrors.NotFound("product not found")
	}
	if err != nil {
		return apierrors.Internal("failed to delete product", err)
	}
	return nil
}
