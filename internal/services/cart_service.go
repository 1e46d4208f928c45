package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/logger"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
)

// CartService owns per-user carts: line upserts keyed by
// (product, variant), quantity updates, removal, and best-effort sync
// against the catalog. Totals are recomputed on every mutation before
// the cart is saved.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// GetOrCreate returns the user's cart, creating an empty one when none
// exists. Never fails on a missing cart.
func (s *CartService) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, apierrors.Internal("failed to load cart", err)
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	}
	return cart, nil
}

// AddItem upserts a line for (productID, variant). The unit price is
// snapshotted from the catalog at insertion; re-adding an existing key
// merges quantities instead of creating a second line.
func (s *CartService) AddItem(ctx context.Context, userID string, req models.AddCartItemRequest) (*models.Cart, error) {
	if req.Quantity <= 0 {
		return nil, apierrors.BadRequest("quantity must be greater than zero")
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("product not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to load product", err)
	}
	if !product.IsActive {
		return nil, apierrors.NotFound("product not found")
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindMatch(req.ProductID, req.SelectedVariant)
	requested := req.Quantity
	if idx >= 0 {
		requested += cart.Items[idx].Quantity
	}
	if requested > product.Stock {
		return nil, apierrors.InsufficientStock(product.Name)
	}

	if idx >= 0 {
		cart.Items[idx].Quantity = requested
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ID:              uuid.NewString(),
			ProductID:       product.ID,
			Name:            product.Name,
			Image:           product.MainImage(),
			SelectedVariant: req.SelectedVariant,
			Quantity:        req.Quantity,
			UnitPrice:       product.Price,
			AddedAt:         time.Now(),
		})
	}

	cart.RecomputeTotals()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apierrors.Internal("failed to save cart", err)
	}
	return cart, nil
}

// UpdateItemQuantity sets a line's quantity, re-validating stock. A
// quantity of zero or less removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, apierrors.NotFound("cart item not found")
	}

	if quantity <= 0 {
		return s.removeAt(ctx, cart, idx)
	}

	product, err := s.products.FindByID(ctx, cart.Items[idx].ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("product not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to load product", err)
	}
	if !product.IsActive {
		return nil, apierrors.NotFound("product not found")
	}
	if quantity > product.Stock {
		return nil, apierrors.InsufficientStock(product.Name)
	}

	cart.Items[idx].Quantity = quantity
	cart.RecomputeTotals()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apierrors.Internal("failed to save cart", err)
	}
	return cart, nil
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, apierrors.NotFound("cart item not found")
	}
	return s.removeAt(ctx, cart, idx)
}

func (s *CartService) removeAt(ctx context.Context, cart *models.Cart, idx int) (*models.Cart, error) {
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	cart.RecomputeTotals()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apierrors.Internal("failed to save cart", err)
	}
	return cart, nil
}

// Clear empties the cart's lines. The cart itself survives.
func (s *CartService) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Items = []models.CartItem{}
	cart.RecomputeTotals()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apierrors.Internal("failed to save cart", err)
	}
	return cart, nil
}

// Sync bulk-replaces the cart with the caller's lines, best effort:
// lines whose product is missing, inactive, or short-stocked are
// dropped without surfacing an error. The caller's local state is the
// source of truth here.
func (s *CartService) Sync(ctx context.Context, userID string, req models.SyncCartRequest) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := []models.CartItem{}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			continue
		}

		product, err := s.products.FindByID(ctx, line.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apierrors.Internal("failed to load product", err)
		}
		if !product.IsActive || line.Quantity > product.Stock {
			logger.Log.Info("dropping cart line during sync",
				zap.String("user_id", userID),
				zap.String("product_id", line.ProductID),
				zap.Int("quantity", line.Quantity))
			continue
		}

		// Merge duplicate (product, variant) keys within the payload.
		merged := false
		for i := range items {
			if items[i].Matches(line.ProductID, line.SelectedVariant) {
				items[i].Quantity += line.Quantity
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		items = append(items, models.CartItem{
			ID:              uuid.NewString(),
			ProductID:       product.ID,
			Name:            product.Name,
			Image:           product.MainImage(),
			SelectedVariant: line.SelectedVariant,
			Quantity:        line.Quantity,
			UnitPrice:       product.Price,
			AddedAt:         time.Now(),
		})
	}

	cart.Items = items
	cart.RecomputeTotals()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, apierrors.Internal("failed to save cart", err)
	}
	return cart, nil
}

// CheckoutSession prices the current cart and pre-flights stock
// availability. Any short line fails the call with a list of the
// unavailable products; this is advisory only, the order builder
// re-validates authoritatively.
func (s *CartService) CheckoutSession(ctx context.Context, userID string, method models.PaymentMethod) (*models.Cart, *PriceBreakdown, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	unavailable := []string{}
	for _, item := range cart.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			unavailable = append(unavailable, item.Name)
			continue
		}
		if err != nil {
			return nil, nil, apierrors.Internal("failed to load product", err)
		}
		if product.Stock < item.Quantity {
			unavailable = append(unavailable, product.Name)
		}
	}
	if len(unavailable) > 0 {
		return nil, nil, apierrors.OutOfStock(fmt.Sprintf("items out of stock: %v", unavailable))
	}

	pricing := ComputePricing(cart.TotalPrice, method)
	return cart, &pricing, nil
}
