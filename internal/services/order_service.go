package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/events"
	"github.com/cartz/cartz-backend/internal/logger"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
)

// OrderListResponse is a paginated page of orders.
type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"totalOrders"`
	TotalPages  int64 `json:"totalPages"`
	HasMore     bool  `json:"hasMore"`
}

// OrderService builds orders from validated line items, adjusts
// inventory in lockstep with order creation and cancellation, and
// drives the guarded status machine.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	events   events.Publisher

	// allowUncatalogued accepts order lines whose product is absent
	// from the catalog, trusting the client snapshot. Such lines are
	// marked and never touch stock.
	allowUncatalogued bool
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	publisher events.Publisher,
	allowUncatalogued bool,
) *OrderService {
	return &OrderService{
		orders:            orders,
		products:          products,
		carts:             carts,
		events:            publisher,
		allowUncatalogued: allowUncatalogued,
	}
}

var orderSeq uint64

// nextOrderNumber generates a human-facing order number: "CZ", the UTC
// second, and a per-process monotonic counter. Unique within a process
// lifetime; cross-process collisions additionally require the same
// wall-clock second, and the unique index on order_number is the
// backstop.
func nextOrderNumber(now time.Time) string {
	n := atomic.AddUint64(&orderSeq, 1)
	return fmt.Sprintf("CZ%s%05d", now.UTC().Format("060102150405"), n%100000)
}

// CreateOrder converts validated line items plus shipping/payment info
// into a persisted order, decrementing stock per catalogued line.
// Stock is taken with atomic conditional decrements before the order
// is persisted; if any line comes up short, the lines already taken
// are restored and the whole order fails. Client-supplied prices are
// never used for catalogued lines.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, apierrors.BadRequest("at least one item is required")
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, apierrors.BadRequest("invalid payment method")
	}

	orderItems := make([]models.OrderItem, 0, len(req.Items))
	itemsPrice := 0.0
	for _, line := range req.Items {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			if !s.allowUncatalogued {
				return nil, apierrors.NotFound(fmt.Sprintf("product not found: %s", line.ProductID))
			}
			// Client snapshot accepted verbatim; line skips inventory.
			orderItems = append(orderItems, models.OrderItem{
				ProductID:       line.ProductID,
				Name:            line.Name,
				Image:           line.Image,
				UnitPrice:       models.Round2(line.Price),
				Quantity:        line.Quantity,
				SelectedVariant: line.SelectedVariant,
				Catalogued:      false,
			})
			itemsPrice += models.Round2(line.Price) * float64(line.Quantity)
			continue
		}
		if err != nil {
			return nil, apierrors.Internal("failed to load product", err)
		}

		if product.Stock < line.Quantity {
			return nil, apierrors.InsufficientStock(product.Name)
		}

		orderItems = append(orderItems, models.OrderItem{
			ProductID:       product.ID,
			Name:            product.Name,
			Image:           product.MainImage(),
			UnitPrice:       product.Price,
			Quantity:        line.Quantity,
			SelectedVariant: line.SelectedVariant,
			Catalogued:      true,
		})
		itemsPrice += product.Price * float64(line.Quantity)
	}

	pricing := ComputePricing(itemsPrice, req.PaymentMethod)

	now := time.Now()
	order := &models.Order{
		ID:              uuid.NewString(),
		OrderNumber:     nextOrderNumber(now),
		UserID:          userID,
		Items:           orderItems,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentResult:   req.PaymentResult,
		ItemsPrice:      pricing.ItemsPrice,
		TaxPrice:        pricing.TaxPrice,
		ShippingPrice:   pricing.ShippingPrice,
		DiscountAmount:  pricing.DiscountAmount,
		TotalPrice:      pricing.TotalPrice,
		Status:          models.OrderStatusPending,
	}

	if req.PaymentMethod != models.PaymentMethodCOD &&
		req.PaymentResult != nil && req.PaymentResult.Status == "completed" {
		order.Status = models.OrderStatusProcessing
		order.PaymentStatus = models.PaymentStatusPaid
		order.PaidAt = &now
	}

	order.StatusHistory = []models.StatusHistoryEntry{
		{Status: order.Status, Timestamp: now, Note: "order created"},
	}

	// Take stock before persisting; compensate on partial failure.
	taken := make([]models.OrderItem, 0, len(orderItems))
	for _, item := range orderItems {
		if !item.Catalogued {
			continue
		}
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.restoreItems(ctx, taken)
			if errors.Is(err, repository.ErrInsufficientStock) || errors.Is(err, repository.ErrNotFound) {
				return nil, apierrors.InsufficientStock(item.Name)
			}
			return nil, apierrors.Internal("failed to reserve stock", err)
		}
		taken = append(taken, item)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.restoreItems(ctx, taken)
		return nil, apierrors.Internal("failed to create order", err)
	}

	// Post-commit side effects are best effort.
	if err := s.carts.DeleteCart(ctx, userID); err != nil {
		logger.Log.Warn("failed to clear cart after order",
			zap.String("user_id", userID),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
	s.publish(ctx, "order.created", order)

	return order, nil
}

// restoreItems puts stock back for every catalogued line, both when
// compensating a partly-failed creation and on cancel/return.
// Uncatalogued lines never took stock, so they are skipped.
func (s *OrderService) restoreItems(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if !item.Catalogued {
			continue
		}
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Log.Error("failed to restore stock during compensation",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (s *OrderService) publish(ctx context.Context, event string, order *models.Order) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.OrderEvent{
		Event:       event,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      string(order.Status),
		Timestamp:   time.Now(),
	})
	if err != nil {
		logger.Log.Warn("failed to publish order event",
			zap.String("event", event),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

// GetUserOrders returns the user's orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string, params repository.ListOrdersParams) (*OrderListResponse, error) {
	orders, total, err := s.orders.FindByUserID(ctx, userID, params)
	if err != nil {
		return nil, apierrors.Internal("failed to fetch orders", err)
	}
	return pageOf(orders, total, params), nil
}

// GetAllOrders returns every order, newest first. Admin only; the
// caller enforces the role.
func (s *OrderService) GetAllOrders(ctx context.Context, params repository.ListOrdersParams) (*OrderListResponse, error) {
	orders, total, err := s.orders.FindAll(ctx, params)
	if err != nil {
		return nil, apierrors.Internal("failed to fetch orders", err)
	}
	return pageOf(orders, total, params), nil
}

func pageOf(orders []models.Order, total int64, params repository.ListOrdersParams) *OrderListResponse {
	return &OrderListResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        params.Page,
			Limit:       params.Limit,
			TotalOrders: total,
			TotalPages:  totalPages(total, params.Limit),
			HasMore:     total > int64(params.Page*params.Limit),
		},
	}
}

func totalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// GetOrder returns a single order. Non-admin callers may only read
// their own.
func (s *OrderService) GetOrder(ctx context.Context, userID, role, orderID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("order not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to fetch order", err)
	}
	if order.UserID != userID && role != models.RoleAdmin {
		return nil, apierrors.Forbidden("not your order")
	}
	return order, nil
}

// UpdateStatus applies an admin status change through the guarded
// transition table, running the target state's side effects and
// appending to the audit history.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, req models.UpdateOrderStatusRequest) (*models.Order, error) {
	if !models.ValidOrderStatus(req.Status) {
		return nil, apierrors.BadRequest("invalid order status")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("order not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to fetch order", err)
	}

	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.Carrier != "" {
		order.Carrier = req.Carrier
	}

	if err := s.applyTransition(order, req.Status, req.Note); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apierrors.Internal("failed to update order", err)
	}

	// Restock only once the terminal status is durable; restoring
	// first would double-credit inventory if the update failed and
	// the caller retried.
	if req.Status == models.OrderStatusCancelled || req.Status == models.OrderStatusReturned {
		s.restoreItems(ctx, order.Items)
	}

	s.publish(ctx, "order.status_changed", order)
	return order, nil
}

// CancelOrder is the customer-facing cancel: allowed only while the
// order is pending or confirmed. Restores inventory and appends to the
// audit history.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID, reason string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("order not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to fetch order", err)
	}
	if order.UserID != userID {
		return nil, apierrors.Forbidden("not your order")
	}
	if !order.CanBeCancelled() {
		return nil, apierrors.InvalidTransition(string(order.Status), string(models.OrderStatusCancelled))
	}

	order.CancellationReason = reason
	if err := s.applyTransition(order, models.OrderStatusCancelled, reason); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apierrors.Internal("failed to update order", err)
	}
	s.restoreItems(ctx, order.Items)

	s.publish(ctx, "order.cancelled", order)
	return order, nil
}

// applyTransition mutates the in-memory order through the guarded
// graph. The caller persists, and restores inventory for
// cancel/return only after the persist succeeds.
func (s *OrderService) applyTransition(order *models.Order, target models.OrderStatus, note string) error {
	now := time.Now()
	if !order.CanTransitionTo(target, now) {
		return apierrors.InvalidTransition(string(order.Status), string(target))
	}

	switch target {
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
		if order.PaymentStatus != models.PaymentStatusPaid {
			order.PaymentStatus = models.PaymentStatusPaid
			order.PaidAt = &now
		}
	case models.OrderStatusCancelled:
		order.CancelledAt = &now
	case models.OrderStatusReturned:
		order.PaymentStatus = models.PaymentStatusRefunded
	}

	order.Status = target
	order.StatusHistory = append(order.StatusHistory, models.StatusHistoryEntry{
		Status:    target,
		Timestamp: now,
		Note:      note,
	})
	return nil
}

// MarkPaid records a successful payment and moves the order to
// processing when the graph allows it. Used by the payment stub.
func (s *OrderService) MarkPaid(ctx context.Context, order *models.Order, result *models.PaymentResult) error {
	now := time.Now()
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaidAt = &now
	order.PaymentResult = result

	if order.Status == models.OrderStatusPending || order.Status == models.OrderStatusConfirmed {
		if err := s.applyTransition(order, models.OrderStatusProcessing, "payment received"); err != nil {
			return err
		}
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return apierrors.Internal("failed to update order", err)
	}
	s.publish(ctx, "order.paid", order)
	return nil
}
