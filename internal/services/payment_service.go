package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
)

// PaymentService is a gateway stub: no external call is made. It
// approves every charge except card payments whose cent value ends in
// 99, which gives integration tests a deterministic failure hook.
type PaymentService struct {
	orders       repository.OrderRepository
	orderService *OrderService
}

func NewPaymentService(orders repository.OrderRepository, orderService *OrderService) *PaymentService {
	return &PaymentService{orders: orders, orderService: orderService}
}

type ProcessPaymentRequest struct {
	OrderID       string               `json:"orderId" binding:"required"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required,oneof=card paypal stripe"`
}

// ProcessPayment charges the stub gateway for an order and, on
// success, marks the order paid and moves it to processing.
func (s *PaymentService) ProcessPayment(ctx context.Context, userID string, req ProcessPaymentRequest) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, req.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("order not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to fetch order", err)
	}
	if order.UserID != userID {
		return nil, apierrors.Forbidden("not your order")
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, apierrors.BadRequest("order already paid")
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		return nil, apierrors.BadRequest(fmt.Sprintf("order in status %s cannot be paid", order.Status))
	}

	if declined(req.PaymentMethod, order.TotalPrice) {
		return nil, apierrors.New(402, fmt.Sprintf("payment declined for order %s", order.OrderNumber), nil)
	}

	result := &models.PaymentResult{
		TransactionID: uuid.NewString(),
		Status:        "completed",
		Provider:      string(req.PaymentMethod),
	}
	if err := s.orderService.MarkPaid(ctx, order, result); err != nil {
		return nil, err
	}
	return order, nil
}

func declined(method models.PaymentMethod, total float64) bool {
	cents := int(math.Round(total * 100))
	return method == models.PaymentMethodCard && cents%100 == 99
}
