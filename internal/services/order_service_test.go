package services

import (
	"context"
	"testing"
	"time"

	"github.com/cartz/cartz-backend/internal/models"
)

func testAddress() models.Address {
	return models.Address{
		FullName:   "Jane Doe",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func newOrderService(products *fakeProductRepo, orders *fakeOrderRepo, allowUncatalogued bool) (*OrderService, *fakeCartRepo, *fakePublisher) {
	carts := newFakeCartRepo()
	publisher := &fakePublisher{}
	svc := NewOrderService(orders, products, carts, publisher, allowUncatalogued)
	return svc, carts, publisher
}

func TestNextOrderNumberUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		n := nextOrderNumber(now)
		if seen[n] {
			t.Fatalf("duplicate order number %q after %d generations", n, i)
		}
		seen[n] = true
	}
}

func TestCreateOrderCODPricing(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, publisher := newOrderService(products, newFakeOrderRepo(), false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.ItemsPrice != 20.00 {
		t.Fatalf("itemsPrice = %v, want 20.00", order.ItemsPrice)
	}
	if order.TaxPrice != 1.60 {
		t.Fatalf("taxPrice = %v, want 1.60", order.TaxPrice)
	}
	if order.ShippingPrice != 40.00 {
		t.Fatalf("shippingPrice = %v, want 40.00", order.ShippingPrice)
	}
	if order.TotalPrice != 61.60 {
		t.Fatalf("totalPrice = %v, want 61.60", order.TotalPrice)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("paymentStatus = %s, want pending", order.PaymentStatus)
	}
	if got := products.stock("p1"); got != 4 {
		t.Fatalf("stock = %d, want 4", got)
	}
	if got := products.soldCount("p1"); got != 1 {
		t.Fatalf("soldCount = %d, want 1", got)
	}
	if len(publisher.events) != 1 || publisher.events[0].Event != "order.created" {
		t.Fatalf("expected one order.created event, got %+v", publisher.events)
	}
}

func TestCreateOrderCompletedCardPayment(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCard,
		PaymentResult:   &models.PaymentResult{TransactionID: "tx-1", Status: "completed"},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.Status != models.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing", order.Status)
	}
	if order.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("paymentStatus = %s, want paid", order.PaymentStatus)
	}
	if order.PaidAt == nil {
		t.Fatal("paidAt not set")
	}
	if order.ShippingPrice != 10.00 {
		t.Fatalf("shippingPrice = %v, want 10.00 (no COD surcharge)", order.ShippingPrice)
	}
}

func TestCreateOrderUsesCatalogPrice(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 50.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	// Client claims a lower price; the catalog wins.
	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1, Price: 0.01}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Items[0].UnitPrice != 50.00 {
		t.Fatalf("unitPrice = %v, want catalog price 50.00", order.Items[0].UnitPrice)
	}
	if order.ItemsPrice != 50.00 {
		t.Fatalf("itemsPrice = %v, want 50.00", order.ItemsPrice)
	}
}

func TestCreateOrderClearsCart(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, carts, _ := newOrderService(products, newFakeOrderRepo(), false)

	carts.SaveCart(ctx, &models.Cart{UserID: "u1", Items: []models.CartItem{{ID: "l1", ProductID: "p1", Quantity: 1}}})

	if _, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	}); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	cart, _ := carts.GetCart(ctx, "u1")
	if cart != nil {
		t.Fatalf("expected cart deleted after order, got %+v", cart)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 2))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	_, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 3}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	assertStatus(t, err, 400)
	if got := products.stock("p1"); got != 2 {
		t.Fatalf("stock touched on failed order: %d", got)
	}
}

func TestCreateOrderCompensatesPartialFailure(t *testing.T) {
	ctx := context.Background()
	// An order insert failure after stock was taken must put every
	// line's stock back.
	products := newFakeProductRepo(
		testProduct("p1", 10.00, 5),
		testProduct("p2", 10.00, 1),
	)
	orders := newFakeOrderRepo()
	orders.failCreate = true
	svc, _, _ := newOrderService(products, orders, false)

	_, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items: []models.OrderItemInput{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err == nil {
		t.Fatal("expected order creation to fail")
	}
	assertStatus(t, err, 500)

	if got := products.stock("p1"); got != 5 {
		t.Fatalf("p1 stock = %d, want 5 after compensation", got)
	}
	if got := products.stock("p2"); got != 1 {
		t.Fatalf("p2 stock = %d, want 1 after compensation", got)
	}
	if got := products.soldCount("p1"); got != 0 {
		t.Fatalf("p1 soldCount = %d, want 0 after compensation", got)
	}
}

func TestCreateOrderUncataloguedRejectedByDefault(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newOrderService(newFakeProductRepo(), newFakeOrderRepo(), false)

	_, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "ghost", Name: "Ghost", Price: 9.99, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err == nil {
		t.Fatal("expected uncatalogued line to be rejected")
	}
	assertStatus(t, err, 404)
}

func TestCreateOrderUncataloguedAcceptedWhenAllowed(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), true)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items: []models.OrderItemInput{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "ghost", Name: "Ghost", Price: 9.99, Quantity: 2},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if len(order.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Items))
	}
	if order.Items[1].Catalogued {
		t.Fatal("snapshot line marked catalogued")
	}
	if order.ItemsPrice != models.Round2(20.00+2*9.99) {
		t.Fatalf("itemsPrice = %v, want %v", order.ItemsPrice, models.Round2(20.00+2*9.99))
	}
	// Only the catalogued line touches inventory.
	if got := products.stock("p1"); got != 4 {
		t.Fatalf("p1 stock = %d, want 4", got)
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	orders := newFakeOrderRepo()
	svc, _, publisher := newOrderService(products, orders, false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if got := products.stock("p1"); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}

	cancelled, err := svc.CancelOrder(ctx, "u1", order.ID, "changed my mind")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	if cancelled.Status != models.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Fatal("cancelledAt not set")
	}
	if got := products.stock("p1"); got != 5 {
		t.Fatalf("stock = %d, want 5 after cancel", got)
	}
	if got := products.soldCount("p1"); got != 0 {
		t.Fatalf("soldCount = %d, want 0 after cancel", got)
	}

	last := cancelled.StatusHistory[len(cancelled.StatusHistory)-1]
	if last.Status != models.OrderStatusCancelled || last.Note != "changed my mind" {
		t.Fatalf("unexpected history tail: %+v", last)
	}

	lastEvent := publisher.events[len(publisher.events)-1]
	if lastEvent.Event != "order.cancelled" {
		t.Fatalf("expected order.cancelled event, got %s", lastEvent.Event)
	}
}

func TestCancelOrderFailedPersistKeepsStock(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	orders := newFakeOrderRepo()
	svc, _, _ := newOrderService(products, orders, false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	orders.failUpdate = true
	if _, err := svc.CancelOrder(ctx, "u1", order.ID, "changed my mind"); err == nil {
		t.Fatal("expected cancel to fail when the update fails")
	}

	// Stock must not come back until the cancel is durable, or a
	// retried cancel would restock twice.
	if got := products.stock("p1"); got != 3 {
		t.Fatalf("stock = %d, want 3 after failed cancel", got)
	}

	orders.failUpdate = false
	if _, err := svc.CancelOrder(ctx, "u1", order.ID, "changed my mind"); err != nil {
		t.Fatalf("CancelOrder retry: %v", err)
	}
	if got := products.stock("p1"); got != 5 {
		t.Fatalf("stock = %d, want 5 after successful cancel", got)
	}
	if got := products.soldCount("p1"); got != 0 {
		t.Fatalf("soldCount = %d, want 0 after successful cancel", got)
	}
}

func TestCancelOrderNotOwner(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, err = svc.CancelOrder(ctx, "u2", order.ID, "not mine")
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	assertStatus(t, err, 403)
}

func TestCancelShippedOrderRejected(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	orders := newFakeOrderRepo()
	svc, _, _ := newOrderService(products, orders, false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	for _, status := range []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusShipped} {
		if _, err := svc.UpdateStatus(ctx, order.ID, models.UpdateOrderStatusRequest{Status: status}); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}

	_, err = svc.CancelOrder(ctx, "u1", order.ID, "too late")
	if err == nil {
		t.Fatal("expected invalid transition error")
	}
	assertStatus(t, err, 409)

	// No stock came back.
	if got := products.stock("p1"); got != 4 {
		t.Fatalf("stock = %d, want 4", got)
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// pending → shipped skips processing and must be refused.
	_, err = svc.UpdateStatus(ctx, order.ID, models.UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	if err == nil {
		t.Fatal("expected invalid transition error")
	}
	assertStatus(t, err, 409)
}

func TestDeliveredMarksCODOrderPaid(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	var updated *models.Order
	for _, status := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		updated, err = svc.UpdateStatus(ctx, order.ID, models.UpdateOrderStatusRequest{Status: status})
		if err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}

	if updated.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("paymentStatus = %s, want paid on delivery", updated.PaymentStatus)
	}
	if updated.DeliveredAt == nil || updated.PaidAt == nil {
		t.Fatal("deliveredAt/paidAt not set")
	}
	// created + 3 transitions
	if len(updated.StatusHistory) != 4 {
		t.Fatalf("history length = %d, want 4", len(updated.StatusHistory))
	}
}

func TestReturnWindowEnforced(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	orders := newFakeOrderRepo()
	svc, _, _ := newOrderService(products, orders, false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	for _, status := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		if _, err := svc.UpdateStatus(ctx, order.ID, models.UpdateOrderStatusRequest{Status: status}); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}

	// Age the delivery past the window.
	stored, err := orders.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	old := time.Now().Add(-models.ReturnWindow - time.Hour)
	stored.DeliveredAt = &old
	if err := orders.Update(ctx, stored); err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, err = svc.UpdateStatus(ctx, order.ID, models.UpdateOrderStatusRequest{Status: models.OrderStatusReturned})
	if err == nil {
		t.Fatal("expected return outside window to be refused")
	}
	assertStatus(t, err, 409)
}

func TestReturnWithinWindowRefundsAndRestocks(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	var updated *models.Order
	for _, status := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusReturned,
	} {
		updated, err = svc.UpdateStatus(ctx, order.ID, models.UpdateOrderStatusRequest{Status: status})
		if err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}

	if updated.PaymentStatus != models.PaymentStatusRefunded {
		t.Fatalf("paymentStatus = %s, want refunded", updated.PaymentStatus)
	}
	if got := products.stock("p1"); got != 5 {
		t.Fatalf("stock = %d, want 5 after return", got)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := svc.GetOrder(ctx, "u1", models.RoleCustomer, order.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetOrder(ctx, "u2", models.RoleAdmin, order.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	_, err = svc.GetOrder(ctx, "u2", models.RoleCustomer, order.ID)
	if err == nil {
		t.Fatal("expected forbidden error for stranger")
	}
	assertStatus(t, err, 403)
}

func TestUpdateStatusRecordsTracking(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo(testProduct("p1", 20.00, 5))
	svc, _, _ := newOrderService(products, newFakeOrderRepo(), false)

	order, err := svc.CreateOrder(ctx, "u1", &models.CreateOrderRequest{
		Items:           []models.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, order.ID, models.UpdateOrderStatusRequest{Status: models.OrderStatusProcessing}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	updated, err := svc.UpdateStatus(ctx, order.ID, models.UpdateOrderStatusRequest{
		Status:         models.OrderStatusShipped,
		TrackingNumber: "TRK-42",
		Carrier:        "UPS",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.TrackingNumber != "TRK-42" || updated.Carrier != "UPS" {
		t.Fatalf("tracking not recorded: %q / %q", updated.TrackingNumber, updated.Carrier)
	}
}
