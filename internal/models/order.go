package models

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodPaypal  PaymentMethod = "paypal"
	PaymentMethodStripe  PaymentMethod = "stripe"
	PaymentMethodCOD     PaymentMethod = "cash_on_delivery"
)

// ReturnWindow is how long after delivery an order may be returned.
const ReturnWindow = 30 * 24 * time.Hour

// transitions is the guarded status graph. A status change is applied
// only if the target appears in the source's row; cancelled and
// returned are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusReturned},
}

// ValidOrderStatus reports whether s is a known status value.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodPaypal, PaymentMethodStripe, PaymentMethodCOD:
		return true
	}
	return false
}

// Address is a shipping or billing address snapshot.
type Address struct {
	FullName   string `json:"fullName" bson:"full_name" binding:"required"`
	Line1      string `json:"line1" bson:"line1" binding:"required"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city" bson:"city" binding:"required"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string `json:"postalCode" bson:"postal_code" binding:"required"`
	Country    string `json:"country" bson:"country" binding:"required"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// OrderItem is an immutable snapshot of a purchased line. Name, image
// and price are copied at order creation so later catalog edits cannot
// alter historical orders. Catalogued is false for lines accepted
// without a matching catalog product; such lines never touch stock.
type OrderItem struct {
	ProductID       string  `json:"productId" bson:"product_id"`
	Name            string  `json:"name" bson:"name"`
	Image           string  `json:"image,omitempty" bson:"image,omitempty"`
	UnitPrice       float64 `json:"unitPrice" bson:"unit_price"`
	Quantity        int     `json:"quantity" bson:"quantity"`
	SelectedVariant string  `json:"selectedVariant,omitempty" bson:"selected_variant,omitempty"`
	Catalogued      bool    `json:"catalogued" bson:"catalogued"`
}

type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
	Note      string      `json:"note,omitempty" bson:"note,omitempty"`
}

type PaymentResult struct {
	TransactionID string `json:"transactionId,omitempty" bson:"transaction_id,omitempty"`
	Status        string `json:"status" bson:"status"`
	Provider      string `json:"provider,omitempty" bson:"provider,omitempty"`
}

type Order struct {
	ID              string         `json:"id" bson:"_id"`
	OrderNumber     string         `json:"orderNumber" bson:"order_number"`
	UserID          string         `json:"userId" bson:"user_id"`
	Items           []OrderItem    `json:"items" bson:"items"`
	ShippingAddress Address        `json:"shippingAddress" bson:"shipping_address"`
	BillingAddress  *Address       `json:"billingAddress,omitempty" bson:"billing_address,omitempty"`
	PaymentMethod   PaymentMethod  `json:"paymentMethod" bson:"payment_method"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus" bson:"payment_status"`
	PaymentResult   *PaymentResult `json:"paymentResult,omitempty" bson:"payment_result,omitempty"`

	ItemsPrice     float64 `json:"itemsPrice" bson:"items_price"`
	TaxPrice       float64 `json:"taxPrice" bson:"tax_price"`
	ShippingPrice  float64 `json:"shippingPrice" bson:"shipping_price"`
	DiscountAmount float64 `json:"discountAmount" bson:"discount_amount"`
	TotalPrice     float64 `json:"totalPrice" bson:"total_price"`

	Status        OrderStatus          `json:"orderStatus" bson:"status"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory" bson:"status_history"`

	TrackingNumber     string     `json:"trackingNumber,omitempty" bson:"tracking_number,omitempty"`
	Carrier            string     `json:"carrier,omitempty" bson:"carrier,omitempty"`
	PaidAt             *time.Time `json:"paidAt,omitempty" bson:"paid_at,omitempty"`
	DeliveredAt        *time.Time `json:"deliveredAt,omitempty" bson:"delivered_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty" bson:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty" bson:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// CanTransitionTo reports whether the guarded status graph allows
// moving from the order's current status to target. The delivered →
// returned edge is additionally bounded by the return window.
func (o *Order) CanTransitionTo(target OrderStatus, now time.Time) bool {
	for _, next := range transitions[o.Status] {
		if next != target {
			continue
		}
		if target == OrderStatusReturned {
			return o.DeliveredAt != nil && now.Sub(*o.DeliveredAt) <= ReturnWindow
		}
		return true
	}
	return false
}

// CanBeCancelled reports whether a customer may still cancel the order.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// CanBeReturned reports whether the order is within its return window.
func (o *Order) CanBeReturned(now time.Time) bool {
	return o.Status == OrderStatusDelivered &&
		o.DeliveredAt != nil &&
		now.Sub(*o.DeliveredAt) <= ReturnWindow
}

type OrderItemInput struct {
	ProductID       string  `json:"productId" binding:"required"`
	Name            string  `json:"name"`
	Image           string  `json:"image"`
	Price           float64 `json:"price" binding:"gte=0"`
	Quantity        int     `json:"quantity" binding:"required,min=1"`
	SelectedVariant string  `json:"selectedVariant"`
}

type CreateOrderRequest struct {
	Items           []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingAddress Address          `json:"shippingAddress" binding:"required"`
	BillingAddress  *Address         `json:"billingAddress"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod" binding:"required,oneof=card paypal stripe cash_on_delivery"`
	PaymentResult   *PaymentResult   `json:"paymentResult"`
}

type UpdateOrderStatusRequest struct {
	Status         OrderStatus `json:"status" binding:"required" validate:"required,oneof=pending confirmed processing shipped delivered cancelled returned"`
	Note           string      `json:"note"`
	TrackingNumber string      `json:"trackingNumber"`
	Carrier        string      `json:"carrier"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}
