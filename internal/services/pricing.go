package services

import "github.com/cartz/cartz-backend/internal/models"

const taxRate = 0.08

// Shipping rules. Standard delivery is free above the threshold; cash
// on delivery carries its own flat charge with a higher free-shipping
// threshold.
const (
	standardShippingFee       = 10.0
	standardFreeShippingAbove = 100.0
	codShippingFee            = 40.0
	codFreeShippingAbove      = 500.0
)

// PriceBreakdown is the derived pricing of a checkout.
type PriceBreakdown struct {
	ItemsPrice     float64 `json:"itemsPrice"`
	TaxPrice       float64 `json:"taxPrice"`
	ShippingPrice  float64 `json:"shippingPrice"`
	DiscountAmount float64 `json:"discountAmount"`
	TotalPrice     float64 `json:"totalPrice"`
}

// ComputePricing derives tax, shipping and total from an item subtotal.
// All outputs are rounded to 2 decimals; the invariant
// total == items + tax + shipping - discount holds on the rounded
// values.
func ComputePricing(itemsPrice float64, method models.PaymentMethod) PriceBreakdown {
	itemsPrice = models.Round2(itemsPrice)
	tax := models.Round2(itemsPrice * taxRate)

	var shipping float64
	if method == models.PaymentMethodCOD {
		if itemsPrice <= codFreeShippingAbove {
			shipping = codShippingFee
		}
	} else {
		if itemsPrice <= standardFreeShippingAbove {
			shipping = standardShippingFee
		}
	}

	return PriceBreakdown{
		ItemsPrice:    itemsPrice,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    models.Round2(itemsPrice + tax + shipping),
	}
}
