package services

import (
	"testing"

	"github.com/cartz/cartz-backend/internal/models"
)

func TestComputePricing_StandardShippingBoundary(t *testing.T) {
	// Free shipping kicks in strictly above 100.
	at := ComputePricing(100.00, models.PaymentMethodCard)
	if at.ShippingPrice != 10 {
		t.Fatalf("expected shipping 10 at itemsPrice=100.00, got %v", at.ShippingPrice)
	}

	above := ComputePricing(100.01, models.PaymentMethodCard)
	if above.ShippingPrice != 0 {
		t.Fatalf("expected shipping 0 at itemsPrice=100.01, got %v", above.ShippingPrice)
	}
}

func TestComputePricing_CODSurchargeBoundary(t *testing.T) {
	at := ComputePricing(500.00, models.PaymentMethodCOD)
	if at.ShippingPrice != 40 {
		t.Fatalf("expected COD shipping 40 at itemsPrice=500.00, got %v", at.ShippingPrice)
	}

	above := ComputePricing(500.01, models.PaymentMethodCOD)
	if above.ShippingPrice != 0 {
		t.Fatalf("expected COD shipping 0 at itemsPrice=500.01, got %v", above.ShippingPrice)
	}
}

func TestComputePricing_TaxAndTotal(t *testing.T) {
	p := ComputePricing(20.00, models.PaymentMethodCOD)
	if p.ItemsPrice != 20.00 {
		t.Fatalf("itemsPrice = %v, want 20.00", p.ItemsPrice)
	}
	if p.TaxPrice != 1.60 {
		t.Fatalf("taxPrice = %v, want 1.60", p.TaxPrice)
	}
	if p.ShippingPrice != 40 {
		t.Fatalf("shippingPrice = %v, want 40", p.ShippingPrice)
	}
	if p.TotalPrice != 61.60 {
		t.Fatalf("totalPrice = %v, want 61.60", p.TotalPrice)
	}
}

func TestComputePricing_CardDoesNotGetCODCharge(t *testing.T) {
	p := ComputePricing(20.00, models.PaymentMethodCard)
	if p.ShippingPrice != 10 {
		t.Fatalf("shippingPrice = %v, want 10 for card below free threshold", p.ShippingPrice)
	}
	if p.TotalPrice != 31.60 {
		t.Fatalf("totalPrice = %v, want 31.60", p.TotalPrice)
	}
}

func TestComputePricing_Rounding(t *testing.T) {
	// 8% of 10.07 is 0.8056, which must round half away from zero to 0.81.
	p := ComputePricing(10.07, models.PaymentMethodCard)
	if p.TaxPrice != 0.81 {
		t.Fatalf("taxPrice = %v, want 0.81", p.TaxPrice)
	}
}
