package models

import "time"

// CartItem is one prospective purchase line. UnitPrice is snapshotted
// from the product at insertion time and is not refreshed when the
// catalog price later changes.
type CartItem struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"productId"`
	Name            string    `json:"name"`
	Image           string    `json:"image,omitempty"`
	SelectedVariant string    `json:"selectedVariant,omitempty"`
	Quantity        int       `json:"quantity"`
	UnitPrice       float64   `json:"unitPrice"`
	AddedAt         time.Time `json:"addedAt"`
}

// Matches reports whether the line shares an identity key with the
// given product/variant pair. Lines are unique per (product, variant).
func (ci *CartItem) Matches(productID, variant string) bool {
	return ci.ProductID == productID && ci.SelectedVariant == variant
}

type Cart struct {
	UserID     string     `json:"userId"`
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice float64    `json:"totalPrice"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// RecomputeTotals rederives TotalItems and TotalPrice from the lines.
// Called after every cart mutation.
func (c *Cart) RecomputeTotals() {
	items := 0
	price := 0.0
	for _, it := range c.Items {
		items += it.Quantity
		price += float64(it.Quantity) * it.UnitPrice
	}
	c.TotalItems = items
	c.TotalPrice = Round2(price)
}

// FindItem returns the index of the line with the given ID, or -1.
func (c *Cart) FindItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// FindMatch returns the index of the line keyed by (productID, variant), or -1.
func (c *Cart) FindMatch(productID, variant string) int {
	for i := range c.Items {
		if c.Items[i].Matches(productID, variant) {
			return i
		}
	}
	return -1
}

type AddCartItemRequest struct {
	ProductID       string `json:"productId" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required,min=1"`
	SelectedVariant string `json:"selectedVariant"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type SyncCartRequest struct {
	Items []SyncCartItem `json:"items" binding:"dive"`
}

type SyncCartItem struct {
	ProductID       string `json:"productId" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required,min=1"`
	SelectedVariant string `json:"selectedVariant"`
}
