package models

import "time"

type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug,omitempty" bson:"slug,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	Stock       int       `json:"stock" bson:"stock"`
	SoldCount   int       `json:"soldCount" bson:"sold_count"`
	Images      []string  `json:"images" bson:"images"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	Variants    []string  `json:"variants,omitempty" bson:"variants,omitempty"`
	IsActive    bool      `json:"isActive" bson:"is_active"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// MainImage returns the first product image, if any.
func (p *Product) MainImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

type Category struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
	Slug string `json:"slug" bson:"slug"`
}

type ProductCreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"required,gte=0"`
	Stock       int      `json:"stock" binding:"gte=0"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Variants    []string `json:"variants"`
}

type ProductUpdateRequest struct {
	Name        *string   `json:"name" binding:"omitempty,min=1"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price" binding:"omitempty,gte=0"`
	Stock       *int      `json:"stock" binding:"omitempty,gte=0"`
	Images      *[]string `json:"images"`
	Category    *string   `json:"category"`
	Variants    *[]string `json:"variants"`
	IsActive    *bool     `json:"isActive"`
}
