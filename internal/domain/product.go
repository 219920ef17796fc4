package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is the catalog view the cart consumes. It is read-only here.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Colors      []string        `json:"colors"`
	Category    string          `json:"category,omitempty"`
}

// PrimaryImage is the first image, or "" when the product has none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasColor reports whether color is one of the product's options.
func (p Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}

type ProductFilter struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// ProductCatalog is the external read-only product source.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error)
}
