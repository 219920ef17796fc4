package domain

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// --- Cart Entities ---

// LineItem is one configured product plus quantity. Title, price, image and
// variant are copies taken when the item was added; catalog changes never
// alter an existing line.
type LineItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	Title           string          `json:"title"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	SelectedImage   string          `json:"selectedImage,omitempty"`
	SelectedVariant string          `json:"selectedVariant,omitempty"`
	Quantity        int             `json:"quantity"`
}

// Subtotal returns UnitPrice x Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItemIDSeparator joins product id and variant in a line id. Product ids
// must not contain it, otherwise two configurations could share an id.
const LineItemIDSeparator = ":"

// LineItemID is the identity of a product as configured:
// "<productId>:<variant>", or "<productId>" when no variant is selected.
func LineItemID(productID, variant string) string {
	productID = strings.TrimSpace(productID)
	variant = strings.TrimSpace(variant)
	if variant == "" {
		return productID
	}
	return productID + LineItemIDSeparator + variant
}

// Totals are always derived from the items, never stored.
type Totals struct {
	TotalQuantity int             `json:"totalQuantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// DeriveTotals computes the cart aggregates from scratch.
func DeriveTotals(items []LineItem) Totals {
	t := Totals{TotalPrice: decimal.Zero}
	for _, item := range items {
		t.TotalQuantity += item.Quantity
		t.TotalPrice = t.TotalPrice.Add(item.Subtotal())
	}
	return t
}

// CloneItems returns a copy that shares no backing array with items.
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// CheckoutSnapshot is the immutable copy of the cart handed to checkout.
type CheckoutSnapshot struct {
	Items         []LineItem      `json:"items"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// ToggleAction is the increment/decrement control on a cart row.
type ToggleAction string

const (
	ToggleInc ToggleAction = "inc"
	ToggleDec ToggleAction = "dec"
)

// CartStorage is a named-key byte store for persisted cart snapshots.
// Load returns ErrStorageKeyNotFound when nothing is stored under key.
type CartStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
