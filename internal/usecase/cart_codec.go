package usecase

import (
	"fmt"
	"strings"

	"momo-storefront/internal/domain"

	"github.com/goccy/go-json"
)

// persistedCart is the stored layout:
// {"items":[{"id","productId","title","unitPrice","quantity","selectedVariant"?,"selectedImage"?}]}
type persistedCart struct {
	Items []domain.LineItem `json:"items"`
}

func encodeCart(items []domain.LineItem) ([]byte, error) {
	return json.Marshal(persistedCart{Items: items})
}

// decodeCart parses a stored snapshot and rejects anything that would break
// the cart invariants.
func decodeCart(data []byte, maxQty int) ([]domain.LineItem, error) {
	var pc persistedCart
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("parse cart snapshot: %w", err)
	}

	seen := make(map[string]struct{}, len(pc.Items))
	items := make([]domain.LineItem, 0, len(pc.Items))
	for i, item := range pc.Items {
		switch {
		case item.ProductID == "":
			return nil, fmt.Errorf("item %d: missing productId", i)
		case strings.Contains(item.ProductID, domain.LineItemIDSeparator):
			return nil, fmt.Errorf("item %d: productId %q contains %q", i, item.ProductID, domain.LineItemIDSeparator)
		case item.ID != domain.LineItemID(item.ProductID, item.SelectedVariant):
			return nil, fmt.Errorf("item %d: id %q does not match product %q variant %q", i, item.ID, item.ProductID, item.SelectedVariant)
		case item.Quantity < 1 || item.Quantity > maxQty:
			return nil, fmt.Errorf("item %d: quantity %d out of range", i, item.Quantity)
		case item.UnitPrice.IsNegative():
			return nil, fmt.Errorf("item %d: negative unit price", i)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("item %d: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	return items, nil
}
