package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"momo-storefront/internal/domain"
	"momo-storefront/pkg/logger"
)

// CartStore owns one session's cart. Every mutation runs to completion under
// the store lock: mutate, derive totals from the new items, persist.
type CartStore struct {
	mu       sync.Mutex
	items    []domain.LineItem
	totals   domain.Totals
	version  uint64
	storage  domain.CartStorage
	key      string
	maxQty   int
	degraded bool
	warning  error

	// onDegrade is told when the store enters or leaves memory-only mode.
	// It runs with mu held.
	onDegrade func(degraded bool)
}

// CartView is a consistent read of items and derived totals.
type CartView struct {
	Items       []domain.LineItem
	Totals      domain.Totals
	CanCheckout bool
	Degraded    bool
	Warning     error
}

// NewCartStore returns an empty store that persists under key.
func NewCartStore(storage domain.CartStorage, key string, maxQty int) *CartStore {
	return &CartStore{
		storage: storage,
		key:     key,
		maxQty:  maxQty,
		totals:  domain.DeriveTotals(nil),
	}
}

// LoadCartStore rehydrates the cart stored under key. A missing or malformed
// snapshot yields an empty cart. A storage read failure also yields an empty
// cart, and the store stays memory-only for the rest of its life.
func LoadCartStore(ctx context.Context, storage domain.CartStorage, key string, maxQty int) *CartStore {
	s := NewCartStore(storage, key, maxQty)
	log := logger.WithContext(ctx)

	data, err := storage.Load(ctx, key)
	switch {
	case errors.Is(err, domain.ErrStorageKeyNotFound):
		return s
	case err != nil:
		// The unreadable snapshot is left in place; it may still be valid
		// once storage recovers.
		s.degrade(ctx, &domain.PersistenceError{Op: "load", Key: key, Err: err})
		return s
	}

	items, err := decodeCart(data, maxQty)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("CartStore: discarding unreadable snapshot")
		return s
	}
	s.items = items
	s.totals = domain.DeriveTotals(items)
	log.Debug().Str("key", key).Int("items", len(items)).Msg("CartStore: rehydrated")
	return s
}

// Add puts quantity units of product (configured with variant) in the cart.
// Re-adding the same configuration accumulates onto the existing line.
func (s *CartStore) Add(ctx context.Context, product domain.Product, variant string, quantity int) (domain.LineItem, error) {
	if err := s.validateQuantity(quantity); err != nil {
		return domain.LineItem{}, err
	}
	productID := strings.TrimSpace(product.ID)
	variant = strings.TrimSpace(variant)
	if productID == "" {
		return domain.LineItem{}, domain.NewValidationError("productId", "is required")
	}
	if strings.Contains(productID, domain.LineItemIDSeparator) {
		return domain.LineItem{}, domain.NewValidationError("productId", "must not contain %q", domain.LineItemIDSeparator)
	}
	if product.Price.IsNegative() {
		return domain.LineItem{}, domain.NewValidationError("price", "must not be negative, got %s", product.Price)
	}

	id := domain.LineItemID(productID, variant)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.CloneItems(s.items)
	idx := indexOf(next, id)
	if idx >= 0 {
		merged := next[idx].Quantity + quantity
		if merged > s.maxQty {
			return domain.LineItem{}, domain.NewValidationError("quantity", "line %s would reach %d, maximum is %d", id, merged, s.maxQty)
		}
		next[idx].Quantity = merged
	} else {
		next = append(next, domain.LineItem{
			ID:              id,
			ProductID:       productID,
			Title:           product.Title,
			UnitPrice:       product.Price,
			SelectedImage:   product.PrimaryImage(),
			SelectedVariant: variant,
			Quantity:        quantity,
		})
		idx = len(next) - 1
	}

	s.commit(ctx, next)
	return next[idx], nil
}

// Remove deletes the line regardless of quantity. Unknown ids are a no-op.
func (s *CartStore) Remove(ctx context.Context, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, itemID)
	if idx < 0 {
		return false
	}
	next := make([]domain.LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.commit(ctx, next)
	return true
}

// Toggle applies the cart row's +/- control. Decrementing below 1 removes
// the line. Unknown ids are a no-op.
func (s *CartStore) Toggle(ctx context.Context, itemID string, action domain.ToggleAction) error {
	switch action {
	case domain.ToggleInc, domain.ToggleDec:
	default:
		return domain.NewValidationError("action", "must be %q or %q, got %q", domain.ToggleInc, domain.ToggleDec, action)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, itemID)
	if idx < 0 {
		return nil
	}

	next := domain.CloneItems(s.items)
	if action == domain.ToggleInc {
		if next[idx].Quantity+1 > s.maxQty {
			return domain.NewValidationError("quantity", "maximum is %d", s.maxQty)
		}
		next[idx].Quantity++
	} else {
		next[idx].Quantity--
		if next[idx].Quantity < 1 {
			next = append(next[:idx], next[idx+1:]...)
		}
	}
	s.commit(ctx, next)
	return nil
}

// SetQuantity sets an absolute quantity. Unknown ids are a no-op.
func (s *CartStore) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	if err := s.validateQuantity(quantity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, itemID)
	if idx < 0 || s.items[idx].Quantity == quantity {
		return nil
	}
	next := domain.CloneItems(s.items)
	next[idx].Quantity = quantity
	s.commit(ctx, next)
	return nil
}

// Clear empties the cart and drops the stored snapshot.
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, nil)
}

// SnapshotForCheckout returns a copy of the cart that shares nothing with
// the live store, or ErrEmptyCart.
func (s *CartStore) SnapshotForCheckout() (*domain.CheckoutSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	return &domain.CheckoutSnapshot{
		Items:         domain.CloneItems(s.items),
		TotalQuantity: s.totals.TotalQuantity,
		TotalPrice:    s.totals.TotalPrice,
	}, nil
}

func (s *CartStore) View() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartView{
		Items:       domain.CloneItems(s.items),
		Totals:      s.totals,
		CanCheckout: len(s.items) > 0,
		Degraded:    s.degraded,
		Warning:     s.warning,
	}
}

func (s *CartStore) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneItems(s.items)
}

func (s *CartStore) Totals() domain.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

func (s *CartStore) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Degraded reports whether persistence failed and the cart is memory-only.
func (s *CartStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *CartStore) validateQuantity(quantity int) error {
	if quantity < 1 {
		return domain.NewValidationError("quantity", "must be a positive integer, got %d", quantity)
	}
	if quantity > s.maxQty {
		return domain.NewValidationError("quantity", "maximum is %d, got %d", s.maxQty, quantity)
	}
	return nil
}

// commit must be called with s.mu held.
func (s *CartStore) commit(ctx context.Context, next []domain.LineItem) {
	s.items = next
	s.totals = domain.DeriveTotals(next)
	s.version++
	s.persist(ctx)
}

func (s *CartStore) persist(ctx context.Context) {
	if s.degraded {
		s.persistDegraded(ctx)
		return
	}

	var err error
	if len(s.items) == 0 {
		if err = s.storage.Delete(ctx, s.key); err != nil {
			err = &domain.PersistenceError{Op: "delete", Key: s.key, Err: err}
		}
	} else {
		var data []byte
		data, err = encodeCart(s.items)
		if err == nil {
			err = s.storage.Save(ctx, s.key, data)
		}
		if err != nil {
			err = &domain.PersistenceError{Op: "save", Key: s.key, Err: err}
		}
	}
	if err != nil {
		s.degrade(ctx, err)
		if len(s.items) > 0 {
			s.dropStale(ctx)
		}
	}
}

// persistDegraded keeps a memory-only store from being outlived by its old
// snapshot. Writes stay off, but an empty cart still deletes the snapshot,
// and once that succeeds memory and storage agree again.
func (s *CartStore) persistDegraded(ctx context.Context) {
	if len(s.items) > 0 {
		return
	}
	if err := s.storage.Delete(ctx, s.key); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("key", s.key).Msg("CartStore: could not drop snapshot of cleared cart")
		return
	}
	s.degraded = false
	s.warning = nil
	if s.onDegrade != nil {
		s.onDegrade(false)
	}
	logger.WithContext(ctx).Info().Str("key", s.key).Msg("CartStore: storage back in sync, persistence resumed")
}

// dropStale removes the last good snapshot after a failed save, so a later
// rehydrate cannot bring back items the buyer has since changed.
func (s *CartStore) dropStale(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.key); err != nil {
		logger.WithContext(ctx).Debug().Err(err).Str("key", s.key).Msg("CartStore: stale snapshot left in place")
	}
}

func (s *CartStore) degrade(ctx context.Context, err error) {
	s.degraded = true
	s.warning = err
	if s.onDegrade != nil {
		s.onDegrade(true)
	}
	logger.WithContext(ctx).Warn().Err(err).Str("key", s.key).Msg("CartStore: persistence failed, continuing in memory")
}

func indexOf(items []domain.LineItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
