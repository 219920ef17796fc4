package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"momo-storefront/internal/domain"
	"momo-storefront/pkg/logger"
	"momo-storefront/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

type CheckoutInput struct {
	PhoneNumber string
	Shipping    domain.ShippingInfo
}

type CheckoutResult struct {
	OrderID       string                `json:"orderId"`
	Amount        decimal.Decimal       `json:"amount"`
	TotalQuantity int                   `json:"totalQuantity"`
	Payment       *domain.PaymentResult `json:"payment,omitempty"`
}

// CheckoutUsecase turns a cart snapshot into an order and a MoMo collection.
type CheckoutUsecase struct {
	sessions *CartSessions
	orders   domain.OrderSubmitter
	payments domain.PaymentCollector

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewCheckoutUsecase(sessions *CartSessions, orders domain.OrderSubmitter, payments domain.PaymentCollector) *CheckoutUsecase {
	return &CheckoutUsecase{
		sessions: sessions,
		orders:   orders,
		payments: payments,
		inflight: make(map[string]struct{}),
	}
}

// CanCheckout reports whether the session's cart holds anything.
func (u *CheckoutUsecase) CanCheckout(ctx context.Context, sessionID string) (bool, error) {
	store, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return !store.IsEmpty(), nil
}

// Checkout submits the order first and clears the cart once the order
// exists. Payment runs last; its outcome never touches the cart. If the
// collector call itself fails, the result still carries the order id.
func (u *CheckoutUsecase) Checkout(ctx context.Context, sessionID, userRef string, in CheckoutInput) (*CheckoutResult, error) {
	log := logger.WithContext(ctx)

	userRef = strings.TrimSpace(userRef)
	if userRef == "" {
		return nil, domain.ErrUnauthenticated
	}

	if !u.begin(sessionID) {
		return nil, domain.ErrCheckoutInProgress
	}
	defer u.end(sessionID)

	store, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snap, err := store.SnapshotForCheckout()
	if err != nil {
		return nil, err
	}

	phone, err := normalizePhone(in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	shipping, err := validateShipping(in.Shipping)
	if err != nil {
		return nil, err
	}

	req := domain.CreateOrderRequest{
		UserRef:      userRef,
		MomoNumber:   phone,
		Items:        orderItems(snap.Items),
		TotalAmount:  snap.TotalPrice,
		ShippingInfo: shipping,
	}

	receipt, err := u.orders.CreateOrder(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("user_ref", userRef).Msg("Checkout: order creation failed, cart kept")
		return nil, fmt.Errorf("create order: %w", err)
	}

	store.Clear(ctx)
	log.Info().
		Str("order_id", receipt.OrderID).
		Str("amount", snap.TotalPrice.StringFixed(2)).
		Int("items", snap.TotalQuantity).
		Msg("Checkout: order created, cart cleared")

	result := &CheckoutResult{
		OrderID:       receipt.OrderID,
		Amount:        snap.TotalPrice,
		TotalQuantity: snap.TotalQuantity,
	}

	payment, err := u.payments.Collect(ctx, domain.PaymentRequest{
		Amount:      snap.TotalPrice,
		PhoneNumber: phone,
		UserRef:     userRef,
		OrderID:     receipt.OrderID,
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", receipt.OrderID).Msg("Checkout: payment collection failed")
		return result, fmt.Errorf("collect payment for order %s: %w", receipt.OrderID, err)
	}

	result.Payment = payment
	log.Info().
		Str("order_id", receipt.OrderID).
		Str("status", string(payment.Status)).
		Str("phone", utils.MaskPhone(phone)).
		Msg("Checkout: payment requested")
	return result, nil
}

func (u *CheckoutUsecase) begin(sessionID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, busy := u.inflight[sessionID]; busy {
		return false
	}
	u.inflight[sessionID] = struct{}{}
	return true
}

func (u *CheckoutUsecase) end(sessionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.inflight, sessionID)
}

func orderItems(items []domain.LineItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	for i, item := range items {
		out[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Variant:   item.SelectedVariant,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		}
	}
	return out
}

// normalizePhone strips spaces, dashes and a leading "+" and requires
// 8 to 15 digits.
func normalizePhone(raw string) (string, error) {
	phone := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	phone = strings.TrimPrefix(phone, "+")
	if len(phone) < minPhoneDigits || len(phone) > maxPhoneDigits {
		return "", domain.NewValidationError("phoneNumber", "must have %d to %d digits", minPhoneDigits, maxPhoneDigits)
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", domain.NewValidationError("phoneNumber", "must contain digits only")
		}
	}
	return phone, nil
}

func validateShipping(in domain.ShippingInfo) (domain.ShippingInfo, error) {
	out := domain.ShippingInfo{
		FullName:   strings.TrimSpace(in.FullName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
	}
	switch {
	case out.FullName == "":
		return out, domain.NewValidationError("shippingInfo.fullName", "is required")
	case out.Phone == "":
		return out, domain.NewValidationError("shippingInfo.phone", "is required")
	case out.Address == "":
		return out, domain.NewValidationError("shippingInfo.address", "is required")
	}
	if out.Email != "" {
		if _, err := mail.ParseAddress(out.Email); err != nil {
			return out, domain.NewValidationError("shippingInfo.email", "is not a valid address")
		}
	}
	return out, nil
}
