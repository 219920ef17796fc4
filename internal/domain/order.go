package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// --- Order Submission ---

type ShippingInfo struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	UserRef      string          `json:"userRef"`
	MomoNumber   string          `json:"momoNumber"`
	Items        []OrderItem     `json:"items"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	ShippingInfo ShippingInfo    `json:"shippingInfo"`
}

type OrderReceipt struct {
	OrderID string `json:"orderId"`
}

// OrderSubmitter durably records a purchase intent.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderReceipt, error)
}

// --- Payment Collection ---

type PaymentStatus string

type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PhoneNumber string          `json:"phoneNumber"`
	UserRef     string          `json:"userRef"`
	OrderID     string          `json:"orderId"`
}

type PaymentResult struct {
	Status      PaymentStatus `json:"status"`
	Message     string        `json:"message,omitempty"`
	ReferenceID string        `json:"referenceId,omitempty"`
}

// PaymentCollector initiates a mobile-money collection and reports its status.
type PaymentCollector interface {
	Collect(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}
