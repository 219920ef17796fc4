package momo

import (
	"context"
	"net/http"
	"time"

	"momo-storefront/internal/domain"
	"momo-storefront/internal/infrastructure/upstream"

	"github.com/shopspring/decimal"
)

type collectBody struct {
	Amount      decimal.Decimal `json:"amount"`
	PhoneNumber string          `json:"phoneNumber"`
	UserID      string          `json:"userId"`
	OrderID     string          `json:"orderId"`
}

type collectResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	ReferenceID string `json:"referenceId"`
}

// Client implements domain.PaymentCollector against the MoMo collection
// endpoint. A collection request moves money, so it is never retried.
type Client struct {
	api *upstream.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{api: upstream.NewClient("momo", baseURL, timeout)}
}

func (c *Client) Collect(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	body := collectBody{
		Amount:      req.Amount.Round(2),
		PhoneNumber: req.PhoneNumber,
		UserID:      req.UserRef,
		OrderID:     req.OrderID,
	}

	var resp collectResponse
	if err := c.api.Do(ctx, http.MethodPost, "/momo/money-collect", body, &resp); err != nil {
		return nil, err
	}
	return &domain.PaymentResult{
		Status:      domain.ParsePaymentStatus(resp.Status),
		Message:     resp.Message,
		ReferenceID: resp.ReferenceID,
	}, nil
}
