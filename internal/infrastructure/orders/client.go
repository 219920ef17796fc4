package orders

import (
	"context"
	"net/http"
	"time"

	"momo-storefront/internal/domain"
	"momo-storefront/internal/infrastructure/upstream"

	"github.com/shopspring/decimal"
)

type productLine struct {
	ProductID string          `json:"productId"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// createOrderBody is the remote API's order payload.
type createOrderBody struct {
	UserID       string              `json:"userId"`
	MomoNumber   string              `json:"momoNumber,omitempty"`
	Products     []productLine       `json:"products"`
	TotalAmount  decimal.Decimal     `json:"totalAmount"`
	ShippingInfo domain.ShippingInfo `json:"shippingInfo"`
}

type createOrderResponse struct {
	OrderID string `json:"orderId"`
}

// Client implements domain.OrderSubmitter. Order creation is not idempotent,
// so it is never retried.
type Client struct {
	api *upstream.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{api: upstream.NewClient("orders", baseURL, timeout)}
}

func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderReceipt, error) {
	body := createOrderBody{
		UserID:       req.UserRef,
		MomoNumber:   req.MomoNumber,
		Products:     make([]productLine, len(req.Items)),
		TotalAmount:  req.TotalAmount,
		ShippingInfo: req.ShippingInfo,
	}
	for i, item := range req.Items {
		body.Products[i] = productLine{
			ProductID: item.ProductID,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	var resp createOrderResponse
	if err := c.api.Do(ctx, http.MethodPost, "/api/orders/create", body, &resp); err != nil {
		return nil, err
	}
	if resp.OrderID == "" {
		return nil, &domain.UpstreamError{Service: c.api.Service(), StatusCode: http.StatusOK, Message: "response has no orderId"}
	}
	return &domain.OrderReceipt{OrderID: resp.OrderID}, nil
}
