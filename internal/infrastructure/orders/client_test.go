package orders

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"momo-storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_SendsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders/create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"userId":"u1",
			"momoNumber":"76123456",
			"products":[{"productId":"p1","variant":"red","quantity":2,"price":"150"}],
			"totalAmount":"300",
			"shippingInfo":{"fullName":"Thandi","phone":"76123456","address":"Mbabane"}
		}`, string(body))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"orderId":"ord-9"}`))
	}))
	defer srv.Close()

	ctx := context.WithValue(context.Background(), domain.TokenContextKey, "tok")
	receipt, err := NewClient(srv.URL, time.Second).CreateOrder(ctx, domain.CreateOrderRequest{
		UserRef:    "u1",
		MomoNumber: "76123456",
		Items: []domain.OrderItem{
			{ProductID: "p1", Variant: "red", Quantity: 2, Price: decimal.NewFromInt(150)},
		},
		TotalAmount:  decimal.NewFromInt(300),
		ShippingInfo: domain.ShippingInfo{FullName: "Thandi", Phone: "76123456", Address: "Mbabane"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-9", receipt.OrderID)
}

func TestCreateOrder_DoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"database down"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).CreateOrder(context.Background(), domain.CreateOrderRequest{UserRef: "u1"})

	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusServiceUnavailable, ue.StatusCode)
	assert.Equal(t, "database down", ue.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreateOrder_MissingOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).CreateOrder(context.Background(), domain.CreateOrderRequest{UserRef: "u1"})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}
