package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"momo-storefront/internal/domain"
	memcache "momo-storefront/internal/infrastructure/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(url, time.Second, memcache.NewMemoryCache(time.Minute, time.Minute), time.Minute, WithRetry(3, time.Millisecond))
}

func TestGetProduct_MapsWireShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/p1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"product":{"_id":"p1","name":"Air Fryer","price":899.5,"description":"4L","images":["a.jpg"],"colors":["black"]}}`))
	}))
	defer srv.Close()

	ctx := context.WithValue(context.Background(), domain.TokenContextKey, "tok")
	p, err := newTestClient(srv.URL).GetProduct(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Air Fryer", p.Title)
	assert.True(t, decimal.RequireFromString("899.5").Equal(p.Price))
	assert.Equal(t, []string{"a.jpg"}, p.Images)
	assert.Equal(t, []string{"black"}, p.Colors)
}

func TestGetProduct_CachesHits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"product":{"_id":"p1","name":"Tee","price":"100"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		_, err := c.GetProduct(context.Background(), "p1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetProduct_NotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Product not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx is not retried")
}

func TestGetProduct_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"product":{"_id":"p1","name":"Tee","price":"100"}}`))
	}))
	defer srv.Close()

	p, err := newTestClient(srv.URL).GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Tee", p.Title)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetProduct_GivesUpAfterAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetProduct(context.Background(), "p1")

	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
	assert.Equal(t, "slow down", ue.Message)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetProduct_BlankID(t *testing.T) {
	_, err := newTestClient("http://unused").GetProduct(context.Background(), " ")
	assert.True(t, domain.IsValidation(err))
}

func TestListProducts_PassesFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "8", q.Get("limit"))
		assert.Equal(t, "kitchen", q.Get("category"))
		assert.Equal(t, "fryer", q.Get("search"))
		w.Write([]byte(`{"products":[{"_id":"p1","name":"Air Fryer","price":899}],"totalPages":4}`))
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).ListProducts(context.Background(), domain.ProductFilter{
		Page: 2, Limit: 8, Category: "kitchen", Search: "fryer",
	})
	require.NoError(t, err)

	require.Len(t, page.Products, 1)
	assert.Equal(t, "Air Fryer", page.Products[0].Title)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 4, page.Pagination.TotalPages)
}
