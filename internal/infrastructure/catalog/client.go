package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"momo-storefront/internal/domain"
	"momo-storefront/internal/infrastructure/upstream"
	"momo-storefront/pkg/cache"
	"momo-storefront/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 200 * time.Millisecond
)

// productDTO is the remote API's product shape.
type productDTO struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Colors      []string        `json:"colors"`
	Category    string          `json:"category"`
}

func (p productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		Title:       p.Name,
		Price:       p.Price,
		Description: p.Description,
		Images:      p.Images,
		Colors:      p.Colors,
		Category:    p.Category,
	}
}

type productResponse struct {
	Product *productDTO `json:"product"`
}

type listResponse struct {
	Products   []productDTO `json:"products"`
	TotalPages int          `json:"totalPages"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
}

// Client implements domain.ProductCatalog over the remote REST API.
// Product lookups are cached; product lists are not.
type Client struct {
	api      *upstream.Client
	cache    cache.CacheService
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

type Option func(*Client)

// WithRetry overrides the attempt count and the linear backoff step.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.backoff = backoff
	}
}

func NewClient(baseURL string, timeout time.Duration, c cache.CacheService, ttl time.Duration, opts ...Option) *Client {
	cl := &Client{
		api:      upstream.NewClient("catalog", baseURL, timeout),
		cache:    c,
		ttl:      ttl,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.NewValidationError("productId", "is required")
	}

	cacheKey := "product:" + productID
	if c.cache != nil {
		if v, ok := c.cache.Get(cacheKey); ok {
			p := v.(domain.Product)
			return &p, nil
		}
	}

	var resp productResponse
	err := c.get(ctx, "/api/products/"+url.PathEscape(productID), &resp)
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
		}
		return nil, err
	}
	if resp.Product == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}

	p := resp.Product.toDomain()
	if p.ID == "" {
		p.ID = productID
	}
	if c.cache != nil {
		c.cache.Set(cacheKey, p, c.ttl)
	}
	return &p, nil
}

func (c *Client) ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	q := url.Values{}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}

	path := "/api/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp listResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	page := &domain.ProductPage{
		Products: make([]domain.Product, 0, len(resp.Products)),
		Pagination: domain.Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalItems: resp.Total,
			TotalPages: resp.TotalPages,
		},
	}
	if resp.Page > 0 {
		page.Pagination.Page = resp.Page
	}
	if page.Pagination.TotalPages == 0 {
		page.Pagination.TotalPages = 1
	}
	for _, p := range resp.Products {
		page.Products = append(page.Products, p.toDomain())
	}
	return page, nil
}

// get retries idempotent reads on transport errors, 5xx and 429 with a
// linear backoff.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		err := c.api.Do(ctx, http.MethodGet, path, nil, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !upstream.Retryable(err) {
			break
		}
		logger.WithContext(ctx).Warn().Err(err).Int("attempt", attempt+1).Str("path", path).Msg("Catalog: retrying request")
	}
	return lastErr
}
