package v1

import (
	"net/http"
	"strings"

	"momo-storefront/internal/domain"
	"momo-storefront/pkg/utils"
)

const (
	defaultPageSize = 8
	maxPageSize     = 50
)

type CatalogHandler struct {
	catalog  domain.ProductCatalog
	currency string
}

func NewCatalogHandler(catalog domain.ProductCatalog, currency string) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, currency: currency}
}

type productResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Price        string   `json:"price"`
	DisplayPrice string   `json:"displayPrice"`
	Description  string   `json:"description,omitempty"`
	Images       []string `json:"images"`
	Colors       []string `json:"colors"`
	Category     string   `json:"category,omitempty"`
}

func (h *CatalogHandler) toResponse(p domain.Product) productResponse {
	images, colors := p.Images, p.Colors
	if images == nil {
		images = []string{}
	}
	if colors == nil {
		colors = []string{}
	}
	return productResponse{
		ID:           p.ID,
		Title:        p.Title,
		Price:        p.Price.StringFixed(2),
		DisplayPrice: formatMoney(h.currency, p.Price),
		Description:  p.Description,
		Images:       images,
		Colors:       colors,
		Category:     p.Category,
	}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.ProductFilter{
		Page:     utils.ParseInt(query.Get("page"), 1),
		Limit:    utils.ClampInt(utils.ParseInt(query.Get("limit"), defaultPageSize), 1, maxPageSize),
		Category: strings.TrimSpace(query.Get("category")),
		Search:   strings.TrimSpace(query.Get("search")),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	page, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	products := make([]productResponse, 0, len(page.Products))
	for _, p := range page.Products {
		products = append(products, h.toResponse(p))
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       products,
		"pagination": page.Pagination,
	})
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.toResponse(*product))
}
