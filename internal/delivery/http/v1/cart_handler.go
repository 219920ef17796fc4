package v1

import (
	"math"
	"net/http"
	"strings"

	"momo-storefront/internal/delivery/http/middleware"
	"momo-storefront/internal/domain"
	"momo-storefront/internal/usecase"
	"momo-storefront/pkg/utils"

	"github.com/goccy/go-json"
)

const maxBodyBytes = 64 << 10

type CartHandler struct {
	sessions *usecase.CartSessions
	catalog  domain.ProductCatalog
	currency string
}

func NewCartHandler(sessions *usecase.CartSessions, catalog domain.ProductCatalog, currency string) *CartHandler {
	return &CartHandler{sessions: sessions, catalog: catalog, currency: currency}
}

type lineItemResponse struct {
	ID              string `json:"id"`
	ProductID       string `json:"productId"`
	Title           string `json:"title"`
	UnitPrice       string `json:"unitPrice"`
	SelectedImage   string `json:"selectedImage,omitempty"`
	SelectedVariant string `json:"selectedVariant,omitempty"`
	Quantity        int    `json:"quantity"`
	Subtotal        string `json:"subtotal"`
}

type cartResponse struct {
	Items         []lineItemResponse `json:"items"`
	TotalQuantity int                `json:"totalQuantity"`
	TotalPrice    string             `json:"totalPrice"`
	DisplayTotal  string             `json:"displayTotal"`
	Currency      string             `json:"currency"`
	CanCheckout   bool               `json:"canCheckout"`
	Warning       string             `json:"warning,omitempty"`
}

func (h *CartHandler) render(v usecase.CartView) cartResponse {
	resp := cartResponse{
		Items:         make([]lineItemResponse, 0, len(v.Items)),
		TotalQuantity: v.Totals.TotalQuantity,
		TotalPrice:    v.Totals.TotalPrice.StringFixed(2),
		DisplayTotal:  formatMoney(h.currency, v.Totals.TotalPrice),
		Currency:      h.currency,
		CanCheckout:   v.CanCheckout,
	}
	for _, item := range v.Items {
		resp.Items = append(resp.Items, lineItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Title:           item.Title,
			UnitPrice:       item.UnitPrice.StringFixed(2),
			SelectedImage:   item.SelectedImage,
			SelectedVariant: item.SelectedVariant,
			Quantity:        item.Quantity,
			Subtotal:        item.Subtotal().StringFixed(2),
		})
	}
	if v.Degraded {
		resp.Warning = "Your cart could not be saved and will only last for this visit"
	}
	return resp
}

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*usecase.CartStore, bool) {
	store, err := h.sessions.Get(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return store, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.render(store.View()))
}

type addItemRequest struct {
	ProductID string       `json:"productId"`
	Variant   string       `json:"variant"`
	Quantity  *json.Number `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := utils.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		q, err := parseQuantity(*req.Quantity)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		quantity = q
	}
	if strings.TrimSpace(req.ProductID) == "" {
		writeDomainError(w, r, domain.NewValidationError("productId", "is required"))
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	variant := strings.TrimSpace(req.Variant)
	if variant != "" && len(product.Colors) > 0 && !product.HasColor(variant) {
		writeDomainError(w, r, domain.NewValidationError("variant", "%q is not available for this product", variant))
		return
	}

	if _, err := store.Add(r.Context(), *product, variant, quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, h.render(store.View()))
}

type updateItemRequest struct {
	Action   string       `json:"action"`
	Quantity *json.Number `json:"quantity"`
}

// UpdateItem accepts {"action":"inc"|"dec"} or an absolute {"quantity":n}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := utils.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	itemID := r.PathValue("id")

	var err error
	switch {
	case req.Action != "":
		err = store.Toggle(r.Context(), itemID, domain.ToggleAction(req.Action))
	case req.Quantity != nil:
		var q int
		if q, err = parseQuantity(*req.Quantity); err == nil {
			err = store.SetQuantity(r.Context(), itemID, q)
		}
	default:
		err = domain.NewValidationError("action", "either action or quantity is required")
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.render(store.View()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Remove(r.Context(), r.PathValue("id"))
	utils.WriteJSON(w, http.StatusOK, h.render(store.View()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Clear(r.Context())
	utils.WriteJSON(w, http.StatusOK, h.render(store.View()))
}

// parseQuantity accepts whole numbers only; 1.5 or 1e3 are rejected rather
// than truncated.
func parseQuantity(n json.Number) (int, error) {
	v, err := n.Int64()
	if err != nil || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, domain.NewValidationError("quantity", "must be a whole number, got %s", n.String())
	}
	return int(v), nil
}
