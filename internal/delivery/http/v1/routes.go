package v1

import (
	"net/http"

	"momo-storefront/internal/delivery/http/middleware"
)

// RegisterRoutes mounts the storefront API. Session and optional auth
// middleware are applied by the caller around the whole mux.
func RegisterRoutes(mux *http.ServeMux, cart *CartHandler, catalog *CatalogHandler, checkout *CheckoutHandler) {
	// Catalog (Public)
	mux.HandleFunc("GET /api/v1/products", catalog.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", catalog.GetProduct)

	// Cart (anonymous session)
	mux.HandleFunc("GET /api/v1/cart", cart.GetCart)
	mux.HandleFunc("POST /api/v1/cart/items", cart.AddItem)
	mux.HandleFunc("PATCH /api/v1/cart/items/{id}", cart.UpdateItem)
	mux.HandleFunc("DELETE /api/v1/cart/items/{id}", cart.RemoveItem)
	mux.HandleFunc("DELETE /api/v1/cart", cart.ClearCart)

	// Checkout (Protected)
	mux.HandleFunc("GET /api/v1/checkout/status", checkout.Status)
	mux.Handle("POST /api/v1/checkout", middleware.RequireAuth(http.HandlerFunc(checkout.Checkout)))

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)
}
