package v1

import (
	"context"
	"errors"
	"net/http"

	"momo-storefront/internal/delivery/http/middleware"
	"momo-storefront/internal/domain"
	"momo-storefront/internal/usecase"
	"momo-storefront/pkg/utils"
)

type CheckoutHandler struct {
	checkout *usecase.CheckoutUsecase
	currency string
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase, currency string) *CheckoutHandler {
	return &CheckoutHandler{checkout: uc, currency: currency}
}

type checkoutRequest struct {
	PhoneNumber  string              `json:"phoneNumber"`
	MomoNumber   string              `json:"momoNumber"`
	ShippingInfo domain.ShippingInfo `json:"shippingInfo"`
}

type paymentResponse struct {
	Status      domain.PaymentStatus `json:"status"`
	Message     string               `json:"message,omitempty"`
	ReferenceID string               `json:"referenceId,omitempty"`
}

type checkoutResponse struct {
	OrderID       string           `json:"orderId"`
	Amount        string           `json:"amount"`
	DisplayAmount string           `json:"displayAmount"`
	TotalQuantity int              `json:"totalQuantity"`
	Confirmed     bool             `json:"confirmed"`
	Payment       *paymentResponse `json:"payment,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func (h *CheckoutHandler) render(res *usecase.CheckoutResult) checkoutResponse {
	resp := checkoutResponse{
		OrderID:       res.OrderID,
		Amount:        res.Amount.StringFixed(2),
		DisplayAmount: formatMoney(h.currency, res.Amount),
		TotalQuantity: res.TotalQuantity,
	}
	if res.Payment != nil {
		resp.Payment = &paymentResponse{
			Status:      res.Payment.Status,
			Message:     res.Payment.Message,
			ReferenceID: res.Payment.ReferenceID,
		}
		resp.Confirmed = res.Payment.Status == domain.PaymentStatusSuccessful
	}
	return resp
}

// Checkout places the order and requests the MoMo collection. The payment
// status is reported in the body; only SUCCESSFUL counts as confirmed.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := utils.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userRef := ""
	if user := middleware.CurrentUser(r.Context()); user != nil {
		userRef = user.ID
	}

	phone := req.PhoneNumber
	if phone == "" {
		phone = req.MomoNumber
	}

	res, err := h.checkout.Checkout(r.Context(), middleware.SessionID(r.Context()), userRef, usecase.CheckoutInput{
		PhoneNumber: phone,
		Shipping:    req.ShippingInfo,
	})
	if err != nil {
		if res != nil {
			// The order exists and the cart is cleared; only the collection failed.
			resp := h.render(res)
			resp.Error = "Payment could not be requested. Your order was saved; please retry payment."
			status := http.StatusBadGateway
			if errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
			utils.WriteJSON(w, status, resp)
			return
		}
		writeDomainError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, h.render(res))
}

// Status reports whether the session's cart can be checked out.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	ok, err := h.checkout.CanCheckout(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"canCheckout": ok})
}
