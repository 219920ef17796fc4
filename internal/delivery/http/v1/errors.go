package v1

import (
	"context"
	"errors"
	"net/http"

	"momo-storefront/internal/domain"
	"momo-storefront/pkg/logger"
	"momo-storefront/pkg/utils"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeDomainError maps usecase and client errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, domain.ErrEmptyCart):
		utils.WriteError(w, http.StatusConflict, "Your cart is empty")
	case errors.Is(err, domain.ErrCheckoutInProgress):
		utils.WriteError(w, http.StatusConflict, "A checkout for this cart is already in progress")
	case errors.Is(err, domain.ErrUnauthenticated):
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: sign in to continue")
	case errors.Is(err, domain.ErrProductNotFound):
		utils.WriteError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, context.DeadlineExceeded):
		utils.WriteError(w, http.StatusGatewayTimeout, "Upstream service timed out")
	case errors.Is(err, domain.ErrUpstream):
		logger.WithContext(r.Context()).Error().Err(err).Msg("Upstream call failed")
		utils.WriteError(w, http.StatusBadGateway, upstreamMessage(err))
	default:
		logger.WithContext(r.Context()).Error().Err(err).Msg("Unhandled error")
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func upstreamMessage(err error) string {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) && ue.StatusCode >= 400 && ue.StatusCode < 500 && ue.Message != "" {
		return ue.Message
	}
	return "Upstream service unavailable"
}
