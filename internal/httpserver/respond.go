package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func respondError(c *gin.Context, logger *log.Logger, err error) {
	var (
		validation *domain.ValidationError
		stock      *domain.StockError
		inactive   *domain.ProductInactiveError
		missing    *domain.ItemNotFoundError
		state      *domain.StateConflictError
		coupon     *domain.CouponError
		upstream   *domain.UpstreamError
	)

	switch {
	case errors.As(err, &validation):
		writeError(c, http.StatusBadRequest, "validation_failed", validation.Error())
	case errors.As(err, &stock):
		writeError(c, http.StatusBadRequest, "insufficient_stock", stock.Error())
	case errors.As(err, &inactive):
		writeError(c, http.StatusBadRequest, "product_inactive", inactive.Error())
	case errors.As(err, &coupon):
		writeError(c, http.StatusBadRequest, "invalid_coupon", coupon.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(c, http.StatusBadRequest, "invalid_quantity", "quantity must be a positive integer")
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(c, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, domain.ErrEmptyOrder):
		writeError(c, http.StatusBadRequest, "empty_order", "order must contain at least one item")
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(c, http.StatusBadRequest, "invalid_amount", "amount must be positive")
	case errors.As(err, &missing):
		writeError(c, http.StatusNotFound, "item_not_found", missing.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", "resource not found")
	case errors.As(err, &state):
		writeError(c, http.StatusConflict, "invalid_transition", state.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(c, http.StatusConflict, "conflict", "resource was modified concurrently, retry")
	case errors.As(err, &upstream):
		logger.Printf("payment gateway error: %v", err)
		writeError(c, http.StatusBadGateway, "gateway_unavailable", upstream.Message)
	default:
		logger.Printf("internal error: %v", err)
		writeError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, "bad_request", message)
}
